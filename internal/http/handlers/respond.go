package handlers

import (
	"errors"

	"lendshelf/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// Every response wears the same envelope: {status, code, message, data} on
// success, {status, code, message} on failure.

func ok(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  true,
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  false,
		"code":    code,
		"message": message,
	})
}

// failErr maps domain sentinels onto response codes. Unknown errors bubble up
// to the app ErrorHandler, which logs them and answers a generic 500.
func failErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrBorrowNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBadCreds),
		errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrAlreadyReturned):
		return fail(c, fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
