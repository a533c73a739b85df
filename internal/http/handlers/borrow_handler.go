package handlers

import (
	applog "lendshelf/internal/log"
	"lendshelf/internal/services"
	"lendshelf/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type BorrowHandler struct {
	Svc *services.BorrowService
}

type borrowBody struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

type returnBody struct {
	BorrowID string `json:"borrowId"`
}

func (h *BorrowHandler) Borrow(c *fiber.Ctx) error {
	var body borrowBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	userID, okUser := validate.UUID(body.UserID)
	bookID, okBook := validate.UUID(body.BookID)
	if !okUser || !okBook {
		return fail(c, fiber.StatusBadRequest, "userId and bookId must be UUIDs")
	}

	borrow, err := h.Svc.Borrow(userID, bookID)
	if err != nil {
		applog.Security(c, "borrow.fail", map[string]any{"user_id": userID, "book_id": bookID, "error": err.Error()})
		return failErr(c, err)
	}
	applog.Audit(c, "borrow.create", map[string]any{"borrow_id": borrow.ID, "user_id": userID, "book_id": bookID})
	return ok(c, fiber.StatusOK, "book lent", borrow)
}

func (h *BorrowHandler) Return(c *fiber.Ctx) error {
	var body returnBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	borrowID, okID := validate.UUID(body.BorrowID)
	if !okID {
		return fail(c, fiber.StatusBadRequest, "borrowId must be a UUID")
	}

	borrow, err := h.Svc.Return(borrowID)
	if err != nil {
		applog.Security(c, "return.fail", map[string]any{"borrow_id": borrowID, "error": err.Error()})
		return failErr(c, err)
	}
	applog.Audit(c, "borrow.close", map[string]any{"borrow_id": borrowID})
	return ok(c, fiber.StatusOK, "book returned", borrow)
}

func (h *BorrowHandler) ListOpen(c *fiber.Ctx) error {
	borrows, err := h.Svc.ListOpen()
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.StatusOK, "open loans", borrows)
}

func (h *BorrowHandler) UserHistory(c *fiber.Ctx) error {
	userID, okID := validate.UUID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "malformed user id")
	}
	history, err := h.Svc.UserHistory(userID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.StatusOK, "user history", history)
}
