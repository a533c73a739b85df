package handlers

import (
	"time"

	applog "lendshelf/internal/log"
	"lendshelf/internal/services"
	"lendshelf/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setJWTCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // set true behind HTTPS
		Expires:  time.Now().Add(ttl),
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body registerBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	name, okName := validate.Name(body.Name)
	if !okName {
		applog.Security(c, "auth.register.fail", map[string]any{"reason": "bad_name"})
		return fail(c, fiber.StatusBadRequest, "name must be 1-256 characters")
	}
	email, okEmail := validate.Email(body.Email)
	if !okEmail {
		applog.Security(c, "auth.register.fail", map[string]any{"reason": "bad_email"})
		return fail(c, fiber.StatusBadRequest, "invalid email")
	}
	if !validate.Password(body.Password) {
		applog.Security(c, "auth.register.fail", map[string]any{"email": email, "reason": "weak_password"})
		return fail(c, fiber.StatusBadRequest, "password must be 8-128 characters with upper, lower, digit and symbol")
	}

	user, token, err := h.Auth.Register(name, email, body.Password)
	if err != nil {
		applog.Security(c, "auth.register.fail", map[string]any{"email": email})
		return failErr(c, err)
	}

	setJWTCookie(c, token, h.Auth.TTL)
	applog.Audit(c, "auth.register.success", map[string]any{"email": email})
	return ok(c, fiber.StatusCreated, "registration successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	// Format failures get the same answer as wrong credentials.
	email, okEmail := validate.Email(body.Email)
	if !okEmail || body.Password == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return fail(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	_, token, err := h.Auth.Login(email, body.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return fail(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	setJWTCookie(c, token, h.Auth.TTL)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	return ok(c, fiber.StatusOK, "authorization successful", fiber.Map{"token": token})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	// Tokens are stateless; logout just expires the cookie.
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return ok(c, fiber.StatusOK, "logout successful", nil)
}
