package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jsoniter "github.com/json-iterator/go"

	"lendshelf/internal/config"
	"lendshelf/internal/http/handlers"
	applog "lendshelf/internal/log"
	"lendshelf/internal/repos"
	"lendshelf/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.BcryptCost)

	app := fiber.New(fiber.Config{
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and answer a generic envelope; never leak internals.
			applog.Error(c, "server.error", err, nil)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"status":  false,
				"code":    code,
				"message": "Something went wrong. Please try again.",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": false, "code": fiber.StatusTooManyRequests, "message": "rate limit exceeded, retry soon",
			})
		},
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, authSvc)

	auth := app.Group("/auth")
	auth.Post("/register", deps.AuthHandler.Register)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": false, "code": fiber.StatusTooManyRequests, "message": "too many attempts, try again later",
			})
		},
	}), deps.AuthHandler.Login)
	auth.Post("/logout", deps.AuthHandler.Logout)

	books := app.Group("/books", handlers.RequireAuth(authSvc))
	books.Post("/", deps.BookHandler.Create)
	books.Get("/", deps.BookHandler.List)
	books.Get("/:id", deps.BookHandler.Get)
	books.Patch("/:id", deps.BookHandler.Patch)
	books.Delete("/:id", deps.BookHandler.Delete)

	app.Post("/borrow", deps.BorrowHandler.Borrow)
	app.Post("/return", deps.BorrowHandler.Return)
	app.Get("/borrowed", deps.BorrowHandler.ListOpen)
	app.Get("/users/:id/history", deps.BorrowHandler.UserHistory)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": false, "code": fiber.StatusNotFound, "message": "route not found",
		})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
