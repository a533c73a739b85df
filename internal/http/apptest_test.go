package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"lendshelf/internal/http/handlers"
	applog "lendshelf/internal/log"
	"lendshelf/internal/repos"
	"lendshelf/internal/services"
)

type envelope struct {
	Status  bool            `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newTestApp wires the real handlers the way cmd/lendshelf does, minus the
// rate limiters.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "lendshelf_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo, "test-secret", time.Hour, 4)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"status": false, "code": code, "message": "Something went wrong. Please try again.",
			})
		},
	})
	app.Use(requestid.New())

	deps := handlers.NewDeps(db, authSvc)

	auth := app.Group("/auth")
	auth.Post("/register", deps.AuthHandler.Register)
	auth.Post("/login", deps.AuthHandler.Login)
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

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: bad envelope %q: %v", method, path, raw, err)
		}
	}
	return resp, env
}

func containsField(raw json.RawMessage, field string) bool {
	return bytes.Contains(raw, []byte(`"`+field+`"`))
}

func decodeData(t *testing.T, env envelope, into any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode data %q: %v", env.Data, err)
	}
}

// registerUser creates an account over HTTP and returns its id and token.
func registerUser(t *testing.T, app *fiber.App, name, email string) (string, string) {
	t.Helper()
	resp, env := doJSON(t, app, "POST", "/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "Str0ng!Pass",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, resp.StatusCode, env.Message)
	}
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decodeData(t, env, &data)
	if data.User.ID == "" || data.Token == "" {
		t.Fatalf("register %s: missing user id or token in %s", email, env.Data)
	}
	return data.User.ID, data.Token
}

func createBook(t *testing.T, app *fiber.App, token, title string) string {
	t.Helper()
	resp, env := doJSON(t, app, "POST", "/books/", token, map[string]any{
		"title": title, "author": "Robert C. Martin", "publishedYear": 2008, "genre": "software",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create book: status %d (%s)", resp.StatusCode, env.Message)
	}
	var book struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &book)
	return book.ID
}
