package handlers

import (
	applog "lendshelf/internal/log"
	"lendshelf/internal/repos"
	"lendshelf/internal/services"
	"lendshelf/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type BookHandler struct {
	Catalog *services.CatalogService
}

type createBookBody struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"publishedYear"`
	Genre         string `json:"genre"`
	IsAvailable   *bool  `json:"isAvailable"`
}

// patchBookBody uses pointers so "field absent" and "field empty" stay
// distinguishable. isAvailable is not patchable here; the borrow workflow is
// the only writer of availability.
type patchBookBody struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	PublishedYear *int    `json:"publishedYear"`
	Genre         *string `json:"genre"`
}

func (h *BookHandler) Create(c *fiber.Ctx) error {
	var body createBookBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	title := validate.Trimmed(body.Title)
	author := validate.Trimmed(body.Author)
	if title == "" || author == "" {
		applog.Security(c, "books.create.fail", map[string]any{"reason": "missing_fields"})
		return fail(c, fiber.StatusBadRequest, "title and author are required")
	}
	if !validate.Year(body.PublishedYear) {
		return fail(c, fiber.StatusBadRequest, "publishedYear out of range")
	}

	avail := true
	if body.IsAvailable != nil {
		avail = *body.IsAvailable
	}
	book, err := h.Catalog.Create(services.NewBook{
		Title:         title,
		Author:        author,
		PublishedYear: body.PublishedYear,
		Genre:         validate.Trimmed(body.Genre),
		IsAvailable:   avail,
	})
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "books.create", map[string]any{"book_id": book.ID})
	return ok(c, fiber.StatusCreated, "book created", book)
}

func (h *BookHandler) List(c *fiber.Ctx) error {
	f := repos.BookFilter{
		Q:      validate.Trimmed(c.Query("q")),
		Author: validate.Trimmed(c.Query("author")),
		Genre:  validate.Trimmed(c.Query("genre")),
	}
	switch c.Query("available") {
	case "true":
		v := true
		f.Available = &v
	case "false":
		v := false
		f.Available = &v
	}

	books, err := h.Catalog.FindAll(f)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.StatusOK, "books listed", books)
}

func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, okID := validate.UUID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "malformed book id")
	}
	// Absent books answer 200 with null data; callers check.
	book, err := h.Catalog.FindOne(id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, fiber.StatusOK, "book lookup", book)
}

func (h *BookHandler) Patch(c *fiber.Ctx) error {
	id, okID := validate.UUID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "malformed book id")
	}

	var body patchBookBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	p := repos.BookPatch{PublishedYear: body.PublishedYear}
	if body.Title != nil {
		if t := validate.Trimmed(*body.Title); t != "" {
			p.Title = &t
		}
	}
	if body.Author != nil {
		if a := validate.Trimmed(*body.Author); a != "" {
			p.Author = &a
		}
	}
	if body.Genre != nil {
		g := validate.Trimmed(*body.Genre)
		p.Genre = &g
	}
	if body.PublishedYear != nil && !validate.Year(*body.PublishedYear) {
		return fail(c, fiber.StatusBadRequest, "publishedYear out of range")
	}
	if p.Empty() {
		return fail(c, fiber.StatusBadRequest, "no updatable fields supplied")
	}

	book, err := h.Catalog.Update(id, p)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "books.update", map[string]any{"book_id": id})
	return ok(c, fiber.StatusOK, "book updated", book)
}

func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, okID := validate.UUID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "malformed book id")
	}
	if err := h.Catalog.Remove(id); err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "books.delete", map[string]any{"book_id": id})
	return ok(c, fiber.StatusOK, "book deleted", fiber.Map{})
}
