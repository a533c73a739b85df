package repos

import (
	"database/sql"
	"strings"

	"lendshelf/internal/domain"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("sqlite3")

type BookRepo struct{ db *sqlx.DB }

func NewBookRepo(db *sqlx.DB) *BookRepo { return &BookRepo{db: db} }

// BookFilter narrows List; zero values mean "no filter".
type BookFilter struct {
	Q         string
	Author    string
	Genre     string
	Available *bool
}

// BookPatch carries the updatable fields. Availability is deliberately
// absent: only the borrow workflow may flip is_available.
type BookPatch struct {
	Title         *string
	Author        *string
	PublishedYear *int
	Genre         *string
}

func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.PublishedYear == nil && p.Genre == nil
}

const bookCols = `id,title,author,published_year,genre,is_available,created_at,COALESCE(updated_at,'') AS updated_at`

func (r *BookRepo) Create(b domain.Book) error {
	_, err := r.db.Exec(`
		INSERT INTO books(id,title,author,published_year,genre,is_available,created_at)
		VALUES(?,?,?,?,?,?,?)`,
		b.ID, b.Title, b.Author, b.PublishedYear, b.Genre, b.IsAvailable, b.CreatedAt)
	return err
}

func (r *BookRepo) Get(id string) (domain.Book, error) {
	var b domain.Book
	err := r.db.Get(&b, `SELECT `+bookCols+` FROM books WHERE id=?`, id)
	return b, err
}

func (r *BookRepo) List(f BookFilter) ([]domain.Book, error) {
	ds := dialect.From("books").Select(
		goqu.C("id"), goqu.C("title"), goqu.C("author"),
		goqu.C("published_year"), goqu.C("genre"), goqu.C("is_available"),
		goqu.C("created_at"), goqu.L("COALESCE(updated_at,'')").As("updated_at"),
	).Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())

	if f.Q != "" {
		pat := "%" + strings.ToLower(f.Q) + "%"
		ds = ds.Where(goqu.Or(
			goqu.L("LOWER(title)").Like(pat),
			goqu.L("LOWER(author)").Like(pat),
		))
	}
	if f.Author != "" {
		ds = ds.Where(goqu.L("LOWER(author)").Eq(strings.ToLower(f.Author)))
	}
	if f.Genre != "" {
		ds = ds.Where(goqu.C("genre").Eq(f.Genre))
	}
	if f.Available != nil {
		ds = ds.Where(goqu.C("is_available").Eq(*f.Available))
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var out []domain.Book
	err = r.db.Select(&out, q, args...)
	return out, err
}

// Update patches the supplied fields only. Returns sql.ErrNoRows when no book
// has the given id.
func (r *BookRepo) Update(id string, p BookPatch) error {
	rec := goqu.Record{"updated_at": goqu.L("CURRENT_TIMESTAMP")}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.PublishedYear != nil {
		rec["published_year"] = *p.PublishedYear
	}
	if p.Genre != nil {
		rec["genre"] = *p.Genre
	}

	q, args, err := dialect.Update("books").Set(rec).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	res, err := r.db.Exec(q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
