package repos

import (
	"database/sql"
	"errors"
	"time"

	"lendshelf/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BorrowRepo struct{ db *sqlx.DB }

func NewBorrowRepo(db *sqlx.DB) *BorrowRepo { return &BorrowRepo{db: db} }

const borrowCols = `id,user_id,book_id,borrow_date,return_date,created_at,COALESCE(updated_at,'') AS updated_at`

// Stamp formats a DB timestamp. The fraction is fixed-width (RFC3339Nano
// trims trailing zeros, which breaks string ordering within a second), so
// UTC stamps sort lexicographically and ORDER BY on these columns needs no
// datetime() wrapping.
func Stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// CreateLoan flips the book to unavailable and inserts the open borrow row as
// one transaction. The flip is a conditional update: if another loan got there
// first (or the book was already out) zero rows change and the whole unit
// rolls back with ErrBookUnavailable. This is what makes two concurrent
// borrows of the same book resolve to exactly one winner.
func (r *BorrowRepo) CreateLoan(userID, bookID string) (domain.Borrow, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Borrow{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE books SET is_available=0, updated_at=?
		WHERE id=? AND is_available=1`, Stamp(time.Now()), bookID)
	if err != nil {
		return domain.Borrow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Borrow{}, domain.ErrBookUnavailable
	}

	now := Stamp(time.Now())
	b := domain.Borrow{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		CreatedAt:  now,
	}
	if _, err := tx.Exec(`
		INSERT INTO borrows(id,user_id,book_id,borrow_date,return_date,created_at)
		VALUES(?,?,?,?,NULL,?)`,
		b.ID, b.UserID, b.BookID, b.BorrowDate, b.CreatedAt); err != nil {
		return domain.Borrow{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Borrow{}, err
	}
	return b, nil
}

// CloseLoan sets the borrow's return date and flips the book back to
// available, atomically. A borrow that is already closed is rejected; the
// return date is written exactly once.
func (r *BorrowRepo) CloseLoan(borrowID string) (domain.Borrow, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Borrow{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var b domain.Borrow
	if err := tx.Get(&b, `SELECT `+borrowCols+` FROM borrows WHERE id=?`, borrowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Borrow{}, domain.ErrBorrowNotFound
		}
		return domain.Borrow{}, err
	}
	if b.ReturnDate != nil {
		return domain.Borrow{}, domain.ErrAlreadyReturned
	}

	now := Stamp(time.Now())
	if _, err := tx.Exec(`UPDATE books SET is_available=1, updated_at=? WHERE id=?`, now, b.BookID); err != nil {
		return domain.Borrow{}, err
	}
	res, err := tx.Exec(`
		UPDATE borrows SET return_date=?, updated_at=?
		WHERE id=? AND return_date IS NULL`, now, now, borrowID)
	if err != nil {
		return domain.Borrow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Borrow{}, domain.ErrAlreadyReturned
	}

	if err := tx.Commit(); err != nil {
		return domain.Borrow{}, err
	}
	b.ReturnDate = &now
	b.UpdatedAt = now
	return b, nil
}

func (r *BorrowRepo) Get(id string) (domain.Borrow, error) {
	var b domain.Borrow
	err := r.db.Get(&b, `SELECT `+borrowCols+` FROM borrows WHERE id=?`, id)
	return b, err
}

// ListOpen returns every open loan, newest first.
func (r *BorrowRepo) ListOpen() ([]domain.Borrow, error) {
	var out []domain.Borrow
	err := r.db.Select(&out, `
		SELECT `+borrowCols+` FROM borrows
		WHERE return_date IS NULL
		ORDER BY borrow_date DESC`)
	return out, err
}

// ByUser returns the user's full loan history, open and closed, newest first.
func (r *BorrowRepo) ByUser(userID string) ([]domain.Borrow, error) {
	var out []domain.Borrow
	err := r.db.Select(&out, `
		SELECT `+borrowCols+` FROM borrows
		WHERE user_id=?
		ORDER BY borrow_date DESC`, userID)
	return out, err
}

// ForBooks maps book id to its borrows, for the catalog's eager listing.
func (r *BorrowRepo) ForBooks(bookIDs []string) (map[string][]domain.Borrow, error) {
	if len(bookIDs) == 0 {
		return map[string][]domain.Borrow{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+borrowCols+` FROM borrows
		WHERE book_id IN (?)
		ORDER BY borrow_date DESC`, bookIDs)
	if err != nil {
		return nil, err
	}
	var rows []domain.Borrow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.Borrow, len(bookIDs))
	for _, b := range rows {
		out[b.BookID] = append(out[b.BookID], b)
	}
	return out, nil
}

// BooksByID fetches the given books keyed by id (loan listing attachments).
func (r *BorrowRepo) BooksByID(ids []string) (map[string]domain.Book, error) {
	out := make(map[string]domain.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+bookCols+` FROM books WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Book
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for _, b := range rows {
		out[b.ID] = b
	}
	return out, nil
}

// UsersByID fetches sanitized users keyed by id.
func (r *BorrowRepo) UsersByID(ids []string) (map[string]domain.SafeUser, error) {
	out := make(map[string]domain.SafeUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT id,name,email,created_at,COALESCE(updated_at,'') AS updated_at
		FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.SafeUser
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}
