package repos_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendshelf/internal/repos"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "repos_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStampSortsLexicographically(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	// Same second, fractions where one textual prefix would invert the order
	// if trailing zeros were trimmed.
	earlier := repos.Stamp(base.Add(123400000 * time.Nanosecond))
	later := repos.Stamp(base.Add(123450000 * time.Nanosecond))

	assert.Len(t, later, len(earlier), "stamps are fixed-width")
	assert.Less(t, earlier, later, "string order must match chronological order")
}

func TestListOpenOrdersSameSecondLoans(t *testing.T) {
	db := openTestDB(t)
	now := repos.Stamp(time.Now())

	_, err := db.Exec(`INSERT INTO users(id,name,email,password_hash,created_at) VALUES(?,?,?,?,?)`,
		"u-1", "Alice", "alice@example.com", "x", now)
	require.NoError(t, err)
	for _, id := range []string{"b-1", "b-2"} {
		_, err := db.Exec(`INSERT INTO books(id,title,author,published_year,genre,is_available,created_at) VALUES(?,?,?,?,?,0,?)`,
			id, "Vol "+id, "Author", 2008, "software", now)
		require.NoError(t, err)
	}

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	first := repos.Stamp(base.Add(123400000 * time.Nanosecond))
	second := repos.Stamp(base.Add(123450000 * time.Nanosecond))
	for _, row := range []struct{ id, book, date string }{
		{"loan-1", "b-1", first},
		{"loan-2", "b-2", second},
	} {
		_, err := db.Exec(`INSERT INTO borrows(id,user_id,book_id,borrow_date,return_date,created_at) VALUES(?,?,?,?,NULL,?)`,
			row.id, "u-1", row.book, row.date, row.date)
		require.NoError(t, err)
	}

	open, err := repos.NewBorrowRepo(db).ListOpen()
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "loan-2", open[0].ID, "most recent loan first, even within a second")
	assert.Equal(t, "loan-1", open[1].ID)
}
