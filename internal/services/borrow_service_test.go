package services_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendshelf/internal/domain"
	"lendshelf/internal/repos"
	"lendshelf/internal/services"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "lendshelf_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	users   *repos.UserRepo
	books   *repos.BookRepo
	borrows *repos.BorrowRepo
	svc     *services.BorrowService
	catalog *services.CatalogService
	auth    *services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	users := repos.NewUserRepo(db)
	books := repos.NewBookRepo(db)
	borrows := repos.NewBorrowRepo(db)
	return &fixture{
		users:   users,
		books:   books,
		borrows: borrows,
		svc:     services.NewBorrowService(users, books, borrows),
		catalog: services.NewCatalogService(books, borrows),
		auth:    services.NewAuthService(users, "test-secret", time.Hour, 4),
	}
}

func (f *fixture) user(t *testing.T, name, email string) domain.SafeUser {
	t.Helper()
	u, _, err := f.auth.Register(name, email, "Str0ng!Pass")
	require.NoError(t, err)
	return u
}

func (f *fixture) book(t *testing.T, title string) domain.Book {
	t.Helper()
	b, err := f.catalog.Create(services.NewBook{Title: title, Author: "Robert C. Martin", PublishedYear: 2008, Genre: "software", IsAvailable: true})
	require.NoError(t, err)
	return b
}

func TestBorrowLendsAvailableBook(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	book := f.book(t, "Clean Code")

	borrow, err := f.svc.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, borrow.UserID)
	assert.Equal(t, book.ID, borrow.BookID)
	assert.Nil(t, borrow.ReturnDate)
	assert.NotEmpty(t, borrow.BorrowDate)

	require.NotNil(t, borrow.User)
	assert.Equal(t, alice.Email, borrow.User.Email)
	require.NotNil(t, borrow.Book)
	assert.False(t, borrow.Book.IsAvailable)

	got, err := f.books.Get(book.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable, "book must be flagged unavailable after borrow")
}

func TestBorrowUnavailableBookRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	book := f.book(t, "Clean Code")

	_, err := f.svc.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	_, err = f.svc.Borrow(bob.ID, book.ID)
	require.ErrorIs(t, err, domain.ErrBookUnavailable)

	open, err := f.svc.ListOpen()
	require.NoError(t, err)
	assert.Len(t, open, 1, "rejected borrow must not create a loan row")
}

func TestBorrowMissingBook(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")

	_, err := f.svc.Borrow(alice.ID, "3d2c1b0a-9e8f-4d6c-8b4a-3210fedcba98")
	require.ErrorIs(t, err, domain.ErrBookNotFound)

	open, err := f.svc.ListOpen()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestBorrowMissingUser(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Clean Code")

	_, err := f.svc.Borrow("7a1b1e3b-1c0a-4f3c-8f7e-1b2c3d4e5f67", book.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	got, err := f.books.Get(book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable, "failed borrow must leave the book available")
}

func TestReturnClosesLoanExactlyOnce(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	book := f.book(t, "Clean Code")

	borrow, err := f.svc.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	closed, err := f.svc.Return(borrow.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ReturnDate)

	got, err := f.books.Get(book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)

	// Second return is rejected and the first write stands.
	_, err = f.svc.Return(borrow.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyReturned)

	again, err := f.borrows.Get(borrow.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ReturnDate)
	assert.Equal(t, *closed.ReturnDate, *again.ReturnDate)
}

func TestReturnMissingBorrow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Return("0d8f0b1a-3a52-4b6e-8f8b-a2b1d9e3d123")
	require.ErrorIs(t, err, domain.ErrBorrowNotFound)
}

func TestListOpenIdempotentAndOrdered(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	first := f.book(t, "Clean Code")
	second := f.book(t, "The Pragmatic Programmer")

	b1, err := f.svc.Borrow(alice.ID, first.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	b2, err := f.svc.Borrow(alice.ID, second.ID)
	require.NoError(t, err)

	open1, err := f.svc.ListOpen()
	require.NoError(t, err)
	open2, err := f.svc.ListOpen()
	require.NoError(t, err)
	assert.Equal(t, open1, open2, "back-to-back reads must agree")

	require.Len(t, open1, 2)
	assert.Equal(t, b2.ID, open1[0].ID, "most recent loan first")
	assert.Equal(t, b1.ID, open1[1].ID)
	require.NotNil(t, open1[0].Book)
	require.NotNil(t, open1[0].User)
	assert.Equal(t, alice.Email, open1[0].User.Email)
}

func TestUserHistoryCounts(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")

	const borrowedN = 3
	const returnedM = 2
	var borrowIDs []string
	for i := 0; i < borrowedN; i++ {
		book := f.book(t, "Vol "+string(rune('A'+i)))
		b, err := f.svc.Borrow(alice.ID, book.ID)
		require.NoError(t, err)
		borrowIDs = append(borrowIDs, b.ID)
	}
	for i := 0; i < returnedM; i++ {
		_, err := f.svc.Return(borrowIDs[i])
		require.NoError(t, err)
	}

	history, err := f.svc.UserHistory(alice.ID)
	require.NoError(t, err)
	require.Len(t, history, borrowedN)

	closed := 0
	for _, h := range history {
		if h.ReturnDate != nil {
			closed++
		}
		require.NotNil(t, h.Book, "history rows carry their book")
	}
	assert.Equal(t, returnedM, closed)
}

func TestConcurrentBorrowSingleWinner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	book := f.book(t, "Clean Code")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = f.svc.Borrow(uid, book.ID)
		}(i, uid)
	}
	wg.Wait()

	var wins, rejections int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, domain.ErrBookUnavailable)
			rejections++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent borrow may win")
	assert.Equal(t, 1, rejections)

	open, err := f.svc.ListOpen()
	require.NoError(t, err)
	assert.Len(t, open, 1, "never two open loans for one book")
}
