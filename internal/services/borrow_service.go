package services

import (
	"database/sql"
	"errors"

	"lendshelf/internal/domain"
	"lendshelf/internal/repos"
)

// BorrowService drives the loan state machine: a book moves between
// available and on-loan, and every move leaves a borrow row behind.
type BorrowService struct {
	Users   *repos.UserRepo
	Books   *repos.BookRepo
	Borrows *repos.BorrowRepo
}

func NewBorrowService(users *repos.UserRepo, books *repos.BookRepo, borrows *repos.BorrowRepo) *BorrowService {
	return &BorrowService{Users: users, Books: books, Borrows: borrows}
}

// Borrow lends the book to the user. The repo transaction both flips
// availability and records the loan; under concurrent requests for the same
// book exactly one caller gets the loan, the rest get ErrBookUnavailable.
func (s *BorrowService) Borrow(userID, bookID string) (domain.Borrow, error) {
	user, err := s.Users.ByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Borrow{}, domain.ErrUserNotFound
		}
		return domain.Borrow{}, err
	}

	book, err := s.Books.Get(bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Borrow{}, domain.ErrBookNotFound
		}
		return domain.Borrow{}, err
	}

	borrow, err := s.Borrows.CreateLoan(userID, bookID)
	if err != nil {
		return domain.Borrow{}, err
	}

	safe := user.Sanitized()
	book.IsAvailable = false
	borrow.User = &safe
	borrow.Book = &book
	return borrow, nil
}

// Return closes the loan. Not idempotent: a second return of the same borrow
// is rejected with ErrAlreadyReturned and the first write stands.
func (s *BorrowService) Return(borrowID string) (domain.Borrow, error) {
	return s.Borrows.CloseLoan(borrowID)
}

// ListOpen returns all open loans, newest first, each with its book and
// sanitized user attached.
func (s *BorrowService) ListOpen() ([]domain.Borrow, error) {
	borrows, err := s.Borrows.ListOpen()
	if err != nil {
		return nil, err
	}
	if err := s.attach(borrows, true); err != nil {
		return nil, err
	}
	return borrows, nil
}

// UserHistory returns the user's loans, open and closed, newest first, each
// with its book attached.
func (s *BorrowService) UserHistory(userID string) ([]domain.Borrow, error) {
	borrows, err := s.Borrows.ByUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.attach(borrows, false); err != nil {
		return nil, err
	}
	return borrows, nil
}

func (s *BorrowService) attach(borrows []domain.Borrow, withUsers bool) error {
	bookIDs := make([]string, 0, len(borrows))
	userIDs := make([]string, 0, len(borrows))
	for _, b := range borrows {
		bookIDs = append(bookIDs, b.BookID)
		userIDs = append(userIDs, b.UserID)
	}

	books, err := s.Borrows.BooksByID(bookIDs)
	if err != nil {
		return err
	}
	var users map[string]domain.SafeUser
	if withUsers {
		if users, err = s.Borrows.UsersByID(userIDs); err != nil {
			return err
		}
	}

	for i := range borrows {
		if bk, ok := books[borrows[i].BookID]; ok {
			bk := bk
			borrows[i].Book = &bk
		}
		if withUsers {
			if u, ok := users[borrows[i].UserID]; ok {
				u := u
				borrows[i].User = &u
			}
		}
	}
	return nil
}
