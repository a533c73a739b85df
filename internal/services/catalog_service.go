package services

import (
	"database/sql"
	"errors"
	"time"

	"lendshelf/internal/domain"
	"lendshelf/internal/repos"

	"github.com/google/uuid"
)

type CatalogService struct {
	Books   *repos.BookRepo
	Borrows *repos.BorrowRepo
}

func NewCatalogService(books *repos.BookRepo, borrows *repos.BorrowRepo) *CatalogService {
	return &CatalogService{Books: books, Borrows: borrows}
}

type NewBook struct {
	Title         string
	Author        string
	PublishedYear int
	Genre         string
	IsAvailable   bool
}

func (s *CatalogService) Create(nb NewBook) (domain.Book, error) {
	b := domain.Book{
		ID:            uuid.NewString(),
		Title:         nb.Title,
		Author:        nb.Author,
		PublishedYear: nb.PublishedYear,
		Genre:         nb.Genre,
		IsAvailable:   nb.IsAvailable,
		CreatedAt:     repos.Stamp(time.Now()),
	}
	if err := s.Books.Create(b); err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

// FindAll lists books with their borrow history attached.
func (s *CatalogService) FindAll(f repos.BookFilter) ([]domain.Book, error) {
	books, err := s.Books.List(f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	byBook, err := s.Borrows.ForBooks(ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Borrows = byBook[books[i].ID]
	}
	return books, nil
}

// FindOne returns nil without error when the book does not exist; callers
// decide whether absence matters.
func (s *CatalogService) FindOne(id string) (*domain.Book, error) {
	b, err := s.Books.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *CatalogService) Update(id string, p repos.BookPatch) (domain.Book, error) {
	if err := s.Books.Update(id, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, err
	}
	return s.Books.Get(id)
}

func (s *CatalogService) Remove(id string) error {
	err := s.Books.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrBookNotFound
	}
	return err
}
