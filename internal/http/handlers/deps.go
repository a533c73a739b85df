package handlers

import (
	"lendshelf/internal/repos"
	"lendshelf/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	AuthHandler   *AuthHandler
	BookHandler   *BookHandler
	BorrowHandler *BorrowHandler

	Auth *services.AuthService
}

func NewDeps(db *sqlx.DB, auth *services.AuthService) *Deps {
	userRepo := repos.NewUserRepo(db)
	bookRepo := repos.NewBookRepo(db)
	borrowRepo := repos.NewBorrowRepo(db)

	catalogSvc := services.NewCatalogService(bookRepo, borrowRepo)
	borrowSvc := services.NewBorrowService(userRepo, bookRepo, borrowRepo)

	return &Deps{
		AuthHandler:   &AuthHandler{Auth: auth},
		BookHandler:   &BookHandler{Catalog: catalogSvc},
		BorrowHandler: &BorrowHandler{Svc: borrowSvc},
		Auth:          auth,
	}
}
