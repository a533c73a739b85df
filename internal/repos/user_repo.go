package repos

import (
	"database/sql"
	"errors"

	"lendshelf/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) Create(u domain.User) error {
	_, err := r.DB.Exec(`
		INSERT INTO users(id,name,email,password_hash,created_at)
		VALUES(?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.Hash, u.CreatedAt)
	return err
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
		SELECT id,name,email,password_hash,created_at,COALESCE(updated_at,'') AS updated_at
		FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
		SELECT id,name,email,password_hash,created_at,COALESCE(updated_at,'') AS updated_at
		FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists is the registration pre-check; the unique index is the backstop.
func (r *UserRepo) EmailExists(email string) (bool, error) {
	var n int
	err := r.DB.Get(&n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	return n > 0, nil
}
