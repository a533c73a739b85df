package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lendshelf/internal/domain"
	"lendshelf/internal/repos"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
	Cost   int
}

func NewAuthService(users *repos.UserRepo, secret string, ttl time.Duration, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{Users: users, Secret: []byte(secret), TTL: ttl, Cost: cost}
}

// Register creates the user and signs them in. Duplicate emails fail with
// ErrEmailTaken; the unique index on users(email) backstops the pre-check.
func (s *AuthService) Register(name, email, password string) (domain.SafeUser, string, error) {
	taken, err := s.Users.EmailExists(email)
	if err != nil {
		return domain.SafeUser{}, "", err
	}
	if taken {
		return domain.SafeUser{}, "", domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return domain.SafeUser{}, "", err
	}

	u := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Hash:      string(hash),
		CreatedAt: repos.Stamp(time.Now()),
	}
	if err := s.Users.Create(u); err != nil {
		// The pre-check races with concurrent registrations; the unique
		// index catches the loser.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.SafeUser{}, "", domain.ErrEmailTaken
		}
		return domain.SafeUser{}, "", err
	}

	token, err := s.IssueToken(u.ID, u.Email)
	if err != nil {
		return domain.SafeUser{}, "", err
	}
	return u.Sanitized(), token, nil
}

// ValidateCredentials never tells the caller whether the email or the
// password was wrong. Infrastructure failures are not credential failures
// and pass through unchanged.
func (s *AuthService) ValidateCredentials(email, password string) (domain.SafeUser, error) {
	u, err := s.Users.ByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SafeUser{}, domain.ErrBadCreds
	}
	if err != nil {
		return domain.SafeUser{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return domain.SafeUser{}, domain.ErrBadCreds
	}
	return u.Sanitized(), nil
}

func (s *AuthService) Login(email, password string) (domain.SafeUser, string, error) {
	u, err := s.ValidateCredentials(email, password)
	if err != nil {
		return domain.SafeUser{}, "", err
	}
	token, err := s.IssueToken(u.ID, u.Email)
	if err != nil {
		return domain.SafeUser{}, "", err
	}
	return u, token, nil
}

func (s *AuthService) IssueToken(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// VerifyToken returns the subject user id and email of a valid token.
func (s *AuthService) VerifyToken(raw string) (string, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("unexpected claims type %T", tok.Claims)
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token missing subject")
	}
	return sub, email, nil
}
