package domain

import "errors"

// Sentinel errors shared by repos, services, and the HTTP layer. Handlers map
// them onto response codes; anything else surfaces as a generic failure.
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrBadCreds        = errors.New("invalid email or password")
	ErrUserNotFound    = errors.New("user not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is not available")
	ErrBorrowNotFound  = errors.New("borrow not found")
	ErrAlreadyReturned = errors.New("borrow already closed")
)
