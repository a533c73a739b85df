package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Trimmed collapses whitespace-only input to the empty string; callers treat
// "" as absent.
func Trimmed(s string) string { return strings.TrimSpace(s) }

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a displayable name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 256 {
		return "", false
	}
	return s, true
}

// Password enforces the registration policy: 8-128 chars, mixed case, a digit
// and a symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 128 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// UUID validates a resource identifier (user/book/borrow ids).
func UUID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && uuid.Validate(s) == nil
}

// Year accepts anything from antiquity up to next year.
func Year(n int) bool {
	return n >= 0 && n <= time.Now().Year()+1
}
