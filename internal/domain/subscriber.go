package domain

import (
	"regexp"
	"time"
)

// Subscriber is one row of the email-subscription table.
type Subscriber struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail is a syntax-only check; deliverability is not verified.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
