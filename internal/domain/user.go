package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Role is a user's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered storefront account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether u may use the back office.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email parses as a bare address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// WatchlistItem records a user's interest in a domain.
type WatchlistItem struct {
	UserID   string    `json:"user_id"`
	DomainID string    `json:"domain_id"`
	Domain   *Domain   `json:"domain,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}
