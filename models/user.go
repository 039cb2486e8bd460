package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleValidator UserRole = "validator"
	RolePlayer    UserRole = "player"
)

// CanResolveDisputes - роли, которым разрешено принимать решения по спорам.
func (r UserRole) CanResolveDisputes() bool {
	return r == RoleAdmin || r == RoleValidator
}

type User struct {
	ID                int       `json:"id" db:"id"`
	Nickname          string    `json:"nickname" db:"nickname"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Role              UserRole  `json:"role" db:"role"`
	PreferredCurrency string    `json:"preferred_currency" db:"preferred_currency"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
