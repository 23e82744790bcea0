package domain

import "time"

// User is an account holder. Exactly one of Email or Phone identifies the
// account depending on how it registered; both are unique when set.
type User struct {
	ID           string
	FullName     string
	Email        *string
	Phone        *string
	PasswordHash string
	IsAdmin      bool
	IsBanned     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanBeBanned reports whether an admin may flip the ban flag on this account.
func (u *User) CanBeBanned() bool {
	return !u.IsAdmin
}
