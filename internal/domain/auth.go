package domain

import "time"

// Session is an issued bearer credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
}
