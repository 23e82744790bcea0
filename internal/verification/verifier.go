// Package verification delivers and checks one-time phone codes.
package verification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Verifier sends a one-time code to a phone and later checks it.
type Verifier interface {
	SendCode(ctx context.Context, phone string) error
	CheckCode(ctx context.Context, phone, code string) (bool, error)
}

// ErrInvalidPhone is returned for numbers that are not E.164 after normalization.
var ErrInvalidPhone = errors.New("invalid phone number")

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// NormalizePhone strips formatting and prefixes defaultCountryCode when the
// number has no leading '+'.
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	phone := b.String()
	if phone == "" {
		return "", ErrInvalidPhone
	}
	if !strings.HasPrefix(phone, "+") {
		cc := strings.TrimPrefix(strings.TrimSpace(defaultCountryCode), "+")
		phone = "+" + cc + phone
	}
	if !e164.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// RateLimitError reports that another code cannot be sent yet.
type RateLimitError struct {
	RetryAfter time.Duration
	Blocked    bool
}

func (e *RateLimitError) Error() string {
	secs := int(e.RetryAfter.Round(time.Second).Seconds())
	if e.Blocked {
		return fmt.Sprintf("too many verification requests; please try again after %d seconds", secs)
	}
	return fmt.Sprintf("please wait %d seconds before requesting another code", secs)
}
