package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// RequireAdmin ensures the caller's account carries the admin flag. Unlike
// the ban gate it fails closed.
func RequireAdmin(users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Not authenticated")
		}
		user := principal.User
		if user == nil {
			if _, err := uuid.Parse(principal.UserID); err != nil {
				return apperrors.NewBadRequest("Invalid user ID")
			}
			loaded, err := users.GetByID(c.UserContext(), principal.UserID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("User not found")
				}
				return apperrors.NewInternalError(err)
			}
			user = loaded
			principal.User = loaded
		}
		if !user.IsAdmin {
			return apperrors.NewForbidden("Not authorized as admin")
		}
		return c.Next()
	}
}
