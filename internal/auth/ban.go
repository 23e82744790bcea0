package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/observability"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// UserLookup resolves account records for the gates.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// BanGate rejects banned callers. Store errors are logged and the request is
// let through.
type BanGate struct {
	users   UserLookup
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewBanGate constructs the gate.
func NewBanGate(users UserLookup, logger *zap.Logger, metrics *observability.Metrics) *BanGate {
	return &BanGate{users: users, logger: logger, metrics: metrics}
}

// Handle must run after AuthMiddleware.
func (g *BanGate) Handle(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return c.Next()
	}
	if _, err := uuid.Parse(principal.UserID); err != nil {
		return c.Next()
	}

	user, err := g.users.GetByID(c.UserContext(), principal.UserID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return c.Next()
	case err != nil:
		g.logger.Error("error checking ban status",
			zap.String("user_id", principal.UserID),
			zap.Error(err))
		g.metrics.RecordBanGateFailOpen()
		return c.Next()
	}

	if user.IsBanned {
		return apperrors.NewBanned()
	}
	principal.User = user
	return c.Next()
}
