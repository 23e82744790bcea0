package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// UpdateRequestInput is a partial update; nil fields are left untouched.
// An empty AddressExtra or Phone clears the stored value.
type UpdateRequestInput struct {
	Package      *domain.ServicePackage
	Status       *domain.ServiceStatus
	Address      *string
	AddressExtra *string
	Phone        *string
}

// AdminService implements the privileged operations.
type AdminService struct {
	users      repository.UserRepository
	requests   repository.ServiceRequestRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AdminDependencies bundles collaborators for AdminService.
type AdminDependencies struct {
	UserRepo    repository.UserRepository
	RequestRepo repository.ServiceRequestRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAdminService creates the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		users:      deps.UserRepo,
		requests:   deps.RequestRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ListServiceRequests returns every request with its owner, newest first.
func (s *AdminService) ListServiceRequests(ctx context.Context) ([]domain.ServiceRequestWithUser, error) {
	requests, err := s.requests.ListWithUsers(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if requests == nil {
		requests = []domain.ServiceRequestWithUser{}
	}
	return requests, nil
}

// UpdateServiceRequest applies input to requestID. Any status value is
// accepted regardless of the current one.
func (s *AdminService) UpdateServiceRequest(ctx context.Context, adminID, requestID string, input UpdateRequestInput) (*domain.ServiceRequestWithUser, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, apperrors.NewNotFound(msgServiceNotFound)
	}
	if input.Package != nil && !input.Package.Valid() {
		return nil, apperrors.NewValidationError(msgInvalidPackage, nil)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError(msgInvalidStatus, nil)
	}
	if input.Address != nil && strings.TrimSpace(*input.Address) == "" {
		return nil, apperrors.NewValidationError(msgAddressRequired, nil)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(msgServiceNotFound)
		}
		return nil, apperrors.MapError(err)
	}

	oldStatus := req.Status
	if input.Package != nil {
		req.Package = *input.Package
	}
	if input.Status != nil {
		req.Status = *input.Status
	}
	if input.Address != nil {
		req.Address = strings.TrimSpace(*input.Address)
	}
	if input.AddressExtra != nil {
		req.AddressExtra = trimOptional(input.AddressExtra)
	}
	if input.Phone != nil {
		req.Phone = trimOptional(input.Phone)
	}

	if err := s.requests.Update(ctx, req); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound(msgServiceNotFound)
		case errors.Is(err, repository.ErrActiveRequestExists):
			active, findErr := s.requests.FindActiveByUser(ctx, req.UserID)
			if findErr != nil {
				active = nil
			}
			return nil, &ActiveRequestError{Active: active}
		}
		return nil, apperrors.MapError(err)
	}

	publishRequestEvent(ctx, s.dispatcher, s.logger, events.EventServiceRequestUpdated,
		events.Actor{Role: events.ActorAdmin, UserID: adminID}, req, oldStatus)

	// The owner reference always carries the id, even when the lookup fails.
	result := &domain.ServiceRequestWithUser{ServiceRequest: *req, User: &domain.UserRef{ID: req.UserID}}
	owner, err := s.users.GetByID(ctx, req.UserID)
	switch {
	case err == nil:
		result.User = &domain.UserRef{ID: owner.ID, FullName: owner.FullName, Email: owner.Email, Phone: owner.Phone}
	case !errors.Is(err, pgx.ErrNoRows):
		s.logger.Warn("load request owner", zap.String("user_id", req.UserID), zap.Error(err))
	}
	return result, nil
}

// DeleteServiceRequest removes requestID whatever its status.
func (s *AdminService) DeleteServiceRequest(ctx context.Context, adminID, requestID string) error {
	if _, err := uuid.Parse(requestID); err != nil {
		return apperrors.NewNotFound(msgServiceNotFound)
	}
	removed, err := s.requests.Delete(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound(msgServiceNotFound)
		}
		return apperrors.MapError(err)
	}
	publishRequestEvent(ctx, s.dispatcher, s.logger, events.EventServiceRequestDeleted,
		events.Actor{Role: events.ActorAdmin, UserID: adminID}, removed, "")
	return nil
}

// SetUserBan sets the ban flag on userID. Admin accounts cannot be banned.
func (s *AdminService) SetUserBan(ctx context.Context, adminID, userID string, banned bool) (*domain.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewNotFound(msgUserNotFound)
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.MapError(err)
	}
	if !target.CanBeBanned() {
		return nil, apperrors.NewBadRequest(msgCannotBanAdmin)
	}

	updated, err := s.users.SetBanned(ctx, userID, banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventUserBanChanged,
			SubjectID: updated.ID,
			Actor:     events.Actor{Role: events.ActorAdmin, UserID: adminID},
			Payload:   events.UserBanPayload{IsBanned: updated.IsBanned},
		})
		if err != nil {
			s.logger.Warn("event handlers failed", zap.String("event_type", string(events.EventUserBanChanged)), zap.Error(err))
		}
	}
	return updated, nil
}
