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
	"github.com/spec-kit/booking-service/internal/observability"
	"github.com/spec-kit/booking-service/internal/repository"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

const (
	msgActiveExists    = "You already have an active service request"
	msgInvalidPackage  = "Invalid package type"
	msgNoActiveService = "No active service found"
	msgCancelNotFound  = "Service not found or already completed"
	msgUserNotFound    = "User not found"
	msgServiceNotFound = "Service not found"
	msgAddressRequired = "Address is required"
	msgInvalidStatus   = "Invalid status"
	msgCannotBanAdmin  = "Cannot ban an admin user"
)

// ActiveRequestError is returned when the caller already holds an active
// request. Active is the blocking record, nil when it vanished before it
// could be read back.
type ActiveRequestError struct {
	Active *domain.ServiceRequest
}

func (e *ActiveRequestError) Error() string {
	return msgActiveExists
}

// CreateRequestInput carries the fields a user submits when booking.
type CreateRequestInput struct {
	Package      domain.ServicePackage
	Address      string
	AddressExtra *string
	Phone        *string
}

// BookingService implements the end-user booking operations.
type BookingService struct {
	requests   repository.ServiceRequestRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// BookingDependencies bundles collaborators for BookingService.
type BookingDependencies struct {
	RequestRepo repository.ServiceRequestRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewBookingService creates the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		requests:   deps.RequestRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateRequest books a new service for userID. A user holding an active
// request gets an *ActiveRequestError before the input is validated.
func (s *BookingService) CreateRequest(ctx context.Context, userID string, input CreateRequestInput) (*domain.ServiceRequest, error) {
	if err := s.EnsureNoActiveRequest(ctx, userID); err != nil {
		return nil, err
	}

	if !input.Package.Valid() {
		s.metrics.RecordBooking(observability.OutcomeInvalid)
		return nil, apperrors.NewValidationError(msgInvalidPackage, nil)
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		s.metrics.RecordBooking(observability.OutcomeInvalid)
		return nil, apperrors.NewValidationError(msgAddressRequired, nil)
	}

	req := &domain.ServiceRequest{
		UserID:       userID,
		Package:      input.Package,
		Status:       domain.StatusCreated,
		Address:      address,
		AddressExtra: trimOptional(input.AddressExtra),
		Phone:        trimOptional(input.Phone),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrActiveRequestExists):
			s.metrics.RecordBooking(observability.OutcomeConflict)
			winner, findErr := s.findActive(ctx, userID)
			if findErr != nil {
				s.logger.Warn("read back conflicting request", zap.String("user_id", userID), zap.Error(findErr))
			}
			return nil, &ActiveRequestError{Active: winner}
		case errors.Is(err, repository.ErrOwnerNotFound):
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordBooking(observability.OutcomeCreated)
	s.publish(ctx, events.EventServiceRequestCreated, events.Actor{Role: events.ActorOwner, UserID: userID}, req, "")
	return req, nil
}

// EnsureNoActiveRequest returns an *ActiveRequestError carrying the blocking
// record when userID already holds an active request.
func (s *BookingService) EnsureNoActiveRequest(ctx context.Context, userID string) error {
	active, err := s.findActive(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if active != nil {
		s.metrics.RecordBooking(observability.OutcomeConflict)
		return &ActiveRequestError{Active: active}
	}
	return nil
}

// ListOwnRequests returns every request of userID, newest first.
func (s *BookingService) ListOwnRequests(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	requests, err := s.requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if requests == nil {
		requests = []domain.ServiceRequest{}
	}
	return requests, nil
}

// GetActiveRequest returns the caller's active request.
func (s *BookingService) GetActiveRequest(ctx context.Context, userID string) (*domain.ServiceRequest, error) {
	active, err := s.findActive(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if active == nil {
		return nil, apperrors.NewNotFound(msgNoActiveService)
	}
	return active, nil
}

// CancelRequest deletes requestID when it belongs to userID and is still
// active. Every other case reports the same NotFound.
func (s *BookingService) CancelRequest(ctx context.Context, userID, requestID string) error {
	if _, err := uuid.Parse(requestID); err != nil {
		return apperrors.NewNotFound(msgCancelNotFound)
	}
	removed, err := s.requests.DeleteActiveOwned(ctx, requestID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound(msgCancelNotFound)
		}
		return apperrors.MapError(err)
	}
	s.metrics.RecordBooking(observability.OutcomeCancelled)
	s.publish(ctx, events.EventServiceRequestCancelled, events.Actor{Role: events.ActorOwner, UserID: userID}, removed, "")
	return nil
}

func (s *BookingService) findActive(ctx context.Context, userID string) (*domain.ServiceRequest, error) {
	active, err := s.requests.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return active, nil
}

func (s *BookingService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, req *domain.ServiceRequest, oldStatus domain.ServiceStatus) {
	publishRequestEvent(ctx, s.dispatcher, s.logger, eventType, actor, req, oldStatus)
}

func publishRequestEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, eventType events.EventType, actor events.Actor, req *domain.ServiceRequest, oldStatus domain.ServiceStatus) {
	if dispatcher == nil || req == nil {
		return
	}
	err := dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		SubjectID: req.ID,
		Actor:     actor,
		Payload: events.ServiceRequestPayload{
			OwnerID:   req.UserID,
			Package:   req.Package,
			Status:    req.Status,
			OldStatus: oldStatus,
		},
	})
	if err != nil {
		logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
