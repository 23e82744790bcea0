package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// ServicesHandler exposes the end-user booking endpoints.
type ServicesHandler struct {
	service *service.BookingService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(bookingService *service.BookingService) *ServicesHandler {
	return &ServicesHandler{service: bookingService}
}

// Create POST /api/services.
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	var req dto.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		// An unreadable body still reports the active request first.
		if err := h.service.EnsureNoActiveRequest(c.UserContext(), principal.UserID); err != nil {
			return conflictOrError(err)
		}
		return apperrors.NewValidationError("Invalid request body", nil)
	}

	created, err := h.service.CreateRequest(c.UserContext(), principal.UserID, service.CreateRequestInput{
		Package:      domain.ServicePackage(req.Package),
		Address:      req.Address,
		AddressExtra: req.AddressExtra,
		Phone:        req.Phone,
	})
	if err != nil {
		return conflictOrError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"service": dto.NewServiceResponse(created)})
}

// List GET /api/services.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	requests, err := h.service.ListOwnRequests(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"services": dto.NewServiceList(requests)})
}

// Active GET /api/services/active.
func (h *ServicesHandler) Active(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	active, err := h.service.GetActiveRequest(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"service": dto.NewServiceResponse(active)})
}

// Cancel DELETE /api/services/:id.
func (h *ServicesHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	if err := h.service.CancelRequest(c.UserContext(), principal.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Service successfully cancelled"})
}

// conflictOrError renders an active-request conflict with the blocking
// record attached under activeService.
func conflictOrError(err error) error {
	var active *service.ActiveRequestError
	if !errors.As(err, &active) {
		return err
	}
	details := map[string]any{}
	if active.Active != nil {
		details["activeService"] = dto.NewServiceResponse(active.Active)
	}
	return apperrors.NewConflict(active.Error(), details)
}
