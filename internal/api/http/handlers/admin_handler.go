package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// AdminHandler exposes the admin endpoints. Routes are guarded by
// auth.RequireAdmin.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// ListServices GET /api/admin/services.
func (h *AdminHandler) ListServices(c *fiber.Ctx) error {
	requests, err := h.service.ListServiceRequests(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAdminServiceList(requests))
}

// UpdateService PUT /api/admin/services/:id.
func (h *AdminHandler) UpdateService(c *fiber.Ctx) error {
	var req dto.UpdateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.UpdateRequestInput{
		Address:      req.Address,
		AddressExtra: req.AddressExtra,
		Phone:        req.Phone,
	}
	if req.Package != nil {
		pkg := domain.ServicePackage(*req.Package)
		input.Package = &pkg
	}
	if req.Status != nil {
		status := domain.ServiceStatus(*req.Status)
		input.Status = &status
	}

	updated, err := h.service.UpdateServiceRequest(c.UserContext(), adminID(c), c.Params("id"), input)
	if err != nil {
		return conflictOrError(err)
	}
	return c.JSON(dto.NewAdminServiceResponse(updated))
}

// DeleteService DELETE /api/admin/services/:id.
func (h *AdminHandler) DeleteService(c *fiber.Ctx) error {
	if err := h.service.DeleteServiceRequest(c.UserContext(), adminID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Service deleted successfully"})
}

// SetBan PUT /api/admin/users/:id/ban.
func (h *AdminHandler) SetBan(c *fiber.Ctx) error {
	var req dto.BanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	user, err := h.service.SetUserBan(c.UserContext(), adminID(c), c.Params("id"), *req.IsBanned)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

func adminID(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.UserID
	}
	return ""
}
