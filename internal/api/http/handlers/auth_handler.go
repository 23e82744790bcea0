package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

// AuthHandler exposes sign-up and sign-in endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	res, err := h.auth.Register(c.UserContext(), req.FullName, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse(res, false))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(res, false))
}

// SendCode handles POST /api/auth/phone/send-code.
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req dto.SendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if err := h.auth.SendPhoneCode(c.UserContext(), req.Phone); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"message": "Verification code sent"})
}

// VerifyPhone handles POST /api/auth/phone/verify.
func (h *AuthHandler) VerifyPhone(c *fiber.Ctx) error {
	var req dto.VerifyPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	res, err := h.auth.VerifyPhone(c.UserContext(), req.Phone, req.Code, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(res, true))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	user := principal.User
	if user == nil {
		loaded, err := h.auth.Me(c.UserContext(), principal.UserID)
		if err != nil {
			return err
		}
		user = loaded
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

func authResponse(res *service.AuthResult, withNewFlag bool) dto.AuthResponse {
	out := dto.AuthResponse{
		User:      dto.NewUserResponse(res.User),
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
	}
	if withNewFlag {
		isNew := res.IsNewUser
		out.IsNewUser = &isNew
	}
	return out
}
