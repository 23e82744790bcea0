package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/verification"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

const (
	msgEmailRegistered     = "Email already registered"
	msgInvalidCredentials  = "Invalid credentials"
	msgInvalidPhone        = "Please enter a valid phone number"
	msgInvalidCode         = "Invalid verification code"
	msgFullNameRequired    = "Full name is required for new accounts"
	msgVerificationFailure = "Failed to send verification code"
)

// SendLimiter throttles verification code delivery per phone.
type SendLimiter interface {
	Allow(ctx context.Context, phone string) error
}

// AuthResult is a signed-in user with a fresh session.
type AuthResult struct {
	User      *domain.User
	Session   domain.Session
	IsNewUser bool
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users         repository.UserRepository
	verifier      verification.Verifier
	limiter       SendLimiter
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	allowedDomain string
	countryCode   string
	logger        *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Verifier verification.Verifier
	Limiter  SendLimiter
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         deps.UserRepo,
		verifier:      deps.Verifier,
		limiter:       deps.Limiter,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:    cfg.Auth.BcryptCost,
		allowedDomain: strings.ToLower(strings.TrimSpace(cfg.Auth.AllowedEmailDomain)),
		countryCode:   cfg.SMS.DefaultCountryCode,
		logger:        logger,
	}
}

// Register creates an email account.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.allowedDomain != "" && !strings.HasSuffix(email, s.allowedDomain) {
		return nil, apperrors.NewValidationError("Only "+s.allowedDomain+" email addresses are allowed", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewBadRequest(msgEmailRegistered)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        &email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			return nil, apperrors.NewBadRequest(msgEmailRegistered)
		}
		return nil, apperrors.MapError(err)
	}
	return s.issue(user, true)
}

// Login authenticates an email account. Banned accounts are refused before
// the password is checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, apperrors.MapError(err)
	}
	if user.IsBanned {
		return nil, apperrors.NewBanned()
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	return s.issue(user, false)
}

// SendPhoneCode delivers a verification code to phone.
func (s *AuthService) SendPhoneCode(ctx context.Context, phone string) error {
	normalized, err := verification.NormalizePhone(phone, s.countryCode)
	if err != nil {
		return apperrors.NewValidationError(msgInvalidPhone, nil)
	}
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, normalized); err != nil {
			var rl *verification.RateLimitError
			if errors.As(err, &rl) {
				return apperrors.NewRateLimited(rl.Error())
			}
			return apperrors.NewInternalError(err)
		}
	}
	if err := s.verifier.SendCode(ctx, normalized); err != nil {
		s.logger.Error("send verification code", zap.String("phone", normalized), zap.Error(err))
		return apperrors.NewDomainError(apperrors.CodeInternal, msgVerificationFailure, http.StatusInternalServerError, nil)
	}
	return nil
}

// VerifyPhone checks code and signs the caller in, creating the account on
// first use. New accounts need fullName; that is checked before the code is
// consumed so the user can retry with the same code.
func (s *AuthService) VerifyPhone(ctx context.Context, phone, code, fullName string) (*AuthResult, error) {
	normalized, err := verification.NormalizePhone(phone, s.countryCode)
	if err != nil {
		return nil, apperrors.NewValidationError(msgInvalidPhone, nil)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewBadRequest(msgInvalidCode)
	}

	user, err := s.users.GetByPhone(ctx, normalized)
	switch {
	case err == nil:
		if user.IsBanned {
			return nil, apperrors.NewBanned()
		}
	case errors.Is(err, pgx.ErrNoRows):
		user = nil
		if strings.TrimSpace(fullName) == "" {
			return nil, apperrors.NewValidationError(msgFullNameRequired, nil)
		}
	default:
		return nil, apperrors.MapError(err)
	}

	ok, err := s.verifier.CheckCode(ctx, normalized, code)
	if err != nil {
		s.logger.Error("check verification code", zap.String("phone", normalized), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, apperrors.NewBadRequest(msgInvalidCode)
	}

	if user != nil {
		return s.issue(user, false)
	}

	user = &domain.User{FullName: strings.TrimSpace(fullName), Phone: &normalized}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateIdentity) {
			return nil, apperrors.MapError(err)
		}
		// Registered concurrently with the same phone.
		existing, getErr := s.users.GetByPhone(ctx, normalized)
		if getErr != nil {
			return nil, apperrors.MapError(getErr)
		}
		if existing.IsBanned {
			return nil, apperrors.NewBanned()
		}
		return s.issue(existing, false)
	}
	return s.issue(user, true)
}

// Me returns the account behind userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User, isNew bool) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{
		User:      user,
		Session:   domain.Session{Token: token, ExpiresAt: exp.UTC().Truncate(time.Second)},
		IsNewUser: isNew,
	}, nil
}
