package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/mailer"
	"github.com/spec-kit/civic-issue-service/internal/postal"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// AuthService handles registration, login, profile maintenance and the OTP
// flows (email verification and password reset).
type AuthService struct {
	users            repository.UserRepository
	otps             *repository.OTPStore
	mail             mailer.Mailer
	tokenMgr         *auth.TokenManager
	bcryptCost       int
	adminEmailDomain string
	logger           *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	OTPStore *repository.OTPStore
	Mailer   mailer.Mailer
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:            deps.UserRepo,
		otps:             deps.OTPStore,
		mail:             deps.Mailer,
		tokenMgr:         auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:       cfg.BcryptCost,
		adminEmailDomain: strings.ToLower(cfg.AdminEmailDomain),
		logger:           deps.Logger,
	}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Name       string
	Username   string
	Email      string
	Phone      string
	Location   string
	PostalCode string
	Password   string
}

// ProfileUpdateInput describes editable profile fields. Nil means unchanged.
type ProfileUpdateInput struct {
	Name       *string
	Phone      *string
	Location   *string
	PostalCode *string
}

// Session is the result of a successful authentication.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account. The postal code is normalized at write time
// so authorization and aggregation later compare stored values directly; an
// explicit code wins, otherwise it is extracted from the location text.
// Emails under the configured admin domain are provisioned as local admins.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errorutil.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.MapError(err)
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, errorutil.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	postalCode := postal.Normalize(input.PostalCode)
	if postalCode == "" {
		postalCode = postal.Normalize(postal.ExtractPostalCode(input.Location))
	}

	role := domain.RoleUser
	if s.adminEmailDomain != "" && strings.HasSuffix(email, "@"+s.adminEmailDomain) {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Username:     username,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		Location:     strings.TrimSpace(input.Location),
		PostalCode:   postalCode,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return s.sessionFor(user)
}

// Login authenticates by email and password. Blocked accounts are rejected
// even with valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, errorutil.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	if user.Blocked() {
		return nil, errorutil.NewForbidden("account is blocked")
	}
	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		s.logger.Warn("failed to touch last_active", zap.Error(err))
	}
	return s.sessionFor(user)
}

// GetProfile returns the current account by id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// UpdateProfile applies partial profile changes. Changing the location
// without an explicit postal code re-extracts and re-normalizes the code
// from the new location text.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileUpdateInput) (*domain.User, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Location != nil {
		user.Location = strings.TrimSpace(*input.Location)
		if input.PostalCode == nil {
			user.PostalCode = postal.Normalize(postal.ExtractPostalCode(user.Location))
		}
	}
	if input.PostalCode != nil {
		user.PostalCode = postal.Normalize(*input.PostalCode)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if actor == nil {
		return errorutil.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return errorutil.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return errorutil.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

// SendOTP generates a 6-digit code for the account, stores it with a TTL and
// mails it.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("account", map[string]any{"email": email})
		}
		return errorutil.MapError(err)
	}

	code, err := generateOTP()
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if err := s.otps.Set(ctx, email, code); err != nil {
		return errorutil.NewInternalError(err)
	}
	if err := s.mail.SendOTP(ctx, email, user.Name, code); err != nil {
		return errorutil.NewInternalError(err)
	}
	return nil
}

// CheckOTP reports whether the code is currently valid without consuming it.
func (s *AuthService) CheckOTP(ctx context.Context, email, code string) (bool, error) {
	ok, err := s.otps.Check(ctx, strings.ToLower(strings.TrimSpace(email)), code)
	if err != nil {
		return false, errorutil.NewInternalError(err)
	}
	return ok, nil
}

// VerifyOTP consumes a valid code and signs the account in.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ok, err := s.otps.Consume(ctx, email, code)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if !ok {
		return nil, errorutil.NewUnauthorized("invalid or expired code")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if user.Blocked() {
		return nil, errorutil.NewForbidden("account is blocked")
	}
	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		s.logger.Warn("failed to touch last_active", zap.Error(err))
	}
	return s.sessionFor(user)
}

// ResetPasswordWithOTP consumes a valid code and replaces the password.
func (s *AuthService) ResetPasswordWithOTP(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	ok, err := s.otps.Consume(ctx, email, code)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if !ok {
		return errorutil.NewUnauthorized("invalid or expired code")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return errorutil.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) sessionFor(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
