package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/crypto"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/logger"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/metrics"
)

const (
	defaultResetExpiry = 10 * time.Minute
	resetCodeDigits    = 6
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords so
	// callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountInactive signals a deactivated or not-yet-enabled account.
	ErrAccountInactive = errors.New("auth: account inactive")
	// ErrAccountNotFound indicates the token references a user that no longer exists.
	ErrAccountNotFound = errors.New("auth: account not found")
	// ErrResetCodeInvalid covers missing, mismatched, expired or used reset codes.
	ErrResetCodeInvalid = errors.New("auth: invalid or expired reset code")
)

// LoginResult bundles the token pair with a snapshot of the account.
type LoginResult struct {
	Tokens  *auth.TokenPair     `json:"tokens"`
	User    *models.User        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
}

// AuthOption customises the AuthService.
type AuthOption func(*AuthService)

// WithAuthClock injects a custom time source.
func WithAuthClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithAuthAsyncMail controls whether reset emails are sent in the background.
func WithAuthAsyncMail(async bool) AuthOption {
	return func(s *AuthService) {
		s.dispatcher.async = async
	}
}

// WithResetExpiry overrides the password reset code lifetime.
func WithResetExpiry(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.resetExpiry = d
		}
	}
}

// AuthService handles login, token refresh and the password reset flow.
type AuthService struct {
	db          *gorm.DB
	tokens      *auth.TokenService
	dispatcher  *mailDispatcher
	resetExpiry time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewAuthService constructs an auth service with the provided dependencies.
func NewAuthService(db *gorm.DB, tokens *auth.TokenService, mailer mail.Mailer, opts ...AuthOption) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: token service is required")
	}

	log := logger.WithModule("auth")
	service := &AuthService{
		db:          db,
		tokens:      tokens,
		dispatcher:  newMailDispatcher(mailer, true, log),
		resetExpiry: defaultResetExpiry,
		now:         time.Now,
		log:         log,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Login verifies the credentials and issues a token pair along with the
// account snapshot. The profile pointer is nil when no row exists yet.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: lookup user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountInactive
	}

	pair, err := s.tokens.GeneratePair(auth.TokenInput{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("auth service: issue tokens: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	var profile models.UserProfile
	result := &LoginResult{Tokens: pair, User: &user}
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		result.Profile = &profile
	}

	return result, nil
}

// Refresh validates a refresh token and issues a fresh pair with the
// account's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx = ensureContext(ctx)

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	var user models.User
	dbErr := s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if dbErr != nil {
		return nil, fmt.Errorf("auth service: lookup user: %w", dbErr)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.tokens.GeneratePair(auth.TokenInput{UserID: user.ID, Email: user.Email, Role: user.Role})
}

// ForgotPassword issues a reset code when the account exists. It always
// succeeds from the caller's perspective so that account existence is not
// disclosed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup user: %w", err)
	}

	code, err := crypto.GenerateNumericCode(resetCodeDigits)
	if err != nil {
		return fmt.Errorf("auth service: generate reset code: %w", err)
	}

	now := s.now()
	reset := models.PasswordResetCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.resetExpiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&reset).Error
	})
	if err != nil {
		return fmt.Errorf("auth service: store reset code: %w", err)
	}

	s.dispatcher.dispatch(ctx, "reset", []string{user.Email}, "Password reset code",
		fmt.Sprintf("Your password reset code is %s.\n\nIt expires in %d minutes. If you did not request a reset, you can ignore this message.\n", code, int(s.resetExpiry.Minutes())))

	return nil
}

// ResetPassword consumes a valid reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)
	if newPassword == "" {
		return errors.New("auth service: new password is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup user: %w", err)
	}

	var reset models.PasswordResetCode
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used_at IS NULL", user.ID, code).
		First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResetCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup reset code: %w", err)
	}

	now := s.now()
	if reset.ExpiresAt.Before(now) {
		return ErrResetCodeInvalid
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth service: hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("password", hash).Error; err != nil {
			return err
		}
		return tx.Model(&models.PasswordResetCode{}).Where("id = ?", reset.ID).
			Update("used_at", now).Error
	})
}
