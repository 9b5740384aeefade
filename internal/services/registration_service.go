package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/crypto"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/logger"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/metrics"
)

const (
	defaultOTPExpiry = 10 * time.Minute
	otpDigits        = 6

	pendingKeyPrefix = "otp:register:"
)

var (
	// ErrAlreadyRegistered indicates an account already exists for the email.
	ErrAlreadyRegistered = errors.New("registration: email already registered")
	// ErrOTPNotFound indicates no pending registration exists for the email.
	ErrOTPNotFound = errors.New("registration: no pending verification")
	// ErrOTPInvalid indicates the submitted code does not match.
	ErrOTPInvalid = errors.New("registration: invalid code")
	// ErrOTPExpired indicates the pending registration has lapsed.
	ErrOTPExpired = errors.New("registration: code expired")
	// ErrNotVerified signals that SetPassword was called before a successful verification.
	ErrNotVerified = errors.New("registration: email not verified")
	// ErrInvalidRole rejects roles outside the closed platform set.
	ErrInvalidRole = errors.New("registration: invalid role")
)

// pendingRegistration is the cache record backing an in-flight signup.
type pendingRegistration struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

// RegistrationOption customises the RegistrationService.
type RegistrationOption func(*RegistrationService)

// WithRegistrationExpiry overrides the OTP lifetime.
func WithRegistrationExpiry(d time.Duration) RegistrationOption {
	return func(s *RegistrationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithRegistrationClock injects a custom time source.
func WithRegistrationClock(clock func() time.Time) RegistrationOption {
	return func(s *RegistrationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithRegistrationAsyncMail controls whether OTP emails are sent in the background.
// Synchronous delivery is used by tests.
func WithRegistrationAsyncMail(async bool) RegistrationOption {
	return func(s *RegistrationService) {
		s.dispatcher.async = async
	}
}

// RegistrationService drives the three-step OTP signup flow. Pending
// registrations live in the cache store, never in the relational schema;
// the User row is only created once SetPassword succeeds.
type RegistrationService struct {
	db         *gorm.DB
	store      cache.Store
	dispatcher *mailDispatcher
	expiry     time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewRegistrationService constructs a registration service with the provided dependencies.
func NewRegistrationService(db *gorm.DB, store cache.Store, mailer mail.Mailer, opts ...RegistrationOption) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	if store == nil {
		return nil, errors.New("registration service: cache store is required")
	}

	log := logger.WithModule("registration")
	service := &RegistrationService{
		db:         db,
		store:      store,
		dispatcher: newMailDispatcher(mailer, true, log),
		expiry:     defaultOTPExpiry,
		now:        time.Now,
		log:        log,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// IssueOTP generates and stores a fresh verification code for the email,
// replacing any previous pending registration, and dispatches it by mail.
// Mail delivery failures are logged but never fail the operation.
func (s *RegistrationService) IssueOTP(ctx context.Context, email string) (time.Time, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)
	if email == "" {
		return time.Time{}, errors.New("registration service: email is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return time.Time{}, fmt.Errorf("registration service: lookup user: %w", err)
	}
	if count > 0 {
		return time.Time{}, ErrAlreadyRegistered
	}

	code, err := crypto.GenerateNumericCode(otpDigits)
	if err != nil {
		return time.Time{}, fmt.Errorf("registration service: generate code: %w", err)
	}

	now := s.now()
	pending := pendingRegistration{
		Code:      code,
		ExpiresAt: now.Add(s.expiry),
	}
	if err := s.storePending(ctx, email, pending); err != nil {
		return time.Time{}, err
	}

	metrics.OTPIssued.Inc()
	s.dispatcher.dispatch(ctx, "otp", []string{email}, "Your verification code",
		fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes. If you did not request this code, you can ignore this message.\n", code, int(s.expiry.Minutes())))

	return pending.ExpiresAt, nil
}

// VerifyOTP checks the submitted code and marks the pending registration as
// verified. The original expiry is preserved: a verified record that lapses
// before SetPassword is still rejected.
func (s *RegistrationService) VerifyOTP(ctx context.Context, email, code string) error {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	pending, err := s.loadPending(ctx, email)
	if err != nil {
		return err
	}

	// The code comparison comes first: a wrong code is reported as invalid
	// no matter how old the pending record is.
	if pending.Code != code {
		return ErrOTPInvalid
	}
	if s.now().After(pending.ExpiresAt) {
		_ = s.store.Delete(ctx, pendingKeyPrefix+email)
		return ErrOTPExpired
	}

	pending.Verified = true
	return s.storePendingUntil(ctx, email, *pending, pending.ExpiresAt)
}

// SetPassword finalises the signup: it requires a verified, unexpired pending
// registration, creates the account and discards the pending record.
// This is the only path that creates User rows.
func (s *RegistrationService) SetPassword(ctx context.Context, email, name, role, password string) (*models.User, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if password == "" {
		return nil, errors.New("registration service: password is required")
	}

	pending, err := s.loadPending(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return nil, ErrNotVerified
		}
		return nil, err
	}
	if !pending.Verified {
		return nil, ErrNotVerified
	}
	if s.now().After(pending.ExpiresAt) {
		_ = s.store.Delete(ctx, pendingKeyPrefix+email)
		return nil, ErrOTPExpired
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("registration service: hash password: %w", err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("registration service: create user: %w", err)
	}

	// The profile row is created best effort; a failure here must not undo
	// the registration.
	if err := s.db.WithContext(ctx).Create(&models.UserProfile{UserID: user.ID}).Error; err != nil {
		s.log.Warn("create empty profile failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	if err := s.store.Delete(ctx, pendingKeyPrefix+email); err != nil {
		s.log.Warn("discard pending registration failed", zap.String("email", email), zap.Error(err))
	}

	return &user, nil
}

func (s *RegistrationService) storePending(ctx context.Context, email string, pending pendingRegistration) error {
	return s.storePendingUntil(ctx, email, pending, pending.ExpiresAt)
}

func (s *RegistrationService) storePendingUntil(ctx context.Context, email string, pending pendingRegistration, expiresAt time.Time) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("registration service: encode pending record: %w", err)
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.store.Set(ctx, pendingKeyPrefix+email, payload, ttl); err != nil {
		return fmt.Errorf("registration service: store pending record: %w", err)
	}
	return nil
}

func (s *RegistrationService) loadPending(ctx context.Context, email string) (*pendingRegistration, error) {
	if email == "" {
		return nil, ErrOTPNotFound
	}

	payload, ok, err := s.store.Get(ctx, pendingKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("registration service: read pending record: %w", err)
	}
	if !ok {
		return nil, ErrOTPNotFound
	}

	var pending pendingRegistration
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, fmt.Errorf("registration service: decode pending record: %w", err)
	}
	return &pending, nil
}

