package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database/testutil"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/crypto"
)

func newRegistrationFixture(t *testing.T, opts ...RegistrationOption) (*RegistrationService, *capturingMailer, *cache.MemoryStore) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewMemoryStore()
	mailer := &capturingMailer{}

	opts = append([]RegistrationOption{WithRegistrationAsyncMail(false)}, opts...)
	svc, err := NewRegistrationService(db, store, mailer, opts...)
	require.NoError(t, err)

	return svc, mailer, store
}

func TestRegistrationFlow(t *testing.T) {
	svc, mailer, _ := newRegistrationFixture(t)
	ctx := context.Background()

	expiresAt, err := svc.IssueOTP(ctx, "Alice@Example.com")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	msg := mailer.last(t)
	require.Equal(t, []string{"alice@example.com"}, msg.To)
	code := codeFromBody(t, msg.Body)

	require.NoError(t, svc.VerifyOTP(ctx, "alice@example.com", code))

	user, err := svc.SetPassword(ctx, "alice@example.com", "Alice", models.RoleStudent, "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, models.RoleStudent, user.Role)
	require.True(t, user.IsActive)
	require.True(t, crypto.VerifyPassword(user.Password, "correct horse battery"))

	// An empty profile row is created alongside the account.
	var profile models.UserProfile
	require.NoError(t, svc.db.Where("user_id = ?", user.ID).First(&profile).Error)

	// The pending record is consumed; repeating the final step fails.
	_, err = svc.SetPassword(ctx, "alice@example.com", "Alice", models.RoleStudent, "another password")
	require.ErrorIs(t, err, ErrNotVerified)
}

func TestRegistrationFlowOverDatabaseStore(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	mailer := &capturingMailer{}

	svc, err := NewRegistrationService(db, store, mailer, WithRegistrationAsyncMail(false))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.IssueOTP(ctx, "ivy@example.com")
	require.NoError(t, err)

	// The pending record lands in the cache table, not in memory.
	var pending int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Where("key = ?", "otp:register:ivy@example.com").Count(&pending).Error)
	require.EqualValues(t, 1, pending)

	code := codeFromBody(t, mailer.last(t).Body)
	require.NoError(t, svc.VerifyOTP(ctx, "ivy@example.com", code))

	user, err := svc.SetPassword(ctx, "ivy@example.com", "Ivy", models.RoleStudent, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	// Account creation consumes the cache row.
	require.NoError(t, db.Model(&models.CacheEntry{}).Where("key = ?", "otp:register:ivy@example.com").Count(&pending).Error)
	require.Zero(t, pending)
}

func TestIssueOTPAlreadyRegistered(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	seedUser(t, svc.db, "Bob", "bob@example.com", models.RoleMentor, "pw123456")

	_, err := svc.IssueOTP(context.Background(), "bob@example.com")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestIssueOTPReplacesPreviousCode(t *testing.T) {
	svc, mailer, _ := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "carol@example.com")
	require.NoError(t, err)
	first := codeFromBody(t, mailer.last(t).Body)

	_, err = svc.IssueOTP(ctx, "carol@example.com")
	require.NoError(t, err)
	second := codeFromBody(t, mailer.last(t).Body)

	// The first code is no longer accepted once a new one is issued. The two
	// codes are random and may rarely collide, so only assert on the first
	// when they differ.
	if first != second {
		require.ErrorIs(t, svc.VerifyOTP(ctx, "carol@example.com", first), ErrOTPInvalid)
	}
	require.NoError(t, svc.VerifyOTP(ctx, "carol@example.com", second))
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, mailer, _ := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "dave@example.com")
	require.NoError(t, err)
	code := codeFromBody(t, mailer.last(t).Body)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.VerifyOTP(ctx, "dave@example.com", wrong), ErrOTPInvalid)

	// The pending record survives a wrong attempt.
	require.NoError(t, svc.VerifyOTP(ctx, "dave@example.com", code))
}

func TestVerifyOTPUnknownEmail(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	require.ErrorIs(t, svc.VerifyOTP(context.Background(), "nobody@example.com", "123456"), ErrOTPNotFound)
}

func TestVerifyOTPExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc, mailer, _ := newRegistrationFixture(t, WithRegistrationClock(func() time.Time { return clock() }))
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "erin@example.com")
	require.NoError(t, err)
	code := codeFromBody(t, mailer.last(t).Body)

	later := now.Add(11 * time.Minute)
	clock = func() time.Time { return later }

	require.ErrorIs(t, svc.VerifyOTP(ctx, "erin@example.com", code), ErrOTPExpired)

	// The expired record is discarded, so the next attempt sees nothing.
	require.ErrorIs(t, svc.VerifyOTP(ctx, "erin@example.com", code), ErrOTPNotFound)
}

func TestVerifyOTPWrongCodeAfterExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc, mailer, _ := newRegistrationFixture(t, WithRegistrationClock(func() time.Time { return clock() }))
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "hana@example.com")
	require.NoError(t, err)
	code := codeFromBody(t, mailer.last(t).Body)

	later := now.Add(11 * time.Minute)
	clock = func() time.Time { return later }

	// A wrong code is reported as invalid even though the record has lapsed.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.VerifyOTP(ctx, "hana@example.com", wrong), ErrOTPInvalid)

	// The wrong attempt does not consume the record; the matching code then
	// surfaces the expiry.
	require.ErrorIs(t, svc.VerifyOTP(ctx, "hana@example.com", code), ErrOTPExpired)
}

func TestSetPasswordRequiresVerification(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "frank@example.com")
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, "frank@example.com", "Frank", models.RoleStudent, "password123")
	require.ErrorIs(t, err, ErrNotVerified)
}

func TestSetPasswordVerifiedButExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc, mailer, _ := newRegistrationFixture(t, WithRegistrationClock(func() time.Time { return clock() }))
	ctx := context.Background()

	_, err := svc.IssueOTP(ctx, "gina@example.com")
	require.NoError(t, err)
	code := codeFromBody(t, mailer.last(t).Body)
	require.NoError(t, svc.VerifyOTP(ctx, "gina@example.com", code))

	later := now.Add(15 * time.Minute)
	clock = func() time.Time { return later }

	_, err = svc.SetPassword(ctx, "gina@example.com", "Gina", models.RoleStudent, "password123")
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestSetPasswordRejectsInvalidRole(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	_, err := svc.SetPassword(context.Background(), "harry@example.com", "Harry", "Overlord", "password123")
	require.ErrorIs(t, err, ErrInvalidRole)
}
