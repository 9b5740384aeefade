package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database/testutil"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func newProfileFixture(t *testing.T) (*ProfileService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProfileService(db)
	require.NoError(t, err)
	return svc, db
}

func TestProfileGetByEmail(t *testing.T) {
	svc, db := newProfileFixture(t)
	user := seedUser(t, db, "Alice", "alice@example.com", models.RoleStudent, "password123")

	view, err := svc.GetByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, view.User.ID)
	require.Nil(t, view.Profile)

	_, err = svc.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileUpdateCreatesRow(t *testing.T) {
	svc, db := newProfileFixture(t)
	seedUser(t, db, "Alice", "alice@example.com", models.RoleStudent, "password123")
	ctx := context.Background()

	view, err := svc.Update(ctx, "alice@example.com", ProfilePatch{
		Name:            strPtr("Alice Liddell"),
		Bio:             strPtr("Backend student"),
		LinkedIn:        strPtr("https://linkedin.com/in/alice"),
		GitHub:          strPtr("https://github.com/alice"),
		ExperienceYears: intPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", view.User.Name)
	require.NotNil(t, view.Profile)
	require.Equal(t, "Backend student", view.Profile.Bio)
	require.Equal(t, "https://linkedin.com/in/alice", view.Profile.LinkedIn)
	require.Equal(t, "https://github.com/alice", view.Profile.GitHub)
	require.Equal(t, 2, *view.Profile.ExperienceYears)

	// A second patch only touches the supplied fields.
	view, err = svc.Update(ctx, "alice@example.com", ProfilePatch{Location: strPtr("Bengaluru")})
	require.NoError(t, err)
	require.Equal(t, "Bengaluru", view.Profile.Location)
	require.Equal(t, "Backend student", view.Profile.Bio)
}

func TestProfileUpdateUnknownUser(t *testing.T) {
	svc, _ := newProfileFixture(t)

	_, err := svc.Update(context.Background(), "ghost@example.com", ProfilePatch{Bio: strPtr("boo")})
	require.ErrorIs(t, err, ErrUserNotFound)
}
