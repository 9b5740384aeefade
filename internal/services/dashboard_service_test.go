package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database/testutil"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func newDashboardFixture(t *testing.T) (*DashboardService, *AssociationService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	dashboard, err := NewDashboardService(db)
	require.NoError(t, err)
	associations, err := NewAssociationService(db)
	require.NoError(t, err)
	return dashboard, associations, db
}

func TestPlatformStatistics(t *testing.T) {
	svc, associations, db := newDashboardFixture(t)
	ctx := context.Background()

	mentor := seedUser(t, db, "Mia", "mia@example.com", models.RoleMentor, "password123")
	student := seedUser(t, db, "Stu", "stu@example.com", models.RoleStudent, "password123")
	seedUser(t, db, "Sam", "sam@example.com", models.RoleStudent, "password123")

	ongoing := seedWorklet(t, db, "W-1", "Ongoing", models.WorkletStatusOngoing)
	seedWorklet(t, db, "W-2", "Completed A", models.WorkletStatusCompleted)
	seedWorklet(t, db, "W-3", "Completed B", models.WorkletStatusCompleted)
	seedWorklet(t, db, "W-4", "Dropped", models.WorkletStatusDropped)

	_, err := associations.Create(ctx, AssociationInput{UserID: mentor.ID, WorkletID: ongoing.ID, RoleInWorklet: models.AssociationRoleMentor})
	require.NoError(t, err)
	inactive, err := associations.Create(ctx, AssociationInput{UserID: student.ID, WorkletID: ongoing.ID, RoleInWorklet: models.AssociationRoleStudent})
	require.NoError(t, err)
	require.NoError(t, associations.Deactivate(ctx, inactive.ID))

	stats, err := svc.PlatformStatistics(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 3, stats.TotalUsers)
	require.EqualValues(t, 4, stats.TotalWorklets)
	require.EqualValues(t, 1, stats.ActiveAssociations)
	require.EqualValues(t, 1, stats.UsersByRole[models.RoleMentor])
	require.EqualValues(t, 2, stats.UsersByRole[models.RoleStudent])
	require.EqualValues(t, 2, stats.WorkletsByStatus[models.WorkletStatusCompleted])
	require.InDelta(t, 50.0, stats.CompletionRate, 0.001)
}

func TestMentorStatisticsBuckets(t *testing.T) {
	svc, associations, db := newDashboardFixture(t)
	ctx := context.Background()

	mentor := seedUser(t, db, "Mia", "mia@example.com", models.RoleMentor, "password123")
	worklet := seedWorklet(t, db, "W-1", "Alpha", models.WorkletStatusOngoing)

	_, err := associations.Create(ctx, AssociationInput{
		UserID: mentor.ID, WorkletID: worklet.ID, RoleInWorklet: models.AssociationRoleMentor,
	})
	require.NoError(t, err)

	// One student per performance/risk bucket boundary.
	progress := []int{95, 80, 60, 20}
	for i, p := range progress {
		student := seedUser(t, db, "Stu", // names need not be unique
			string(rune('a'+i))+"@example.com", models.RoleStudent, "password123")
		_, err := associations.Create(ctx, AssociationInput{
			UserID: student.ID, WorkletID: worklet.ID,
			RoleInWorklet:      models.AssociationRoleStudent,
			ProgressPercentage: intPtr(p),
		})
		require.NoError(t, err)
	}

	stats, err := svc.MentorStatistics(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 1, stats.StatusCounts[models.WorkletStatusOngoing])
	require.Len(t, stats.Engagement, 1)
	require.Equal(t, mentor.ID, stats.Engagement[0].MentorID)
	require.Equal(t, 1, stats.Engagement[0].WorkletCount)
	require.Equal(t, 4, stats.Engagement[0].StudentCount)

	require.EqualValues(t, 1, stats.PerformanceCounts["excellent"])
	require.EqualValues(t, 1, stats.PerformanceCounts["good"])
	require.EqualValues(t, 1, stats.PerformanceCounts["average"])
	require.EqualValues(t, 1, stats.PerformanceCounts["needs_improvement"])

	require.EqualValues(t, 1, stats.RiskCounts["high"])
	require.EqualValues(t, 1, stats.RiskCounts["medium"])
	require.EqualValues(t, 2, stats.RiskCounts["low"])
}

func TestMentorDetailedStats(t *testing.T) {
	svc, associations, db := newDashboardFixture(t)
	ctx := context.Background()

	mentor := seedUser(t, db, "Mia", "mia@example.com", models.RoleMentor, "password123")
	student := seedUser(t, db, "Stu", "stu@example.com", models.RoleStudent, "password123")
	other := seedUser(t, db, "Sam", "sam@example.com", models.RoleStudent, "password123")

	worklet := seedWorklet(t, db, "W-1", "Alpha", models.WorkletStatusOngoing)

	_, err := associations.Create(ctx, AssociationInput{
		UserID: mentor.ID, WorkletID: worklet.ID, RoleInWorklet: models.AssociationRoleMentor,
	})
	require.NoError(t, err)
	_, err = associations.Create(ctx, AssociationInput{
		UserID: student.ID, WorkletID: worklet.ID,
		RoleInWorklet: models.AssociationRoleStudent, ProgressPercentage: intPtr(40),
	})
	require.NoError(t, err)
	_, err = associations.Create(ctx, AssociationInput{
		UserID: other.ID, WorkletID: worklet.ID,
		RoleInWorklet: models.AssociationRoleStudent, ProgressPercentage: intPtr(80),
	})
	require.NoError(t, err)

	stats, err := svc.MentorDetailedStats(ctx, mentor.ID)
	require.NoError(t, err)
	require.Equal(t, mentor.ID, stats.MentorID)
	require.Equal(t, 1, stats.TotalWorklets)
	require.Equal(t, 2, stats.TotalStudents)
	require.InDelta(t, 60.0, stats.AverageProgress, 0.001)
	require.EqualValues(t, 1, stats.StatusCounts[models.WorkletStatusOngoing])

	_, err = svc.MentorDetailedStats(ctx, student.ID)
	require.ErrorIs(t, err, ErrNotAMentor)

	_, err = svc.MentorDetailedStats(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
