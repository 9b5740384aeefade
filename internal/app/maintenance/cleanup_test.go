package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database/testutil"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

func seedResetUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Name: "Test User", Email: "cleanup@example.com", Password: "hash", Role: models.RoleStudent}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCleanupResetCodes(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	user := seedResetUser(t, db)

	used := now.Add(-time.Hour)
	rows := []models.PasswordResetCode{
		{UserID: user.ID, Code: "111111", ExpiresAt: now.Add(-time.Minute)},
		{UserID: user.ID, Code: "222222", ExpiresAt: now.Add(time.Hour), UsedAt: &used},
		{UserID: user.ID, Code: "333333", ExpiresAt: now.Add(time.Hour)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	removed, err := CleanupResetCodes(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var remaining []models.PasswordResetCode
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "333333", remaining[0].Code)
}

func TestCleanupCacheEntries(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.CacheEntry{
		{Key: "expired", Value: []byte("v"), ExpiresAt: now.Add(-time.Minute)},
		{Key: "active", Value: []byte("v"), ExpiresAt: now.Add(time.Hour)},
		{Key: "forever", Value: []byte("v")},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	removed, err := CleanupCacheEntries(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var keys []string
	require.NoError(t, db.Model(&models.CacheEntry{}).Order("key").Pluck("key", &keys).Error)
	require.Equal(t, []string{"active", "forever"}, keys)
}

func TestRunOncePurgesAllStores(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	user := seedResetUser(t, db)

	require.NoError(t, db.Create(&models.PasswordResetCode{
		UserID: user.ID, Code: "999999", ExpiresAt: now.Add(-time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.CacheEntry{
		Key: "stale", Value: []byte("v"), ExpiresAt: now.Add(-time.Minute),
	}).Error)

	memoryNow := now.Add(-2 * time.Minute)
	memory := cache.NewMemoryStore().WithClock(func() time.Time { return memoryNow })
	require.NoError(t, memory.Set(context.Background(), "gone", []byte("v"), time.Minute))
	memoryNow = now

	cleaner := NewCleaner(db, memory, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var codeCount, entryCount int64
	require.NoError(t, db.Model(&models.PasswordResetCode{}).Count(&codeCount).Error)
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&entryCount).Error)
	require.Zero(t, codeCount)
	require.Zero(t, entryCount)

	_, ok, err := memory.Get(context.Background(), "gone")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCleanerRunsOnSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.CacheEntry{
		Key: "stale", Value: []byte("v"), ExpiresAt: now.Add(-time.Minute),
	}).Error)

	cleaner := NewCleaner(db, nil,
		WithNow(func() time.Time { return now }),
		WithSchedule("@every 10ms"),
	)
	require.NoError(t, cleaner.Start())
	defer func() { <-cleaner.Stop().Done() }()

	require.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&models.CacheEntry{}).Count(&count).Error; err != nil {
			return false
		}
		return count == 0
	}, 2*time.Second, 20*time.Millisecond)
}
