package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

// PlatformStatistics summarises the whole platform.
type PlatformStatistics struct {
	TotalUsers         int64            `json:"total_users"`
	TotalWorklets      int64            `json:"total_worklets"`
	ActiveAssociations int64            `json:"active_associations"`
	UsersByRole        map[string]int64 `json:"users_by_role"`
	WorkletsByStatus   map[string]int64 `json:"worklets_by_status"`
	CompletionRate     float64          `json:"completion_rate"`
}

// MentorEngagement describes one mentor's load.
type MentorEngagement struct {
	MentorID     string `json:"mentor_id"`
	Name         string `json:"name"`
	WorkletCount int    `json:"worklet_count"`
	StudentCount int    `json:"student_count"`
}

// MentorStatistics aggregates progress across all mentor-led worklets.
type MentorStatistics struct {
	StatusCounts      map[string]int64   `json:"status_counts"`
	Engagement        []MentorEngagement `json:"engagement_data"`
	PerformanceCounts map[string]int64   `json:"performance_counts"`
	RiskCounts        map[string]int64   `json:"risk_data"`
}

// MentorDetailedStats summarises a single mentor's portfolio.
type MentorDetailedStats struct {
	MentorID        string           `json:"mentor_id"`
	Name            string           `json:"name"`
	TotalWorklets   int              `json:"total_worklets"`
	TotalStudents   int              `json:"total_students"`
	AverageProgress float64          `json:"average_progress"`
	StatusCounts    map[string]int64 `json:"status_counts"`
}

// Progress thresholds used to bucket student performance and risk.
const (
	performanceExcellent = 90
	performanceGood      = 75
	performanceAverage   = 50
	riskHighBelow        = 30
	riskMediumBelow      = 70
)

// DashboardService computes read-only aggregates for the dashboard views.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(db *gorm.DB) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	return &DashboardService{db: db}, nil
}

// PlatformStatistics returns the platform-wide counters.
func (s *DashboardService) PlatformStatistics(ctx context.Context) (*PlatformStatistics, error) {
	ctx = ensureContext(ctx)

	stats := &PlatformStatistics{
		UsersByRole:      make(map[string]int64),
		WorkletsByStatus: make(map[string]int64),
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count users: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Worklet{}).Count(&stats.TotalWorklets).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count worklets: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.UserWorkletAssociation{}).
		Where("is_active = ?", true).Count(&stats.ActiveAssociations).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count associations: %w", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var roleBuckets []bucket
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("role AS key, COUNT(*) AS count").Group("role").
		Scan(&roleBuckets).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: group users: %w", err)
	}
	for _, b := range roleBuckets {
		stats.UsersByRole[b.Key] = b.Count
	}

	var statusBuckets []bucket
	if err := s.db.WithContext(ctx).Model(&models.Worklet{}).
		Select("status AS key, COUNT(*) AS count").Group("status").
		Scan(&statusBuckets).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: group worklets: %w", err)
	}
	for _, b := range statusBuckets {
		stats.WorkletsByStatus[b.Key] = b.Count
	}

	if stats.TotalWorklets > 0 {
		completed := stats.WorkletsByStatus[models.WorkletStatusCompleted]
		stats.CompletionRate = float64(completed) / float64(stats.TotalWorklets) * 100
	}

	return stats, nil
}

// MentorStatistics aggregates status, engagement, performance and risk
// buckets across every mentor-led worklet.
func (s *DashboardService) MentorStatistics(ctx context.Context) (*MentorStatistics, error) {
	ctx = ensureContext(ctx)

	stats := &MentorStatistics{
		StatusCounts: make(map[string]int64),
		PerformanceCounts: map[string]int64{
			"excellent":         0,
			"good":              0,
			"average":           0,
			"needs_improvement": 0,
		},
		RiskCounts: map[string]int64{
			"high":   0,
			"medium": 0,
			"low":    0,
		},
	}

	var mentors []models.User
	if err := s.db.WithContext(ctx).Where("role = ?", models.RoleMentor).Find(&mentors).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: load mentors: %w", err)
	}

	for _, mentor := range mentors {
		var associations []models.UserWorkletAssociation
		err := s.db.WithContext(ctx).
			Preload("Worklet").
			Where("user_id = ? AND role_in_worklet = ? AND is_active = ?",
				mentor.ID, models.AssociationRoleMentor, true).
			Find(&associations).Error
		if err != nil {
			return nil, fmt.Errorf("dashboard service: load mentor associations: %w", err)
		}

		engagement := MentorEngagement{MentorID: mentor.ID, Name: mentor.Name}
		for _, association := range associations {
			if association.Worklet == nil {
				continue
			}
			engagement.WorkletCount++
			stats.StatusCounts[association.Worklet.Status]++

			var students int64
			err := s.db.WithContext(ctx).Model(&models.UserWorkletAssociation{}).
				Where("worklet_id = ? AND role_in_worklet = ? AND is_active = ?",
					association.WorkletID, models.AssociationRoleStudent, true).
				Count(&students).Error
			if err != nil {
				return nil, fmt.Errorf("dashboard service: count students: %w", err)
			}
			engagement.StudentCount += int(students)
		}
		stats.Engagement = append(stats.Engagement, engagement)
	}

	var studentAssociations []models.UserWorkletAssociation
	err := s.db.WithContext(ctx).
		Where("role_in_worklet = ? AND is_active = ? AND progress_percentage IS NOT NULL",
			models.AssociationRoleStudent, true).
		Find(&studentAssociations).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard service: load student progress: %w", err)
	}

	for _, association := range studentAssociations {
		progress := *association.ProgressPercentage

		switch {
		case progress >= performanceExcellent:
			stats.PerformanceCounts["excellent"]++
		case progress >= performanceGood:
			stats.PerformanceCounts["good"]++
		case progress >= performanceAverage:
			stats.PerformanceCounts["average"]++
		default:
			stats.PerformanceCounts["needs_improvement"]++
		}

		switch {
		case progress < riskHighBelow:
			stats.RiskCounts["high"]++
		case progress < riskMediumBelow:
			stats.RiskCounts["medium"]++
		default:
			stats.RiskCounts["low"]++
		}
	}

	return stats, nil
}

// MentorDetailedStats summarises one mentor's portfolio.
func (s *DashboardService) MentorDetailedStats(ctx context.Context, mentorID string) (*MentorDetailedStats, error) {
	ctx = ensureContext(ctx)

	var mentor models.User
	err := s.db.WithContext(ctx).Where("id = ?", mentorID).First(&mentor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard service: lookup mentor: %w", err)
	}
	if mentor.Role != models.RoleMentor {
		return nil, ErrNotAMentor
	}

	stats := &MentorDetailedStats{
		MentorID:     mentor.ID,
		Name:         mentor.Name,
		StatusCounts: make(map[string]int64),
	}

	var associations []models.UserWorkletAssociation
	err = s.db.WithContext(ctx).
		Preload("Worklet").
		Where("user_id = ? AND role_in_worklet = ? AND is_active = ?",
			mentor.ID, models.AssociationRoleMentor, true).
		Find(&associations).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard service: load mentor associations: %w", err)
	}

	progressSum := 0
	progressSamples := 0
	for _, association := range associations {
		if association.Worklet == nil {
			continue
		}
		stats.TotalWorklets++
		stats.StatusCounts[association.Worklet.Status]++

		var roster []models.UserWorkletAssociation
		err := s.db.WithContext(ctx).
			Where("worklet_id = ? AND role_in_worklet = ? AND is_active = ?",
				association.WorkletID, models.AssociationRoleStudent, true).
			Find(&roster).Error
		if err != nil {
			return nil, fmt.Errorf("dashboard service: load roster: %w", err)
		}

		stats.TotalStudents += len(roster)
		for _, studentAssociation := range roster {
			if studentAssociation.ProgressPercentage != nil {
				progressSum += *studentAssociation.ProgressPercentage
				progressSamples++
			}
		}
	}

	if progressSamples > 0 {
		stats.AverageProgress = float64(progressSum) / float64(progressSamples)
	}

	return stats, nil
}
