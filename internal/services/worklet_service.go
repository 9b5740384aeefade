package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/logger"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
)

var (
	// ErrWorkletNotFound indicates neither the id nor the certificate id matched.
	ErrWorkletNotFound = errors.New("worklet: not found")
	// ErrWorkletExists signals a duplicate certificate id.
	ErrWorkletExists = errors.New("worklet: certificate id already in use")
	// ErrInvalidWorkletStatus rejects statuses outside the closed set.
	ErrInvalidWorkletStatus = errors.New("worklet: invalid status")
)

// WorkletInput carries the fields accepted when creating a worklet.
type WorkletInput struct {
	CertID      string `json:"cert_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	Year        int    `json:"year"`
}

// WorkletPatch carries optional fields; only non-nil fields are applied.
type WorkletPatch struct {
	CertID      *string `json:"cert_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Domain      *string `json:"domain"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      *string `json:"status"`
	Year        *int    `json:"year"`
}

// ActivityNotice is the outcome of a worklet activity notification.
type ActivityNotice struct {
	WorkletID string   `json:"worklet_id"`
	Notified  []string `json:"notified"`
	Count     int      `json:"count"`
}

// WorkletOption customises the WorkletService.
type WorkletOption func(*WorkletService)

// WithWorkletAsyncMail controls whether activity emails are sent in the background.
func WithWorkletAsyncMail(async bool) WorkletOption {
	return func(s *WorkletService) {
		s.dispatcher.async = async
	}
}

// WorkletService manages the worklet catalogue and its activity notifications.
type WorkletService struct {
	db         *gorm.DB
	dispatcher *mailDispatcher
	log        *zap.Logger
}

// NewWorkletService constructs a worklet service with the provided dependencies.
func NewWorkletService(db *gorm.DB, mailer mail.Mailer, opts ...WorkletOption) (*WorkletService, error) {
	if db == nil {
		return nil, errors.New("worklet service: db is required")
	}

	log := logger.WithModule("worklets")
	service := &WorkletService{
		db:         db,
		dispatcher: newMailDispatcher(mailer, true, log),
		log:        log,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Create inserts a new worklet. Status defaults to Ongoing.
func (s *WorkletService) Create(ctx context.Context, input WorkletInput) (*models.Worklet, error) {
	ctx = ensureContext(ctx)

	input.CertID = strings.TrimSpace(input.CertID)
	input.Title = strings.TrimSpace(input.Title)
	if input.CertID == "" {
		return nil, errors.New("worklet service: cert_id is required")
	}
	if input.Title == "" {
		return nil, errors.New("worklet service: title is required")
	}

	status := input.Status
	if status == "" {
		status = models.WorkletStatusOngoing
	}
	if !models.ValidWorkletStatus(status) {
		return nil, ErrInvalidWorkletStatus
	}

	worklet := models.Worklet{
		CertID:      input.CertID,
		Title:       input.Title,
		Description: input.Description,
		Domain:      input.Domain,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      status,
		Year:        input.Year,
	}
	if err := s.db.WithContext(ctx).Create(&worklet).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrWorkletExists
		}
		return nil, fmt.Errorf("worklet service: create: %w", err)
	}

	return &worklet, nil
}

// Get resolves a worklet by UUID or, failing that, by certificate id.
func (s *WorkletService) Get(ctx context.Context, identifier string) (*models.Worklet, error) {
	ctx = ensureContext(ctx)
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrWorkletNotFound
	}

	var worklet models.Worklet
	err := s.db.WithContext(ctx).
		Where("id = ? OR cert_id = ?", identifier, identifier).
		First(&worklet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("worklet service: lookup: %w", err)
	}

	return &worklet, nil
}

// List returns worklets, optionally filtered by status and year.
func (s *WorkletService) List(ctx context.Context, status string, year int) ([]models.Worklet, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Worklet{}).Order("created_at DESC")
	if status != "" {
		if !models.ValidWorkletStatus(status) {
			return nil, ErrInvalidWorkletStatus
		}
		query = query.Where("status = ?", status)
	}
	if year != 0 {
		query = query.Where("year = ?", year)
	}

	var worklets []models.Worklet
	if err := query.Find(&worklets).Error; err != nil {
		return nil, fmt.Errorf("worklet service: list: %w", err)
	}
	return worklets, nil
}

// ListCompleted returns worklets whose lifecycle finished. When email is
// supplied, results are limited to worklets that user is associated with.
func (s *WorkletService) ListCompleted(ctx context.Context, email string) ([]models.Worklet, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Worklet{}).
		Where("worklets.status = ?", models.WorkletStatusCompleted)

	email = normaliseEmail(email)
	if email != "" {
		query = query.
			Joins("JOIN user_worklet_associations a ON a.worklet_id = worklets.id AND a.is_active = ?", true).
			Joins("JOIN users u ON u.id = a.user_id").
			Where("u.email = ?", email)
	}

	var worklets []models.Worklet
	if err := query.Distinct().Find(&worklets).Error; err != nil {
		return nil, fmt.Errorf("worklet service: list completed: %w", err)
	}
	return worklets, nil
}

// ListForMentor returns the worklets a mentor account is actively associated with.
func (s *WorkletService) ListForMentor(ctx context.Context, email string) ([]models.Worklet, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	var mentor models.User
	err := s.db.WithContext(ctx).Where("email = ? AND role = ?", email, models.RoleMentor).First(&mentor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("worklet service: lookup mentor: %w", err)
	}

	var worklets []models.Worklet
	err = s.db.WithContext(ctx).Model(&models.Worklet{}).
		Joins("JOIN user_worklet_associations a ON a.worklet_id = worklets.id").
		Where("a.user_id = ? AND a.role_in_worklet = ? AND a.is_active = ?", mentor.ID, models.AssociationRoleMentor, true).
		Distinct().
		Find(&worklets).Error
	if err != nil {
		return nil, fmt.Errorf("worklet service: list mentor worklets: %w", err)
	}
	return worklets, nil
}

// Update applies the patch to a worklet resolved by id or certificate id.
func (s *WorkletService) Update(ctx context.Context, identifier string, patch WorkletPatch) (*models.Worklet, error) {
	ctx = ensureContext(ctx)

	worklet, err := s.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if patch.CertID != nil {
		updates["cert_id"] = strings.TrimSpace(*patch.CertID)
	}
	if patch.Title != nil {
		updates["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Domain != nil {
		updates["domain"] = *patch.Domain
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	}
	if patch.Status != nil {
		if !models.ValidWorkletStatus(*patch.Status) {
			return nil, ErrInvalidWorkletStatus
		}
		updates["status"] = *patch.Status
	}
	if patch.Year != nil {
		updates["year"] = *patch.Year
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(worklet).Updates(updates).Error
		if err != nil {
			if isUniqueConstraintError(err) {
				return nil, ErrWorkletExists
			}
			return nil, fmt.Errorf("worklet service: update: %w", err)
		}
	}

	return s.Get(ctx, worklet.ID)
}

// Delete removes a worklet and, through FK cascades, its associations and evaluations.
func (s *WorkletService) Delete(ctx context.Context, identifier string) error {
	ctx = ensureContext(ctx)

	worklet, err := s.Get(ctx, identifier)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(worklet).Error; err != nil {
		return fmt.Errorf("worklet service: delete: %w", err)
	}
	return nil
}

// Activity notification kinds.
const (
	ActivityRequestUpdate      = "request-update"
	ActivityFeedback           = "feedback"
	ActivitySuggestion         = "suggestion"
	ActivityInternshipReferral = "internship-referral"
)

// NotifyStudents emails every active student on a worklet. Delivery is fire
// and forget; the notice reports who was targeted, not delivery outcomes.
func (s *WorkletService) NotifyStudents(ctx context.Context, identifier, kind, message string) (*ActivityNotice, error) {
	ctx = ensureContext(ctx)

	worklet, err := s.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var students []models.User
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN user_worklet_associations a ON a.user_id = users.id").
		Where("a.worklet_id = ? AND a.role_in_worklet = ? AND a.is_active = ?", worklet.ID, models.AssociationRoleStudent, true).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("worklet service: resolve students: %w", err)
	}

	subject, body := activityContent(kind, worklet.Title, message)

	notice := &ActivityNotice{WorkletID: worklet.ID}
	for _, student := range students {
		notice.Notified = append(notice.Notified, student.Email)
	}
	notice.Count = len(notice.Notified)

	s.dispatcher.dispatch(ctx, "activity", notice.Notified, subject, body)
	s.log.Info("worklet activity notification",
		zap.String("worklet_id", worklet.ID),
		zap.String("kind", kind),
		zap.Int("recipients", notice.Count))

	return notice, nil
}

func activityContent(kind, title, message string) (string, string) {
	switch kind {
	case ActivityRequestUpdate:
		return fmt.Sprintf("Update requested: %s", title),
			fmt.Sprintf("An update has been requested for the worklet %q.\n\n%s\n", title, message)
	case ActivityFeedback:
		return fmt.Sprintf("Feedback on %s", title),
			fmt.Sprintf("New feedback has been shared for the worklet %q.\n\n%s\n", title, message)
	case ActivitySuggestion:
		return fmt.Sprintf("Suggestion for %s", title),
			fmt.Sprintf("A suggestion has been posted for the worklet %q.\n\n%s\n", title, message)
	case ActivityInternshipReferral:
		return fmt.Sprintf("Internship referral: %s", title),
			fmt.Sprintf("An internship referral is available for members of the worklet %q.\n\n%s\n", title, message)
	default:
		return fmt.Sprintf("Update on %s", title),
			fmt.Sprintf("There is news about the worklet %q.\n\n%s\n", title, message)
	}
}
