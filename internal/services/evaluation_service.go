package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

var (
	// ErrEvaluationNotFound indicates the evaluation id does not exist.
	ErrEvaluationNotFound = errors.New("evaluation: not found")
	// ErrInvalidScore rejects scores outside [0, 100].
	ErrInvalidScore = errors.New("evaluation: score must be between 0 and 100")
)

// EvaluationInput carries the fields accepted when recording an evaluation.
type EvaluationInput struct {
	UserID      string `json:"user_id"`
	WorkletID   string `json:"worklet_id"`
	EvaluatorID string `json:"evaluator_id"`
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
}

// EvaluationPatch carries optional fields; only non-nil fields are applied.
type EvaluationPatch struct {
	Score    *int    `json:"score"`
	Feedback *string `json:"feedback"`
}

// EvaluationOption customises the EvaluationService.
type EvaluationOption func(*EvaluationService)

// WithEvaluationClock injects a custom time source.
func WithEvaluationClock(clock func() time.Time) EvaluationOption {
	return func(s *EvaluationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// EvaluationService records scores and feedback for users on worklets.
type EvaluationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEvaluationService constructs an evaluation service.
func NewEvaluationService(db *gorm.DB, opts ...EvaluationOption) (*EvaluationService, error) {
	if db == nil {
		return nil, errors.New("evaluation service: db is required")
	}

	service := &EvaluationService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create records an evaluation after verifying both endpoints exist.
func (s *EvaluationService) Create(ctx context.Context, input EvaluationInput) (*models.Evaluation, error) {
	ctx = ensureContext(ctx)

	if input.Score < 0 || input.Score > 100 {
		return nil, ErrInvalidScore
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", input.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("evaluation service: lookup user: %w", err)
	}

	var worklet models.Worklet
	if err := s.db.WithContext(ctx).Where("id = ?", input.WorkletID).First(&worklet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkletNotFound
		}
		return nil, fmt.Errorf("evaluation service: lookup worklet: %w", err)
	}

	evaluation := models.Evaluation{
		UserID:      input.UserID,
		WorkletID:   input.WorkletID,
		EvaluatorID: input.EvaluatorID,
		Score:       input.Score,
		Feedback:    input.Feedback,
		EvaluatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("evaluation service: create: %w", err)
	}

	return &evaluation, nil
}

// Get returns a single evaluation by id.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	ctx = ensureContext(ctx)

	var evaluation models.Evaluation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&evaluation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEvaluationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("evaluation service: lookup: %w", err)
	}
	return &evaluation, nil
}

// List returns evaluations, optionally filtered by user and worklet.
func (s *EvaluationService) List(ctx context.Context, userID, workletID string) ([]models.Evaluation, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Evaluation{}).Order("evaluated_at DESC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if workletID != "" {
		query = query.Where("worklet_id = ?", workletID)
	}

	var evaluations []models.Evaluation
	if err := query.Find(&evaluations).Error; err != nil {
		return nil, fmt.Errorf("evaluation service: list: %w", err)
	}
	return evaluations, nil
}

// Update applies the patch to an evaluation.
func (s *EvaluationService) Update(ctx context.Context, id string, patch EvaluationPatch) (*models.Evaluation, error) {
	ctx = ensureContext(ctx)

	evaluation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if patch.Score != nil {
		if *patch.Score < 0 || *patch.Score > 100 {
			return nil, ErrInvalidScore
		}
		updates["score"] = *patch.Score
	}
	if patch.Feedback != nil {
		updates["feedback"] = *patch.Feedback
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(evaluation).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("evaluation service: update: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Delete removes an evaluation.
func (s *EvaluationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	evaluation, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(evaluation).Error; err != nil {
		return fmt.Errorf("evaluation service: delete: %w", err)
	}
	return nil
}
