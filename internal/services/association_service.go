package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/metrics"
)

var (
	// ErrAssociationNotFound indicates the association id does not exist.
	ErrAssociationNotFound = errors.New("association: not found")
	// ErrDuplicateAssociation signals an existing active association for the pair.
	ErrDuplicateAssociation = errors.New("association: user already actively associated with worklet")
	// ErrInvalidAssociationRole rejects roles outside Mentor/Student/Professor.
	ErrInvalidAssociationRole = errors.New("association: invalid role")
	// ErrInvalidCompletionStatus rejects unknown completion statuses.
	ErrInvalidCompletionStatus = errors.New("association: invalid completion status")
	// ErrInvalidProgress rejects progress values outside [0, 100].
	ErrInvalidProgress = errors.New("association: progress must be between 0 and 100")
	// ErrNotAMentor indicates the referenced account does not hold the Mentor role.
	ErrNotAMentor = errors.New("association: user is not a mentor")
)

// AssociationInput carries the fields accepted when linking a user to a worklet.
type AssociationInput struct {
	UserID             string  `json:"user_id"`
	WorkletID          string  `json:"worklet_id"`
	RoleInWorklet      string  `json:"role_in_worklet"`
	ProgressPercentage *int    `json:"progress_percentage"`
	CompletionStatus   string  `json:"completion_status"`
	AssignedBy         *string `json:"assigned_by"`
	Notes              string  `json:"notes"`
}

// AssociationPatch carries optional fields; only non-nil fields are applied.
type AssociationPatch struct {
	RoleInWorklet      *string `json:"role_in_worklet"`
	ProgressPercentage *int    `json:"progress_percentage"`
	CompletionStatus   *string `json:"completion_status"`
	IsActive           *bool   `json:"is_active"`
	Notes              *string `json:"notes"`
}

// MemberView is a user seen through an association.
type MemberView struct {
	AssociationID      string `json:"association_id"`
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	RoleInWorklet      string `json:"role_in_worklet"`
	ProgressPercentage *int   `json:"progress_percentage"`
	CompletionStatus   string `json:"completion_status"`
	IsActive           bool   `json:"is_active"`
}

// WorkletMembers partitions a worklet's members by role.
type WorkletMembers struct {
	Worklet    *models.Worklet `json:"worklet"`
	Mentors    []MemberView    `json:"mentors"`
	Students   []MemberView    `json:"students"`
	Professors []MemberView    `json:"professors"`
	TotalUsers int             `json:"total_users"`
}

// AccountWorklet pairs a worklet with the account's association on it.
type AccountWorklet struct {
	Worklet     *models.Worklet                `json:"worklet"`
	Association *models.UserWorkletAssociation `json:"association"`
}

// MentorOngoingWorklet is an ongoing worklet with its active student roster.
type MentorOngoingWorklet struct {
	Worklet      *models.Worklet                `json:"worklet"`
	Association  *models.UserWorkletAssociation `json:"association"`
	Students     []MemberView                   `json:"students"`
	StudentCount int                            `json:"student_count"`
}

// BulkAssignEntry is one requested assignment in a bulk operation.
type BulkAssignEntry struct {
	UserID             string `json:"user_id"`
	RoleInWorklet      string `json:"role_in_worklet"`
	ProgressPercentage *int   `json:"progress_percentage"`
	CompletionStatus   string `json:"completion_status"`
	Notes              string `json:"notes"`
}

// BulkAssignResult reports per-entry outcomes of a bulk assignment.
type BulkAssignResult struct {
	SuccessCount int      `json:"success_count"`
	AssignedIDs  []string `json:"assigned_ids"`
	Errors       []string `json:"errors"`
}

// AssociationOption customises the AssociationService.
type AssociationOption func(*AssociationService)

// WithAssociationClock injects a custom time source.
func WithAssociationClock(clock func() time.Time) AssociationOption {
	return func(s *AssociationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AssociationService maintains the user-worklet ledger. Deactivated rows are
// kept as history; only active rows participate in the uniqueness rule.
type AssociationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAssociationService constructs an association service.
func NewAssociationService(db *gorm.DB, opts ...AssociationOption) (*AssociationService, error) {
	if db == nil {
		return nil, errors.New("association service: db is required")
	}

	service := &AssociationService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create links a user to a worklet after verifying both endpoints exist and
// no active association is present for the pair.
func (s *AssociationService) Create(ctx context.Context, input AssociationInput) (*models.UserWorkletAssociation, error) {
	ctx = ensureContext(ctx)

	if !models.ValidAssociationRole(input.RoleInWorklet) {
		return nil, ErrInvalidAssociationRole
	}
	if input.CompletionStatus == "" {
		input.CompletionStatus = models.CompletionNotStarted
	}
	if !models.ValidCompletionStatus(input.CompletionStatus) {
		return nil, ErrInvalidCompletionStatus
	}
	if input.ProgressPercentage != nil && (*input.ProgressPercentage < 0 || *input.ProgressPercentage > 100) {
		return nil, ErrInvalidProgress
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", input.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("association service: lookup user: %w", err)
	}

	var worklet models.Worklet
	if err := s.db.WithContext(ctx).Where("id = ?", input.WorkletID).First(&worklet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkletNotFound
		}
		return nil, fmt.Errorf("association service: lookup worklet: %w", err)
	}

	var active int64
	err := s.db.WithContext(ctx).Model(&models.UserWorkletAssociation{}).
		Where("user_id = ? AND worklet_id = ? AND is_active = ?", input.UserID, input.WorkletID, true).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("association service: check duplicates: %w", err)
	}
	if active > 0 {
		return nil, ErrDuplicateAssociation
	}

	association := models.UserWorkletAssociation{
		UserID:             input.UserID,
		WorkletID:          input.WorkletID,
		RoleInWorklet:      input.RoleInWorklet,
		ProgressPercentage: input.ProgressPercentage,
		CompletionStatus:   input.CompletionStatus,
		AssignedAt:         s.now(),
		IsActive:           true,
		AssignedBy:         input.AssignedBy,
		Notes:              input.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&association).Error; err != nil {
		return nil, fmt.Errorf("association service: create: %w", err)
	}

	metrics.ActiveAssociations.Inc()
	return &association, nil
}

// WorkletWithMembers returns a worklet and its members grouped by role.
func (s *AssociationService) WorkletWithMembers(ctx context.Context, workletID string, includeInactive bool) (*WorkletMembers, error) {
	ctx = ensureContext(ctx)

	var worklet models.Worklet
	if err := s.db.WithContext(ctx).Where("id = ?", workletID).First(&worklet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkletNotFound
		}
		return nil, fmt.Errorf("association service: lookup worklet: %w", err)
	}

	query := s.db.WithContext(ctx).
		Preload("User").
		Where("worklet_id = ?", worklet.ID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var associations []models.UserWorkletAssociation
	if err := query.Find(&associations).Error; err != nil {
		return nil, fmt.Errorf("association service: load members: %w", err)
	}

	view := &WorkletMembers{Worklet: &worklet}
	for _, association := range associations {
		member := memberView(association)
		switch association.RoleInWorklet {
		case models.AssociationRoleMentor:
			view.Mentors = append(view.Mentors, member)
		case models.AssociationRoleStudent:
			view.Students = append(view.Students, member)
		case models.AssociationRoleProfessor:
			view.Professors = append(view.Professors, member)
		}
	}
	view.TotalUsers = len(view.Mentors) + len(view.Students) + len(view.Professors)

	return view, nil
}

// AccountWorklets lists the worklets a user is associated with, optionally
// filtered by association role and worklet status.
func (s *AssociationService) AccountWorklets(ctx context.Context, userID, role, status string, includeInactive bool) ([]AccountWorklet, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("association service: lookup user: %w", err)
	}

	if role != "" && !models.ValidAssociationRole(role) {
		return nil, ErrInvalidAssociationRole
	}
	if status != "" && !models.ValidWorkletStatus(status) {
		return nil, ErrInvalidWorkletStatus
	}

	query := s.db.WithContext(ctx).
		Preload("Worklet").
		Where("user_id = ?", user.ID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if role != "" {
		query = query.Where("role_in_worklet = ?", role)
	}

	var associations []models.UserWorkletAssociation
	if err := query.Order("assigned_at DESC").Find(&associations).Error; err != nil {
		return nil, fmt.Errorf("association service: load worklets: %w", err)
	}

	var out []AccountWorklet
	for i := range associations {
		association := associations[i]
		if association.Worklet == nil {
			continue
		}
		if status != "" && association.Worklet.Status != status {
			continue
		}
		out = append(out, AccountWorklet{
			Worklet:     association.Worklet,
			Association: &association,
		})
	}
	return out, nil
}

// MentorOngoingWorklets lists a mentor's active assignments that are not yet
// finished, each with the active student roster for the worklet.
func (s *AssociationService) MentorOngoingWorklets(ctx context.Context, mentorID string) ([]MentorOngoingWorklet, error) {
	ctx = ensureContext(ctx)

	var mentor models.User
	if err := s.db.WithContext(ctx).Where("id = ?", mentorID).First(&mentor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("association service: lookup mentor: %w", err)
	}
	if mentor.Role != models.RoleMentor {
		return nil, ErrNotAMentor
	}

	var associations []models.UserWorkletAssociation
	err := s.db.WithContext(ctx).
		Preload("Worklet").
		Where("user_id = ? AND role_in_worklet = ? AND is_active = ?", mentor.ID, models.AssociationRoleMentor, true).
		Where("completion_status IN ?", []string{models.CompletionNotStarted, models.CompletionInProgress}).
		Find(&associations).Error
	if err != nil {
		return nil, fmt.Errorf("association service: load mentor worklets: %w", err)
	}

	out := make([]MentorOngoingWorklet, 0, len(associations))
	for i := range associations {
		association := associations[i]
		if association.Worklet == nil {
			continue
		}

		var roster []models.UserWorkletAssociation
		err := s.db.WithContext(ctx).
			Preload("User").
			Where("worklet_id = ? AND role_in_worklet = ? AND is_active = ?",
				association.WorkletID, models.AssociationRoleStudent, true).
			Find(&roster).Error
		if err != nil {
			return nil, fmt.Errorf("association service: load roster: %w", err)
		}

		entry := MentorOngoingWorklet{
			Worklet:     association.Worklet,
			Association: &association,
		}
		for _, studentAssociation := range roster {
			entry.Students = append(entry.Students, memberView(studentAssociation))
		}
		entry.StudentCount = len(entry.Students)
		out = append(out, entry)
	}

	return out, nil
}

// Update applies the patch to an association.
func (s *AssociationService) Update(ctx context.Context, id string, patch AssociationPatch) (*models.UserWorkletAssociation, error) {
	ctx = ensureContext(ctx)

	association, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if patch.RoleInWorklet != nil {
		if !models.ValidAssociationRole(*patch.RoleInWorklet) {
			return nil, ErrInvalidAssociationRole
		}
		updates["role_in_worklet"] = *patch.RoleInWorklet
	}
	if patch.ProgressPercentage != nil {
		if *patch.ProgressPercentage < 0 || *patch.ProgressPercentage > 100 {
			return nil, ErrInvalidProgress
		}
		updates["progress_percentage"] = *patch.ProgressPercentage
	}
	if patch.CompletionStatus != nil {
		if !models.ValidCompletionStatus(*patch.CompletionStatus) {
			return nil, ErrInvalidCompletionStatus
		}
		updates["completion_status"] = *patch.CompletionStatus
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(association).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("association service: update: %w", err)
		}
	}

	return s.get(ctx, id)
}

// Deactivate soft-deletes an association, keeping the row as history.
func (s *AssociationService) Deactivate(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	association, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if !association.IsActive {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(association).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("association service: deactivate: %w", err)
	}

	metrics.ActiveAssociations.Dec()
	return nil
}

// Delete removes an association row entirely. Kept for administrative
// cleanup; Deactivate is the regular path.
func (s *AssociationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	association, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(association).Error; err != nil {
		return fmt.Errorf("association service: delete: %w", err)
	}

	if association.IsActive {
		metrics.ActiveAssociations.Dec()
	}
	return nil
}

// BulkAssign creates associations for many users on one worklet. Entries are
// processed independently: failures are reported as messages and do not stop
// or roll back the rest.
func (s *AssociationService) BulkAssign(ctx context.Context, workletID string, entries []BulkAssignEntry, assignedBy *string) (*BulkAssignResult, error) {
	ctx = ensureContext(ctx)

	var worklet models.Worklet
	if err := s.db.WithContext(ctx).Where("id = ?", workletID).First(&worklet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkletNotFound
		}
		return nil, fmt.Errorf("association service: lookup worklet: %w", err)
	}

	result := &BulkAssignResult{}
	for _, entry := range entries {
		_, err := s.Create(ctx, AssociationInput{
			UserID:             entry.UserID,
			WorkletID:          worklet.ID,
			RoleInWorklet:      entry.RoleInWorklet,
			ProgressPercentage: entry.ProgressPercentage,
			CompletionStatus:   entry.CompletionStatus,
			AssignedBy:         assignedBy,
			Notes:              entry.Notes,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", entry.UserID, err))
			continue
		}
		result.SuccessCount++
		result.AssignedIDs = append(result.AssignedIDs, entry.UserID)
	}

	return result, nil
}

func (s *AssociationService) get(ctx context.Context, id string) (*models.UserWorkletAssociation, error) {
	var association models.UserWorkletAssociation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&association).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssociationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("association service: lookup: %w", err)
	}
	return &association, nil
}

func memberView(association models.UserWorkletAssociation) MemberView {
	member := MemberView{
		AssociationID:      association.ID,
		UserID:             association.UserID,
		RoleInWorklet:      association.RoleInWorklet,
		ProgressPercentage: association.ProgressPercentage,
		CompletionStatus:   association.CompletionStatus,
		IsActive:           association.IsActive,
	}
	if association.User != nil {
		member.Name = association.User.Name
		member.Email = association.User.Email
	}
	return member
}
