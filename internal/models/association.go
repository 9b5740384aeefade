package models

import (
	"time"
)

// Roles a user can hold within a worklet. Admin never appears here.
const (
	AssociationRoleMentor    = "Mentor"
	AssociationRoleStudent   = "Student"
	AssociationRoleProfessor = "Professor"
)

// ValidAssociationRole reports whether role may be used on an association.
func ValidAssociationRole(role string) bool {
	switch role {
	case AssociationRoleMentor, AssociationRoleStudent, AssociationRoleProfessor:
		return true
	}
	return false
}

// Per-member completion statuses, independent of the worklet status.
const (
	CompletionNotStarted = "Not Started"
	CompletionInProgress = "In Progress"
	CompletionCompleted  = "Completed"
	CompletionOnHold     = "On Hold"
)

// ValidCompletionStatus reports whether status is a recognised completion status.
func ValidCompletionStatus(status string) bool {
	switch status {
	case CompletionNotStarted, CompletionInProgress, CompletionCompleted, CompletionOnHold:
		return true
	}
	return false
}

// UserWorkletAssociation links a user to a worklet with a role and progress.
// At most one active association may exist per (user, worklet) pair;
// deactivated rows are retained as history.
type UserWorkletAssociation struct {
	BaseModel

	UserID    string `gorm:"type:uuid;index;not null" json:"user_id"`
	WorkletID string `gorm:"type:uuid;index;not null" json:"worklet_id"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Worklet *Worklet `gorm:"foreignKey:WorkletID;constraint:OnDelete:CASCADE" json:"worklet,omitempty"`

	RoleInWorklet      string `gorm:"not null" json:"role_in_worklet"`
	ProgressPercentage *int   `json:"progress_percentage"`
	CompletionStatus   string `gorm:"default:Not Started" json:"completion_status"`

	AssignedAt time.Time `json:"assigned_at"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
	AssignedBy *string   `gorm:"type:uuid" json:"assigned_by"`
	Notes      string    `json:"notes"`
}
