package models

import (
	"time"
)

// Evaluation records a score and feedback given to a user for a worklet.
type Evaluation struct {
	BaseModel

	UserID    string `gorm:"type:uuid;index;not null" json:"user_id"`
	WorkletID string `gorm:"type:uuid;index;not null" json:"worklet_id"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Worklet *Worklet `gorm:"foreignKey:WorkletID;constraint:OnDelete:CASCADE" json:"worklet,omitempty"`

	EvaluatorID string `gorm:"type:uuid" json:"evaluator_id"`

	// Score is bounded to [0, 100] at the service layer.
	Score       int       `gorm:"not null" json:"score"`
	Feedback    string    `json:"feedback"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
