package models

import (
	"time"
)

// PasswordResetCode stores an emailed numeric code used to reset a password.
// Codes expire ten minutes after issue and are single use.
type PasswordResetCode struct {
	BaseModel

	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Code      string     `gorm:"not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
