package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Platform roles. The set is closed: association roles reference the same
// values minus Admin.
const (
	RoleStudent   = "Student"
	RoleMentor    = "Mentor"
	RoleProfessor = "Professor"
	RoleAdmin     = "Admin"
)

// ValidRole reports whether role is one of the recognised platform roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleMentor, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account. Accounts are only created through the
// OTP registration flow; Password always holds a bcrypt hash.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:Student" json:"role"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Profile      *UserProfile             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Associations []UserWorkletAssociation `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
