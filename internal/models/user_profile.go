package models

import (
	"time"
)

// UserProfile holds the optional public profile attached to a user.
// The row is created lazily: an empty profile is inserted on registration
// and upserted on the first profile update.
type UserProfile struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`

	AvatarURL       string `json:"avatar_url"`
	Bio             string `json:"bio"`
	LinkedIn        string `gorm:"column:linkedin" json:"linkedin"`
	GitHub          string `gorm:"column:github" json:"github"`
	Website         string `json:"website"`
	PortfolioURL    string `json:"portfolio_url"`
	Expertise       string `json:"expertise"`
	Qualification   string `json:"qualification"`
	ExperienceYears *int   `json:"experience_years"`
	ContactNumber   string `json:"contact_number"`
	Organization    string `json:"organization"`
	Handle          string `json:"handle"`
	Location        string `json:"location"`
	DateOfBirth     string `json:"date_of_birth"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
