package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

// ErrUserNotFound indicates the referenced account does not exist.
var ErrUserNotFound = errors.New("profile: user not found")

// ProfilePatch carries optional profile fields; only non-nil fields are applied.
type ProfilePatch struct {
	Name *string `json:"name"`

	AvatarURL       *string `json:"avatar_url"`
	Bio             *string `json:"bio"`
	LinkedIn        *string `json:"linkedin"`
	GitHub          *string `json:"github"`
	Website         *string `json:"website"`
	PortfolioURL    *string `json:"portfolio_url"`
	Expertise       *string `json:"expertise"`
	Qualification   *string `json:"qualification"`
	ExperienceYears *int    `json:"experience_years"`
	ContactNumber   *string `json:"contact_number"`
	Organization    *string `json:"organization"`
	Handle          *string `json:"handle"`
	Location        *string `json:"location"`
	DateOfBirth     *string `json:"date_of_birth"`
}

// AccountView is the account plus its optional profile.
type AccountView struct {
	User    *models.User        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
}

// ProfileService reads and updates accounts and their profiles.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a profile service.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// GetByEmail returns the account and profile for an email address.
func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*AccountView, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: lookup user: %w", err)
	}

	view := &AccountView{User: &user}
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		view.Profile = &profile
	}

	return view, nil
}

// GetByID returns the account and profile for a user id.
func (s *ProfileService) GetByID(ctx context.Context, userID string) (*AccountView, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: lookup user: %w", err)
	}

	view := &AccountView{User: &user}
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		view.Profile = &profile
	}

	return view, nil
}

// Update applies the patch to the account and its profile, creating the
// profile row if it does not exist yet.
func (s *ProfileService) Update(ctx context.Context, email string, patch ProfilePatch) (*AccountView, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: lookup user: %w", err)
	}

	if patch.Name != nil {
		if err := s.db.WithContext(ctx).Model(&user).Update("name", *patch.Name).Error; err != nil {
			return nil, fmt.Errorf("profile service: update name: %w", err)
		}
	}

	updates := profileUpdates(patch)
	if len(updates) > 0 {
		profile := models.UserProfile{UserID: user.ID}
		if err := s.db.WithContext(ctx).
			Where("user_id = ?", user.ID).
			FirstOrCreate(&profile).Error; err != nil {
			return nil, fmt.Errorf("profile service: ensure profile row: %w", err)
		}
		if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).
			Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("profile service: apply profile updates: %w", err)
		}
	}

	return s.GetByID(ctx, user.ID)
}

func profileUpdates(patch ProfilePatch) map[string]any {
	updates := make(map[string]any)
	set := func(column string, value any) {
		updates[column] = value
	}

	if patch.AvatarURL != nil {
		set("avatar_url", *patch.AvatarURL)
	}
	if patch.Bio != nil {
		set("bio", *patch.Bio)
	}
	if patch.LinkedIn != nil {
		set("linkedin", *patch.LinkedIn)
	}
	if patch.GitHub != nil {
		set("github", *patch.GitHub)
	}
	if patch.Website != nil {
		set("website", *patch.Website)
	}
	if patch.PortfolioURL != nil {
		set("portfolio_url", *patch.PortfolioURL)
	}
	if patch.Expertise != nil {
		set("expertise", *patch.Expertise)
	}
	if patch.Qualification != nil {
		set("qualification", *patch.Qualification)
	}
	if patch.ExperienceYears != nil {
		set("experience_years", *patch.ExperienceYears)
	}
	if patch.ContactNumber != nil {
		set("contact_number", *patch.ContactNumber)
	}
	if patch.Organization != nil {
		set("organization", *patch.Organization)
	}
	if patch.Handle != nil {
		set("handle", *patch.Handle)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.DateOfBirth != nil {
		set("date_of_birth", *patch.DateOfBirth)
	}

	return updates
}
