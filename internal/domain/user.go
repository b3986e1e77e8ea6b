package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	Name           *string    `json:"name,omitempty"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	OnboardingStep int        `gorm:"default:1;not null" json:"onboarding_step"`
	IsDeleted      bool       `gorm:"default:false;not null" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthUser is the limited profile returned by the "me" endpoint.
type AuthUser struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           *string `json:"name"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	OnboardingStep int     `json:"onboarding_step"`
}
