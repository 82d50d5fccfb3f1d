package auth

import (
	"time"

	"github.com/lib/pq"
)

// User is an account with the preference bundle collected during onboarding.
// Guest sessions never produce a row here.
type User struct {
	ID           uint64  `gorm:"primaryKey"`
	Username     string  `gorm:"uniqueIndex;not null"`
	Email        *string `gorm:"uniqueIndex"`
	PasswordHash string  `gorm:"not null"`

	DisplayName string `gorm:"type:text;not null;default:''"`
	AvatarPath  string `gorm:"type:text;not null;default:''"`

	// Preferences
	FavoriteMediums pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	FavoriteStyles  pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	SkillLevel      string         `gorm:"type:text;not null;default:''"` // beginner, intermediate, advanced
	SessionLength   string         `gorm:"type:text;not null;default:''"`
	BudgetRange     string         `gorm:"type:text;not null;default:''"`
	Goals           string         `gorm:"type:text;not null;default:''"`

	PinterestUsername  string `gorm:"type:text;not null;default:''"`
	PinterestConnected bool   `gorm:"not null;default:false"`

	OnboardingCompleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	LastLogin *time.Time
}
