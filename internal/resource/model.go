package resource

import (
	"time"

	"stash/internal/auth"
)

// Resource is a text record owned by exactly one user.
type Resource struct {
	ID          uint64    `gorm:"primaryKey"`
	Content     string    `gorm:"type:text;not null"`
	CreatedByID uint64    `gorm:"not null"`
	CreatedBy   auth.User `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"not null"`
}
