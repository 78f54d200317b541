package auth

import (
	"strings"
	"time"
)

// User is an account. A nil Quota means the user may own any number of resources.
type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsSuperuser  bool      `gorm:"not null;default:false"`
	Quota        *int64
	CreatedAt    time.Time `gorm:"not null"`
}

// NormalizeEmail trims surrounding space and lower-cases the domain part.
// The local part is kept as is.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
