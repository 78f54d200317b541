package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Token is the single long-lived API token of a user.
type Token struct {
	Key       string    `gorm:"primaryKey;size:512"`
	UserID    uint64    `gorm:"uniqueIndex;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Token) TableName() string { return "auth_tokens" }

// Tokens issues, resolves and revokes API tokens.
type Tokens struct {
	DB  *gorm.DB
	JWT *JWT
}

// Issue checks the credentials and returns the user's token, creating it on
// first login.
func (s *Tokens) Issue(ctx context.Context, email, password string) (string, *User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	db := s.DB.WithContext(ctx)

	var u User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !ComparePassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	key, err := s.tokenFor(db, u.ID)
	if err != nil {
		return "", nil, err
	}
	return key, &u, nil
}

func (s *Tokens) tokenFor(db *gorm.DB, userID uint64) (string, error) {
	var tok Token
	err := db.Where("user_id = ?", userID).First(&tok).Error
	if err == nil {
		return tok.Key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("find token: %w", err)
	}

	key, err := s.JWT.Sign(userID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	tok = Token{Key: key, UserID: userID}
	if err := db.Omit(clause.Associations).Create(&tok).Error; err != nil {
		if !IsDuplicateKey(err) {
			return "", fmt.Errorf("create token: %w", err)
		}
		// lost a race with a concurrent login
		if err := db.Where("user_id = ?", userID).First(&tok).Error; err != nil {
			return "", fmt.Errorf("find token: %w", err)
		}
	}
	return tok.Key, nil
}

// Resolve maps a presented token to its user.
func (s *Tokens) Resolve(ctx context.Context, key string) (*User, error) {
	uid, err := s.JWT.Verify(key)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	db := s.DB.WithContext(ctx)

	var tok Token
	if err := db.Where(&Token{Key: key, UserID: uid}).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	var u User
	if err := db.First(&u, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Revoke deletes the user's token. The next login issues a new one.
func (s *Tokens) Revoke(ctx context.Context, userID uint64) error {
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&Token{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
