// Package account administers user records: creation, quota updates and
// deletion with cascade.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stash/internal/auth"
	"stash/internal/resource"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already used")
)

// FieldError is an input problem attached to a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

const minRegisterPasswordLen = 8

type CreateInput struct {
	Email       string
	Password    string
	IsSuperuser bool
	Quota       *int64
}

var validate = validator.New()

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Create adds a user. An empty password leaves the account unable to log in.
func (s *Service) Create(ctx context.Context, in CreateInput) (*auth.User, error) {
	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		return nil, &FieldError{Field: "email", Message: "This field is required."}
	}
	if err := validate.Var(email, "email,max=255"); err != nil {
		return nil, &FieldError{Field: "email", Message: "Enter a valid email address."}
	}
	if err := validateQuota(in.Quota); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		h, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	u := auth.User{
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  in.IsSuperuser,
		Quota:        in.Quota,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&auth.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(&u).Error; err != nil {
			if auth.IsDuplicateKey(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register is self-service signup: never a superuser, no quota, and a
// password is mandatory.
func (s *Service) Register(ctx context.Context, email, password string) (*auth.User, error) {
	if strings.TrimSpace(password) == "" {
		return nil, &FieldError{Field: "password", Message: "This field is required."}
	}
	if len(password) < minRegisterPasswordLen {
		return nil, &FieldError{Field: "password", Message: fmt.Sprintf("Ensure this field has at least %d characters.", minRegisterPasswordLen)}
	}
	return s.Create(ctx, CreateInput{Email: email, Password: password})
}

func (s *Service) List(ctx context.Context) ([]auth.User, error) {
	var out []auth.User
	if err := s.DB.WithContext(ctx).Order("id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return findByEmail(s.DB.WithContext(ctx), email)
}

// UpdateQuota sets the user's quota; nil means unlimited.
func (s *Service) UpdateQuota(ctx context.Context, email string, quota *int64) (*auth.User, error) {
	if err := validateQuota(quota); err != nil {
		return nil, err
	}

	var u *auth.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findByEmail(tx.Clauses(clause.Locking{Strength: "UPDATE"}), email)
		if err != nil {
			return err
		}
		if err := tx.Model(found).Update("quota", quota).Error; err != nil {
			return fmt.Errorf("update quota: %w", err)
		}
		found.Quota = quota
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the user together with its token and resources in one
// transaction.
func (s *Service) Delete(ctx context.Context, email string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findByEmail(tx, email)
		if err != nil {
			return err
		}
		if _, err := resource.DeleteByOwner(tx, u.ID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&auth.Token{}).Error; err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		if err := tx.Delete(u).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func findByEmail(db *gorm.DB, email string) (*auth.User, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}
	var u auth.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func validateQuota(q *int64) error {
	if q != nil && *q < 0 {
		return &FieldError{Field: "quota", Message: "Ensure this value is greater than or equal to 0."}
	}
	return nil
}
