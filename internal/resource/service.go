package resource

import (
	"context"
	"errors"
	"fmt"

	"stash/internal/auth"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")
var ErrQuotaExceeded = errors.New("resources quota exceeded")

type Service struct {
	DB *gorm.DB
}

// Create stores a resource owned by ownerID. The quota check and the insert
// share one transaction holding a row lock on the owner, so concurrent
// creations cannot overrun the quota.
func (s *Service) Create(ctx context.Context, ownerID uint64, content string) (*Resource, error) {
	var res Resource

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner auth.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrUnauthenticated
			}
			return fmt.Errorf("lock owner: %w", err)
		}

		if owner.Quota != nil {
			n, err := countByOwner(tx, owner.ID)
			if err != nil {
				return err
			}
			if n >= *owner.Quota {
				return ErrQuotaExceeded
			}
		}

		res = Resource{Content: content, CreatedByID: owner.ID}
		if err := tx.Omit(clause.Associations).Create(&res).Error; err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
		res.CreatedBy = owner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns every resource for a superuser and only the caller's own
// resources otherwise.
func (s *Service) List(ctx context.Context, caller *auth.User) ([]Resource, error) {
	if caller == nil {
		return nil, auth.ErrUnauthenticated
	}

	q := s.DB.WithContext(ctx).Preload("CreatedBy")
	if !caller.IsSuperuser {
		q = q.Where("created_by_id = ?", caller.ID)
	}

	var out []Resource
	if err := q.Order("id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*Resource, error) {
	var r Resource
	if err := s.DB.WithContext(ctx).Preload("CreatedBy").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Delete(&Resource{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete resource: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CountByOwner(ctx context.Context, ownerID uint64) (int64, error) {
	return countByOwner(s.DB.WithContext(ctx), ownerID)
}

// DeleteByOwner removes all resources of ownerID using tx, so callers can
// make it part of a larger transaction.
func DeleteByOwner(tx *gorm.DB, ownerID uint64) (int64, error) {
	res := tx.Where("created_by_id = ?", ownerID).Delete(&Resource{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete resources: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func countByOwner(db *gorm.DB, ownerID uint64) (int64, error) {
	var n int64
	if err := db.Model(&Resource{}).Where("created_by_id = ?", ownerID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}
