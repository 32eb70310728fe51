// Package production holds the production order aggregate and the status
// dictionary that names its lifecycle states.
package production

import (
	"context"
	"errors"
	"strings"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/models"

	"gorm.io/gorm"
)

const duplicateKeyMessage = "a status with this key already exists"

type Statuses struct {
	db *gorm.DB
}

func NewStatuses(db *gorm.DB) *Statuses {
	return &Statuses{db: db}
}

type StatusInput struct {
	Name      string
	KeyName   string
	SortOrder int
	IsFinal   bool
}

func (in *StatusInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.KeyName = strings.TrimSpace(in.KeyName)
	if in.Name == "" || in.KeyName == "" {
		return apperror.Validation("status name and key are required")
	}
	return nil
}

// List returns statuses in display order.
func (s *Statuses) List(ctx context.Context) ([]models.ProductionStatus, error) {
	var list []models.ProductionStatus
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&list).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return list, nil
}

func (s *Statuses) Create(ctx context.Context, actor authz.Actor, in StatusInput) (*models.ProductionStatus, error) {
	if err := authz.Require(actor, authz.ManageStatuses, 0); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.uniqueKey(ctx, in.KeyName, 0); err != nil {
		return nil, err
	}

	st := models.ProductionStatus{
		Name:      in.Name,
		KeyName:   in.KeyName,
		SortOrder: in.SortOrder,
		IsFinal:   in.IsFinal,
	}
	if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, duplicateKey(err)
	}
	return &st, nil
}

func (s *Statuses) Update(ctx context.Context, actor authz.Actor, id uint, in StatusInput) (before, after models.ProductionStatus, err error) {
	if err = authz.Require(actor, authz.ManageStatuses, 0); err != nil {
		return before, after, err
	}
	if err = in.normalize(); err != nil {
		return before, after, err
	}
	if before, err = s.get(ctx, id); err != nil {
		return before, after, err
	}
	if err = s.uniqueKey(ctx, in.KeyName, id); err != nil {
		return before, after, err
	}

	// Select every column so a false IsFinal or zero SortOrder is written.
	after = before
	after.Name = in.Name
	after.KeyName = in.KeyName
	after.SortOrder = in.SortOrder
	after.IsFinal = in.IsFinal
	err = s.db.WithContext(ctx).Model(&after).
		Select("name", "key_name", "sort_order", "is_final").
		Updates(&after).Error
	if err != nil {
		return before, after, duplicateKey(err)
	}
	return before, after, nil
}

// Delete refuses while any production order still references the status.
func (s *Statuses) Delete(ctx context.Context, actor authz.Actor, id uint) (models.ProductionStatus, error) {
	var st models.ProductionStatus
	if err := authz.Require(actor, authz.ManageStatuses, 0); err != nil {
		return st, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&st, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("status not found")
			}
			return apperror.Store(err)
		}

		var inUse int64
		if err := tx.Model(&models.ProductionOrder{}).Where("status_id = ?", id).Count(&inUse).Error; err != nil {
			return apperror.Store(err)
		}
		if inUse > 0 {
			return apperror.Guard("this status is used by production orders and cannot be deleted")
		}

		if err := tx.Delete(&models.ProductionStatus{}, id).Error; err != nil {
			return apperror.Store(err)
		}
		return nil
	})
	if err != nil {
		return st, apperror.Store(err)
	}
	return st, nil
}

// Default is the status with the lowest sort order.
func (s *Statuses) Default(ctx context.Context) (*models.ProductionStatus, error) {
	var st models.ProductionStatus
	err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Validation("no production statuses are configured")
	}
	if err != nil {
		return nil, apperror.Store(err)
	}
	return &st, nil
}

func (s *Statuses) Exists(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ProductionStatus{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apperror.Store(err)
	}
	return n > 0, nil
}

func (s *Statuses) get(ctx context.Context, id uint) (models.ProductionStatus, error) {
	var st models.ProductionStatus
	err := s.db.WithContext(ctx).First(&st, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return st, apperror.NotFound("status not found")
	}
	if err != nil {
		return st, apperror.Store(err)
	}
	return st, nil
}

// uniqueKey compares key names case-sensitively.
// duplicateKey covers a writer that slipped in after uniqueKey checked.
func duplicateKey(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(duplicateKeyMessage)
	}
	return apperror.Store(err)
}

func (s *Statuses) uniqueKey(ctx context.Context, key string, exceptID uint) error {
	q := s.db.WithContext(ctx).Model(&models.ProductionStatus{}).Where("key_name = ?", key)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return apperror.Store(err)
	}
	if n > 0 {
		return apperror.Conflict(duplicateKeyMessage)
	}
	return nil
}
