package audit

import (
	"context"
	"encoding/json"

	"erp-backend/internal/authz"
	"erp-backend/internal/config"
	"erp-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	EntityProduct         = "product"
	EntityCategory        = "category"
	EntitySubcategory     = "subcategory"
	EntityMovement        = "inventory_move"
	EntityReservation     = "reservation"
	EntityProductionOrder = "production_order"
	EntityStatus          = "production_status"
	EntityUser            = "user"
)

type LogOptions struct {
	Actor       authz.Actor
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Writer records who changed what. A failed write is logged and swallowed:
// the audited change has already been committed.
type Writer struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewWriter(db *gorm.DB, log *logrus.Logger) *Writer {
	return &Writer{db: db, log: log}
}

// Write is a no-op on a nil Writer.
func (w *Writer) Write(ctx context.Context, opts LogOptions) {
	if w == nil {
		return
	}
	entry := models.AuditLog{
		UserID:      opts.Actor.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := w.db.WithContext(ctx).Create(&entry).Error; err != nil {
		config.LogError(w.log, "audit", "Write", "saving audit log", map[string]interface{}{
			"entity_type": opts.EntityType,
			"entity_id":   opts.EntityID,
			"action":      opts.Action,
		}, err)
	}
}

// snapshot stores "null" rather than an empty string so the column always
// holds valid JSON.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type Filter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
	Offset     int
}

func (w *Writer) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	q := w.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&logs).Error
	return logs, total, err
}
