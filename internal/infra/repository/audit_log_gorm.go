package repository

import (
	"context"
	"fmt"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r *auditLogGormRepository) Count(ctx context.Context, filter repo.AuditLogFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return total, nil
}

// [offset, offset+limit) を新しい順で返す。
func (r *auditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter, offset int, limit int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.filtered(ctx, filter).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return []model.AuditLog{}, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func (r *auditLogGormRepository) filtered(ctx context.Context, filter repo.AuditLogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.ActorUserID > 0 {
		q = q.Where("actor_user_id = ?", filter.ActorUserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ResourceID > 0 {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	return q
}
