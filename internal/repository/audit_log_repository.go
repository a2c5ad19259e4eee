package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 監査ログの絞り込み条件。ゼロ値の項目は条件にしない。
type AuditLogFilter struct {
	ActorUserID int64
	Action      model.AuditAction
	ResourceID  int64
}

// 監査ログは追記のみ。一覧は新しい順。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	Count(ctx context.Context, filter AuditLogFilter) (int64, error)
	List(ctx context.Context, filter AuditLogFilter, offset int, limit int) ([]model.AuditLog, error)
}
