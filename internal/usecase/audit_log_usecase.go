package usecase

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 監査ログ一覧の1ページあたりの件数
const auditLogPageSize = 20

// AuditLogUsecase は管理者向けの監査ログ閲覧。
type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Page  model.PageResult `json:"page"`
}

// ListAuditLogs は条件に合う監査ログを新しい順に1ページ分返す。
func (u *AuditLogUsecase) ListAuditLogs(ctx context.Context, who model.Identity, filter repo.AuditLogFilter, page int) (AuditLogListOutput, error) {
	if err := requireAdmin(who); err != nil {
		return AuditLogListOutput{}, err
	}
	if filter.Action != "" && !filter.Action.Valid() {
		return AuditLogListOutput{}, NewValidationError("invalid filter", map[string]string{"action": "unknown action"})
	}

	total, err := u.logs.Count(ctx, filter)
	if err != nil {
		return AuditLogListOutput{}, NewPersistenceError(err)
	}

	pr := model.NewPageResult(total, auditLogPageSize, page)
	items, err := u.logs.List(ctx, filter, pr.Offset(), pr.PageSize)
	if err != nil {
		return AuditLogListOutput{}, NewPersistenceError(err)
	}
	if items == nil {
		items = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: items, Page: pr}, nil
}
