package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 注文は書き込み1回のみ。更新・削除の操作は持たない。
type OrderRepository interface {
	// ID が空なら採番する。同じ (user_id, finalization_key) があれば ErrConflict。
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	FindByPurchaser(ctx context.Context, userID int64) ([]model.Order, error)
	FindByFinalizationKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}
