package repository

import (
	"context"

	"shop/internal/domain/model"
)

// カートはユーザーIDで引ける独立した集約として扱う。
// 数量の加算は1文で行い、カート全体の読み書きはしない。
type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 無ければ数量1で作成、あれば quantity + 1
	IncrementItem(ctx context.Context, userID int64, productID int64) error
	// 数量に関係なく明細ごと削除。無くてもエラーにしない。
	RemoveItem(ctx context.Context, userID int64, productID int64) error
	Clear(ctx context.Context, userID int64) error
}
