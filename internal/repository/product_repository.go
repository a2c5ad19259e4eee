package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 商品の永続化（保存・取得）だけを約束。削除済みの商品は返さない。
type ProductRepository interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset int, limit int) ([]model.Product, error)
	// 作成した管理者で絞り込む
	CountByOwner(ctx context.Context, userID int64) (int64, error)
	ListByOwner(ctx context.Context, userID int64, offset int, limit int) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 複数IDをまとめて取得。見つからないIDは結果に含めない。
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
