package repository

import (
	"context"
	"fmt"

	"shop/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート明細を追加順で取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, fmt.Errorf("list cart items: %w", err)
	}

	return items, nil
}

// 同一商品は数量加算。INSERT ... ON CONFLICT の1文なので同時に呼ばれても加算は失われない。
func (r *CartGormRepository) IncrementItem(ctx context.Context, userID int64, productID int64) error {
	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", 1),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("increment cart item: %w", err)
	}
	return nil
}

// 明細を削除（数量は見ない）
func (r *CartGormRepository) RemoveItem(ctx context.Context, userID int64, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// カートを空にする
func (r *CartGormRepository) Clear(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
