package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文の確定経路
type OrderSource string

const (
	OrderSourceCheckoutSuccess OrderSource = "checkout_success"
	OrderSourcePlaceOrder      OrderSource = "place_order"
	OrderSourceWebhook         OrderSource = "webhook"
)

// Order は確定した購入の記録。作成後は更新も削除もしない。
// Lines は JSON の塊として1カラムに保存する。
type Order struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index;uniqueIndex:ux_orders_user_finalization_key" json:"user_id"`
	Email  string `gorm:"type:varchar(255);not null" json:"email"`

	// 決済セッションID または X-Idempotency-Key。同じキーで2件目は作らない。
	FinalizationKey string `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_user_finalization_key" json:"-"`

	Lines     []OrderLineSnapshot `gorm:"type:text;serializer:json;not null" json:"lines"`
	CreatedAt time.Time           `gorm:"not null" json:"created_at"`
}

// Total はスナップショットから合計を再計算する（現在の商品価格は見ない）。
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
