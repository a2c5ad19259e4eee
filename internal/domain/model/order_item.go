package model

import "github.com/shopspring/decimal"

// OrderLineSnapshot は注文時点の商品のコピー。
// Product への参照は持たないので、後で商品が編集・削除されても変わらない。
type OrderLineSnapshot struct {
	ProductID   int64           `json:"product_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Quantity    int64           `json:"quantity"`
}

// NewOrderLineSnapshot は商品の値だけをコピーして明細を作る。
func NewOrderLineSnapshot(p Product, quantity int64) OrderLineSnapshot {
	return OrderLineSnapshot{
		ProductID:   p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Quantity:    quantity,
	}
}

func (s OrderLineSnapshot) Subtotal() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(s.Quantity))
}
