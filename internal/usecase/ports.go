package usecase

import (
	"context"

	"shop/internal/domain/model"
	"shop/internal/infra/notify"
	"shop/internal/infra/payment"
)

// PaymentGateway は外部決済。実装は infra/payment.Client。
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.CreateSessionRequest) (payment.Session, error)
	GetSession(ctx context.Context, sessionID string) (payment.Session, error)
}

// Notifier は購入者への通知。失敗しても呼び出し元の処理は成功扱い。
type Notifier interface {
	Notify(ctx context.Context, msg notify.Notification) error
}

type InvoiceRenderer interface {
	Render(order model.Order) ([]byte, error)
}

// ProductValidator は管理者の商品入力を検証する。実装は validator パッケージ。
type ProductValidator interface {
	ValidateProduct(in ProductInput) error
}
