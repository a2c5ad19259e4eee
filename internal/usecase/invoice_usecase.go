package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"golang.org/x/sync/errgroup"
)

type InvoiceUsecase struct {
	orders   repo.OrderRepository
	renderer InvoiceRenderer
	store    repo.DocumentStore
}

// store は nil でもよい（毎回描画してレスポンスだけに書く）。
func NewInvoiceUsecase(orders repo.OrderRepository, renderer InvoiceRenderer, store repo.DocumentStore) *InvoiceUsecase {
	return &InvoiceUsecase{orders: orders, renderer: renderer, store: store}
}

func InvoiceFileName(orderID string) string {
	return "invoice-" + orderID + ".pdf"
}

// InvoiceKey は保存先のキー。
func InvoiceKey(orderID string) string {
	return "invoices/" + InvoiceFileName(orderID)
}

// Invoice は注文の請求書PDFを w に書く。
// 他人の注文は1バイトも書かずに Forbidden を返す。
func (u *InvoiceUsecase) Invoice(ctx context.Context, who model.Identity, orderID string, w io.Writer) error {
	if who.ID <= 0 {
		return NewUnauthorizedError()
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return NewValidationError("invalid order id", map[string]string{"id": "required"})
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFoundError("no order found")
	}
	if err != nil {
		return NewPersistenceError(err)
	}

	//所有チェック（他人の注文なら403）
	if order.UserID != who.ID {
		return NewForbiddenError("forbidden")
	}

	key := InvoiceKey(order.ID)

	// 保存済みならそれを返す
	if u.store != nil {
		rc, err := u.store.Open(ctx, key)
		if err == nil {
			defer rc.Close()
			if _, err := io.Copy(w, rc); err != nil {
				return fmt.Errorf("write invoice %s: %w", order.ID, err)
			}
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			slog.WarnContext(ctx, "invoice store open failed", "order_id", order.ID, "error", err)
		}
	}

	data, err := u.renderer.Render(order)
	if err != nil {
		return err
	}

	//保存とレスポンスへの書き込みは並行。保存の失敗はログだけ。
	var g errgroup.Group
	if u.store != nil {
		g.Go(func() error {
			if err := u.store.Put(ctx, key, data); err != nil {
				slog.WarnContext(ctx, "invoice store put failed", "order_id", order.ID, "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write invoice %s: %w", order.ID, err)
		}
		return nil
	})
	return g.Wait()
}
