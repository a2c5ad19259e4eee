package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"shop/internal/domain/model"
	"shop/internal/infra/notify"
	"shop/internal/infra/payment"
	"shop/internal/metrics"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// 通知送信に使う時間の上限
const notifyTimeout = 10 * time.Second

type CheckoutConfig struct {
	Currency      string
	WebhookSecret string
	// 決済後の戻り先URLの組み立てに使う
	PublicBaseURL string
}

// CheckoutUsecase はチェックアウト開始から注文確定までを扱う。
// 確定は (ユーザー, 確定キー) で冪等。
type CheckoutUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	carts    *CartUsecase
	gateway  PaymentGateway
	notifier Notifier
	metrics  *metrics.CheckoutMetrics
	cfg      CheckoutConfig
	now      func() time.Time

	// 送信中の確認通知
	pending sync.WaitGroup
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	carts *CartUsecase,
	gateway PaymentGateway,
	notifier Notifier,
	m *metrics.CheckoutMetrics,
	cfg CheckoutConfig,
) *CheckoutUsecase {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &CheckoutUsecase{
		tx:       tx,
		orders:   orders,
		carts:    carts,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CheckoutSession は POST /checkout のレスポンス。
type CheckoutSession struct {
	SessionID string           `json:"session_id"`
	URL       string           `json:"url"`
	Total     decimal.Decimal  `json:"total"`
	Items     []model.CartLine `json:"items"`
}

// StartCheckout はカートの内容で決済セッションを作る。カートも注文も触らない。
func (u *CheckoutUsecase) StartCheckout(ctx context.Context, who model.Identity) (CheckoutSession, error) {
	if who.ID <= 0 {
		return CheckoutSession{}, NewUnauthorizedError()
	}

	// 金額はキャッシュではなくDBのカートから出す（Finalize と同じ内容で請求する）
	view, err := u.carts.freshView(ctx, who)
	if err != nil {
		return CheckoutSession{}, err
	}
	if len(view.Items) == 0 {
		return CheckoutSession{}, NewValidationError("cart empty", map[string]string{"cart": "must not be empty"})
	}

	lineItems := make([]payment.LineItem, 0, len(view.Items))
	for _, l := range view.Items {
		lineItems = append(lineItems, payment.LineItem{
			Name:        l.Title,
			Description: l.Description,
			Amount:      l.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Currency:    u.cfg.Currency,
			Quantity:    l.Quantity,
		})
	}

	base := strings.TrimRight(u.cfg.PublicBaseURL, "/")
	s, err := u.gateway.CreateSession(ctx, payment.CreateSessionRequest{
		PaymentMethodTypes: []string{"card"},
		LineItems:          lineItems,
		SuccessURL:         base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          base + "/checkout/cancel",
		ClientReferenceID:  strconv.FormatInt(who.ID, 10),
		CustomerEmail:      who.Email,
	})
	if err != nil {
		u.metrics.GatewayError()
		return CheckoutSession{}, NewUpstreamError("payment gateway error", err)
	}

	return CheckoutSession{
		SessionID: s.ID,
		URL:       s.URL,
		Total:     view.Total,
		Items:     view.Items,
	}, nil
}

// Finalize はカートから注文を作り、カートを空にする。
// 同じキーで2回呼ばれたら最初の注文を返す。
func (u *CheckoutUsecase) Finalize(ctx context.Context, who model.Identity, key string, source model.OrderSource) (model.Order, error) {
	if who.ID <= 0 {
		return model.Order{}, NewUnauthorizedError()
	}
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 255 {
		return model.Order{}, NewValidationError("invalid finalization key", map[string]string{keyField(source): "required, at most 255 characters"})
	}

	// 同じキーなら同じ結果
	existing, found, err := u.orders.FindByFinalizationKey(ctx, who.ID, key)
	if err != nil {
		return model.Order{}, NewPersistenceError(err)
	}
	if found {
		return existing, nil
	}

	if source == model.OrderSourceCheckoutSuccess {
		if err := u.verifySession(ctx, who, key); err != nil {
			return model.Order{}, err
		}
	}

	var order model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.Carts().ListByUserID(ctx, who.ID)
		if err != nil {
			return err
		}

		byID, err := findProducts(ctx, r.Products(), items)
		if err != nil {
			return err
		}

		//スナップショット（商品への参照は持たない）
		lines := make([]model.OrderLineSnapshot, 0, len(items))
		for _, it := range items {
			p, ok := byID[it.ProductID]
			if !ok {
				continue
			}
			lines = append(lines, model.NewOrderLineSnapshot(p, it.Quantity))
		}
		if len(lines) == 0 {
			return NewValidationError("cart empty", map[string]string{"cart": "must not be empty"})
		}

		order = model.Order{
			UserID:          who.ID,
			Email:           who.Email,
			FinalizationKey: key,
			Lines:           lines,
			CreatedAt:       u.now().UTC(),
		}
		if err := r.Orders().Save(ctx, &order); err != nil {
			return err
		}

		//カートを空にする（再注文防止）
		return r.Carts().Clear(ctx, who.ID)
	})
	if err != nil {
		//競合（同時に同じキーで確定された）はもう一回検索して同じ結果を返す
		if errors.Is(err, repo.ErrConflict) {
			ex, found, err2 := u.orders.FindByFinalizationKey(ctx, who.ID, key)
			if err2 == nil && found {
				return ex, nil
			}
		}
		return model.Order{}, asPersistence(err)
	}

	u.carts.invalidate(ctx, who.ID)
	u.metrics.OrderFinalized(string(source))
	slog.InfoContext(ctx, "order finalized", "order_id", order.ID, "user_id", who.ID, "source", source)

	u.sendConfirmation(ctx, order)
	return order, nil
}

// verifySession はリダイレクトを信用せず、ゲートウェイに支払い状況を問い合わせる。
func (u *CheckoutUsecase) verifySession(ctx context.Context, who model.Identity, sessionID string) error {
	s, err := u.gateway.GetSession(ctx, sessionID)
	if err != nil {
		u.metrics.GatewayError()
		return NewUpstreamError("payment gateway error", err)
	}
	if s.ClientReferenceID != strconv.FormatInt(who.ID, 10) {
		return NewForbiddenError("forbidden")
	}
	if !s.Paid() {
		return NewUpstreamError("payment not completed", nil)
	}
	return nil
}

// sendConfirmation は確定後に別goroutineで通知する。失敗はログだけ。
func (u *CheckoutUsecase) sendConfirmation(ctx context.Context, order model.Order) {
	if u.notifier == nil {
		return
	}
	msg := notify.OrderConfirmation(order)

	u.pending.Add(1)
	go func() {
		defer u.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := u.notifier.Notify(nctx, msg); err != nil {
			slog.WarnContext(nctx, "order confirmation failed", "order_id", order.ID, "error", err)
		}
	}()
}

// Drain は送信中の確認通知が終わるのを待つ。先に ctx が切れたらそのエラーを返す。
func (u *CheckoutUsecase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleWebhook は署名を検証し、支払い完了イベントなら注文を確定する。
// それ以外のイベントは受け取るだけ。
func (u *CheckoutUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := payment.ParseEvent(payload, signature, u.cfg.WebhookSecret, u.now())
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return &Error{Kind: KindUnauthorized, Message: "invalid signature", Err: err}
		}
		return NewValidationError("invalid payload", nil)
	}

	if ev.Type != payment.EventCheckoutSessionCompleted {
		slog.InfoContext(ctx, "webhook event ignored", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	s := ev.Data.Object
	if !s.Paid() {
		slog.InfoContext(ctx, "webhook session not paid", "event_id", ev.ID, "session_id", s.ID)
		return nil
	}

	userID, err := strconv.ParseInt(s.ClientReferenceID, 10, 64)
	if err != nil || userID <= 0 {
		return NewValidationError("invalid client_reference_id", map[string]string{"client_reference_id": "must be a user id"})
	}

	who := model.Identity{ID: userID, Email: s.CustomerEmail, Role: model.RoleUser}
	if _, err := u.Finalize(ctx, who, s.ID, model.OrderSourceWebhook); err != nil {
		// カートが空ならゲートウェイに再送させても意味がない
		if IsKind(err, KindValidation) {
			slog.WarnContext(ctx, "webhook finalize skipped", "session_id", s.ID, "user_id", userID, "error", err)
			return nil
		}
		return err
	}
	return nil
}

// ListOrders は購入者の注文を新しい順に返す。
func (u *CheckoutUsecase) ListOrders(ctx context.Context, who model.Identity) ([]model.Order, error) {
	if who.ID <= 0 {
		return nil, NewUnauthorizedError()
	}
	orders, err := u.orders.FindByPurchaser(ctx, who.ID)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func keyField(source model.OrderSource) string {
	switch source {
	case model.OrderSourcePlaceOrder:
		return "X-Idempotency-Key"
	default:
		return "session_id"
	}
}
