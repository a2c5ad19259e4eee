package usecase_test

import (
	"context"
	"errors"
	"io"

	"shop/internal/domain/model"
	"shop/internal/infra/notify"
	"shop/internal/infra/payment"
	repo "shop/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateSession(ctx context.Context, req payment.CreateSessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

func (m *GatewayMock) GetSession(ctx context.Context, sessionID string) (payment.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(ctx context.Context, msg notify.Notification) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type RendererMock struct{ mock.Mock }

func (m *RendererMock) Render(order model.Order) ([]byte, error) {
	args := m.Called(order)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartRepoMock) IncrementItem(ctx context.Context, userID int64, productID int64) error {
	panic("not used in retry tests")
}

func (m *CartRepoMock) RemoveItem(ctx context.Context, userID int64, productID int64) error {
	panic("not used in retry tests")
}

func (m *CartRepoMock) Clear(ctx context.Context, userID int64) error {
	panic("not used in retry tests")
}

type DocumentStoreMock struct{ mock.Mock }

func (m *DocumentStoreMock) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *DocumentStoreMock) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

// =====================
// 失敗を注入するラッパー
// =====================

// failingSaveTx は本物のトランザクションの中で Orders().Save だけ失敗させる。
type failingSaveTx struct {
	inner repo.TransactionManager
	err   error
}

func (f failingSaveTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return f.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(failingSaveRepos{TxRepos: r, err: f.err})
	})
}

type failingSaveRepos struct {
	repo.TxRepos
	err error
}

func (r failingSaveRepos) Orders() repo.OrderRepository {
	return failingSaveOrders{OrderRepository: r.TxRepos.Orders(), err: r.err}
}

type failingSaveOrders struct {
	repo.OrderRepository
	err error
}

func (o failingSaveOrders) Save(ctx context.Context, order *model.Order) error {
	return o.err
}

// missOnceOrders は最初の FindByFinalizationKey だけ「無し」を返す（同時確定の再現）。
type missOnceOrders struct {
	repo.OrderRepository
	missed bool
}

func (o *missOnceOrders) FindByFinalizationKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	if !o.missed {
		o.missed = true
		return model.Order{}, false, nil
	}
	return o.OrderRepository.FindByFinalizationKey(ctx, userID, key)
}

var (
	_ repo.CartRepository  = (*CartRepoMock)(nil)
	_ repo.DocumentStore   = (*DocumentStoreMock)(nil)
	_ repo.OrderRepository = (*missOnceOrders)(nil)
)

// interleavedCarts は ListByUserID の直後に一度だけ afterList を呼ぶ。
// 読み込みとキャッシュ書き込みの間に別の更新が入る状況を作る。
type interleavedCarts struct {
	repo.CartRepository
	afterList func()
}

func (c *interleavedCarts) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	items, err := c.CartRepository.ListByUserID(ctx, userID)
	if f := c.afterList; f != nil {
		c.afterList = nil
		f()
	}
	return items, err
}

// staleCartCache は常に固定の明細を返す（消せなかったキャッシュ）。
type staleCartCache struct {
	items []model.CartItem
}

func (c *staleCartCache) Get(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return c.items, nil
}

func (c *staleCartCache) Version(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (c *staleCartCache) Set(ctx context.Context, userID int64, version int64, items []model.CartItem) error {
	return nil
}

func (c *staleCartCache) Invalidate(ctx context.Context, userID int64) error {
	return errors.New("redis: connection refused")
}
