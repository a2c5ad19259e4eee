package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shop/internal/domain/model"
	"shop/internal/infra/cache"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// 読み取りのリトライ回数（初回を含む）
const cartReadAttempts = 3

// CartUsecase は /cart の業務ロジックです。
// 呼び出し元のユーザーは毎回 Identity で受け取ります。
type CartUsecase struct {
	carts     repo.CartRepository
	products  repo.ProductRepository
	cache     cache.CartCache
	retryWait time.Duration
}

// cache は nil でもよい（常にDBを読む）。
func NewCartUsecase(carts repo.CartRepository, products repo.ProductRepository, cartCache cache.CartCache) *CartUsecase {
	return &CartUsecase{
		carts:     carts,
		products:  products,
		cache:     cartCache,
		retryWait: 20 * time.Millisecond,
	}
}

// CartView は現在の商品情報で解決したカート。
type CartView struct {
	Items []model.CartLine `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

// AddItem は数量を1増やす（無ければ数量1で作る）。
func (u *CartUsecase) AddItem(ctx context.Context, who model.Identity, productID int64) error {
	if who.ID <= 0 {
		return NewUnauthorizedError()
	}
	if productID <= 0 {
		return NewValidationError("invalid product id", map[string]string{"product_id": "must be positive"})
	}

	//削除済みの商品はカートに入れない
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		return NewPersistenceError(err)
	}

	if err := u.carts.IncrementItem(ctx, who.ID, productID); err != nil {
		return NewPersistenceError(err)
	}
	u.invalidate(ctx, who.ID)
	return nil
}

// RemoveItem は数量に関係なく明細を消す。無い商品でもエラーにしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, who model.Identity, productID int64) error {
	if who.ID <= 0 {
		return NewUnauthorizedError()
	}
	if productID <= 0 {
		return NewValidationError("invalid product id", map[string]string{"product_id": "must be positive"})
	}

	if err := u.carts.RemoveItem(ctx, who.ID, productID); err != nil {
		return NewPersistenceError(err)
	}
	u.invalidate(ctx, who.ID)
	return nil
}

func (u *CartUsecase) Clear(ctx context.Context, who model.Identity) error {
	if who.ID <= 0 {
		return NewUnauthorizedError()
	}
	if err := u.carts.Clear(ctx, who.ID); err != nil {
		return NewPersistenceError(err)
	}
	u.invalidate(ctx, who.ID)
	return nil
}

// GetItems は明細を現在の商品に解決して返す。削除された商品の明細は飛ばす。
func (u *CartUsecase) GetItems(ctx context.Context, who model.Identity) (CartView, error) {
	if who.ID <= 0 {
		return CartView{}, NewUnauthorizedError()
	}

	items, err := u.loadItems(ctx, who.ID)
	if err != nil {
		return CartView{}, NewPersistenceError(err)
	}
	return u.view(ctx, items)
}

// freshView はキャッシュを通さずDBの明細で組み立てる。決済金額はこちらで計算する。
func (u *CartUsecase) freshView(ctx context.Context, who model.Identity) (CartView, error) {
	items, err := u.readItems(ctx, who.ID)
	if err != nil {
		return CartView{}, NewPersistenceError(err)
	}
	return u.view(ctx, items)
}

func (u *CartUsecase) view(ctx context.Context, items []model.CartItem) (CartView, error) {
	lines, err := resolveLines(ctx, u.products, items)
	if err != nil {
		return CartView{}, NewPersistenceError(err)
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return CartView{Items: lines, Total: total.Round(2)}, nil
}

// キャッシュ → DB（リトライ付き）の順に読む。
// DB を読む前に世代を取っておき、読んでいる間に変更があればキャッシュに書かない。
func (u *CartUsecase) loadItems(ctx context.Context, userID int64) ([]model.CartItem, error) {
	if u.cache == nil {
		return u.readItems(ctx, userID)
	}

	items, err := u.cache.Get(ctx, userID)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		slog.WarnContext(ctx, "cart cache get failed", "user_id", userID, "error", err)
	}

	version, verErr := u.cache.Version(ctx, userID)
	if verErr != nil {
		slog.WarnContext(ctx, "cart cache version failed", "user_id", userID, "error", verErr)
	}

	items, err = u.readItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	if verErr == nil {
		err := u.cache.Set(ctx, userID, version, items)
		switch {
		case errors.Is(err, cache.ErrStale):
			slog.DebugContext(ctx, "cart changed while loading, cache not refilled", "user_id", userID)
		case err != nil:
			slog.WarnContext(ctx, "cart cache set failed", "user_id", userID, "error", err)
		}
	}
	return items, nil
}

// readItems は一時的なエラーなら数回読み直す。
func (u *CartUsecase) readItems(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var (
		items []model.CartItem
		err   error
	)
	for attempt := 1; attempt <= cartReadAttempts; attempt++ {
		items, err = u.carts.ListByUserID(ctx, userID)
		if err == nil {
			return items, nil
		}
		if ctx.Err() != nil || attempt == cartReadAttempts {
			return nil, err
		}
		slog.WarnContext(ctx, "cart read failed, retrying", "user_id", userID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(u.retryWait * time.Duration(attempt)):
		}
	}
	return nil, err
}

func (u *CartUsecase) invalidate(ctx context.Context, userID int64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, userID); err != nil {
		slog.WarnContext(ctx, "cart cache invalidate failed", "user_id", userID, "error", err)
	}
}

// resolveLines は明細の順序を保ったまま商品を引き当てる。
func resolveLines(ctx context.Context, products repo.ProductRepository, items []model.CartItem) ([]model.CartLine, error) {
	lines := make([]model.CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	found, err := findProducts(ctx, products, items)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		p, ok := found[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{
			ProductID:   p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Quantity:    it.Quantity,
		})
	}
	return lines, nil
}

func findProducts(ctx context.Context, products repo.ProductRepository, items []model.CartItem) (map[int64]model.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	ps, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]model.Product, len(ps))
	for _, p := range ps {
		found[p.ID] = p
	}
	return found, nil
}
