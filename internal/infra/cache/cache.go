package cache

import (
	"context"
	"errors"

	"shop/internal/domain/model"
)

// CartCache はユーザーごとのカート明細のキャッシュ。
// 正はDBで、ここは読み取りの近道でしかない。
//
// 明細が変わるたびに世代番号を進める。読み込み側は DB を読む前に世代を取り、
// Set にその世代を渡す。途中で世代が進んでいれば書き込まない。
type CartCache interface {
	Get(ctx context.Context, userID int64) ([]model.CartItem, error)
	Version(ctx context.Context, userID int64) (int64, error)
	Set(ctx context.Context, userID int64, version int64, items []model.CartItem) error
	Invalidate(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")

// 読み込み中に明細が変わった
var ErrStale = errors.New("cache entry is stale")
