package repository

import (
	"context"
	"io"
)

// 請求書PDFなどを key で保存・再取得する。
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	// 無ければ ErrNotFound
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
