package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	repo "shop/internal/repository"

	"github.com/spf13/afero"
)

// DocumentStore は afero のファイルシステムに文書を置く。
// 本番は INVOICE_DIR を根にした OsFs、テストは MemMapFs。
type DocumentStore struct {
	fs afero.Fs
}

func NewDocumentStore(fsys afero.Fs) *DocumentStore {
	return &DocumentStore{fs: fsys}
}

// NewOSDocumentStore は root 配下に閉じ込めた DocumentStore を返す。
func NewOSDocumentStore(root string) (*DocumentStore, error) {
	if err := afero.NewOsFs().MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document root %s: %w", root, err)
	}
	return NewDocumentStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := cleanKey(key)
	if err != nil {
		return err
	}

	if dir := path.Dir(p); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// 途中まで書いたファイルを読ませないよう一時ファイルから rename する
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func cleanKey(key string) (string, error) {
	p := path.Clean("/" + key)
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return p, nil
}
