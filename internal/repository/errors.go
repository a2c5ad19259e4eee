package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反（同じ確定キーの注文など）
	ErrConflict = errors.New("conflict")
)
