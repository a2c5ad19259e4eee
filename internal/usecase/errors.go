package usecase

import (
	"errors"
	"fmt"
)

// ErrorKind は handler がステータスコードに変換するための分類。
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindUpstream     ErrorKind = "upstream"
	KindPersistence  ErrorKind = "persistence"
)

// Error は usecase が返す型付きエラー。
// Message はそのままレスポンスに出すので内部の詳細は Err 側に入れる。
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewUnauthorizedError() error {
	return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
}

// NewForbiddenError は所有者違いなど。存在の有無は明かさない。
func NewForbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewUpstreamError(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func NewPersistenceError(err error) error {
	return &Error{Kind: KindPersistence, Message: "db error", Err: err}
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// IsKind は err が指定の分類かどうか。
func IsKind(err error, kind ErrorKind) bool {
	ue, ok := AsError(err)
	return ok && ue.Kind == kind
}

// asPersistence は型付きでないエラーだけを db error に包む。
func asPersistence(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return NewPersistenceError(err)
}
