package validator

import (
	"shop/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

type productValidator struct {
	v *playground.Validate
}

// Usecaseは interface を依存注入
func NewProductValidator() usecase.ProductValidator {
	return &productValidator{v: New()}
}

// 管理者の商品入力を検証
func (pv *productValidator) ValidateProduct(in usecase.ProductInput) error {
	return Struct(pv.v, in)
}
