package validator

import (
	"errors"
	"reflect"
	"strings"

	"shop/internal/usecase"

	playground "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 入力が不正
var ErrInvalidInput = errors.New("invalid input")

// New は json タグ名でエラーを返す validator を作る。
func New() *playground.Validate {
	v := playground.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("price", validatePrice)
	return v
}

// numeric(12,2) に入る上限
var maxPrice = decimal.RequireFromString("9999999999.99")

// 0以上、小数2桁まで（"10.000" のような末尾0は可）
func validatePrice(fl playground.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2)) && d.LessThanOrEqual(maxPrice)
}

// Struct は検証して usecase の ValidationError に変換する。
func Struct(v *playground.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return usecase.NewValidationError(ErrInvalidInput.Error(), nil)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return usecase.NewValidationError(ErrInvalidInput.Error(), fields)
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return "at least " + fe.Param() + " characters"
	case "max":
		return "at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "price":
		return "must be a non-negative amount with at most 2 decimals, up to 9999999999.99"
	default:
		return "invalid"
	}
}

// EchoValidator は echo.Context.Validate 用。
type EchoValidator struct {
	v *playground.Validate
}

func NewEchoValidator() echo.Validator {
	return &EchoValidator{v: New()}
}

func (ev *EchoValidator) Validate(i interface{}) error {
	return Struct(ev.v, i)
}
