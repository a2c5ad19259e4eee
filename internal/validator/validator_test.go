package validator_test

import (
	"strings"
	"testing"

	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() usecase.ProductInput {
	return usecase.ProductInput{
		Title:       "Book",
		Price:       "12.99",
		Description: "A good book",
		ImageURL:    "https://example.com/book.png",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	ue, ok := usecase.AsError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.KindValidation, ue.Kind)
	return ue.Fields
}

func TestProductValidator_Valid(t *testing.T) {
	pv := validator.NewProductValidator()

	assert.NoError(t, pv.ValidateProduct(validInput()))

	in := validInput()
	in.ImageURL = ""
	in.Price = "0"
	assert.NoError(t, pv.ValidateProduct(in))

	// 末尾の0は桁数に数えない。上限ちょうどは通す
	for _, price := range []string{"10.000", "10.5", "9999999999.99"} {
		in.Price = price
		assert.NoError(t, pv.ValidateProduct(in), price)
	}
}

func TestProductValidator_Title(t *testing.T) {
	in := validInput()
	in.Title = "ab"

	fields := fieldsOf(t, validator.NewProductValidator().ValidateProduct(in))
	assert.Contains(t, fields, "title")
}

func TestProductValidator_Price(t *testing.T) {
	pv := validator.NewProductValidator()

	for _, price := range []string{"-1", "1.234", "abc", "", "10000000000", "9999999999.999"} {
		in := validInput()
		in.Price = price
		fields := fieldsOf(t, pv.ValidateProduct(in))
		assert.Contains(t, fields, "price", price)
	}
}

func TestProductValidator_Description(t *testing.T) {
	pv := validator.NewProductValidator()

	in := validInput()
	in.Description = "abcd"
	assert.Contains(t, fieldsOf(t, pv.ValidateProduct(in)), "description")

	in.Description = strings.Repeat("a", 401)
	assert.Contains(t, fieldsOf(t, pv.ValidateProduct(in)), "description")
}

func TestProductValidator_ImageURL(t *testing.T) {
	in := validInput()
	in.ImageURL = "not a url"

	assert.Contains(t, fieldsOf(t, validator.NewProductValidator().ValidateProduct(in)), "image_url")
}

func TestEchoValidator(t *testing.T) {
	type req struct {
		ProductID int64 `json:"product_id" validate:"required,gt=0"`
	}
	ev := validator.NewEchoValidator()

	assert.NoError(t, ev.Validate(&req{ProductID: 1}))
	fields := fieldsOf(t, ev.Validate(&req{}))
	assert.Equal(t, "required", fields["product_id"])
}
