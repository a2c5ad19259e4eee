package model_test

import (
	"testing"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderTotal_FromSnapshots(t *testing.T) {
	o := model.Order{Lines: []model.OrderLineSnapshot{
		{ProductID: 1, Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: 2, Price: decimal.RequireFromString("5.00"), Quantity: 1},
	}}

	assert.Equal(t, "25.00", o.Total().StringFixed(2))
}

func TestNewOrderLineSnapshot_IndependentOfProduct(t *testing.T) {
	p := model.Product{ID: 7, Title: "Book", Description: "paper", Price: decimal.RequireFromString("12.50"), ImageURL: "images/b.png"}

	snap := model.NewOrderLineSnapshot(p, 3)

	p.Title = "Renamed"
	p.Price = decimal.RequireFromString("99.99")

	assert.Equal(t, "Book", snap.Title)
	assert.Equal(t, "12.5", snap.Price.String())
	assert.Equal(t, int64(3), snap.Quantity)
	assert.Equal(t, "37.50", snap.Subtotal().StringFixed(2))
}
