package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"shop/internal/domain/model"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/usecase"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var shopper = model.Identity{ID: 1, Email: "buyer@example.com", Role: model.RoleUser}

// テストごとに独立したインメモリDBを作る
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:uc_%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, title string, price string) model.Product {
	t.Helper()

	p, err := infraRepo.NewProductGormRepository(gdb).Create(context.Background(), model.Product{
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		ImageURL:    "https://example.com/" + strings.ToLower(title) + ".png",
		UserID:      99,
	})
	require.NoError(t, err)
	return p
}

func assertKind(t *testing.T, err error, kind usecase.ErrorKind) {
	t.Helper()

	ue, ok := usecase.AsError(err)
	if assert.True(t, ok, "expected usecase error, got %v", err) {
		assert.Equal(t, kind, ue.Kind, ue.Error())
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
