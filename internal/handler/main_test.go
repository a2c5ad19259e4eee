package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	"shop/internal/infra/invoice"
	"shop/internal/infra/notify"
	"shop/internal/infra/payment"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/infra/storage"
	"shop/internal/metrics"
	"shop/internal/server"
	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "whsec_test"
)

// =====================
// Mocks
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateSession(ctx context.Context, req payment.CreateSessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

func (m *GatewayMock) GetSession(ctx context.Context, sessionID string) (payment.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

// =====================
// helper
// =====================

type testApp struct {
	e       *echo.Echo
	db      *gorm.DB
	gateway *GatewayMock
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)), &gorm.Config{
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

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gdb := newTestDB(t)
	cfg := config.Config{JWTSecret: testJWTSecret}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := new(GatewayMock)
	reg := prometheus.NewRegistry()

	products := infraRepo.NewProductGormRepository(gdb)
	orders := infraRepo.NewOrderGormRepository(gdb)
	tx := infraRepo.NewTxManagerGorm(gdb)

	productUC := usecase.NewProductUsecase(tx, products, validator.NewProductValidator(), model.CatalogPageSize)
	cartUC := usecase.NewCartUsecase(infraRepo.NewCartGormRepository(gdb), products, nil)
	checkoutUC := usecase.NewCheckoutUsecase(tx, orders, cartUC, gateway, notify.NewLogNotifier(quiet), metrics.NewCheckoutMetrics(reg), usecase.CheckoutConfig{
		Currency:      "usd",
		WebhookSecret: testWebhookSecret,
		PublicBaseURL: "http://shop.test",
	})
	auditLogUC := usecase.NewAuditLogUsecase(infraRepo.NewAuditLogGormRepository(gdb))
	invoiceUC := usecase.NewInvoiceUsecase(orders, invoice.NewPDFRenderer(), storage.NewDocumentStore(afero.NewMemMapFs()))

	e := server.New(cfg, quiet, reg, metrics.NewServerMetrics(reg), server.Handlers{
		Products:      handler.NewProductHandler(productUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		Orders:        handler.NewOrderHandler(checkoutUC, invoiceUC),
		AuditLogs:     handler.NewAdminAuditLogHandler(auditLogUC),
	})
	return &testApp{e: e, db: gdb, gateway: gateway}
}

func (a *testApp) seedProduct(t *testing.T, title string, price string) model.Product {
	t.Helper()
	p, err := infraRepo.NewProductGormRepository(a.db).Create(context.Background(), model.Product{
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		UserID:      99,
	})
	require.NoError(t, err)
	return p
}

func mustMakeJWT(t *testing.T, sub int64, email string, role model.Role) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"role":  string(role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func userToken(t *testing.T) string {
	return mustMakeJWT(t, 1, "buyer@example.com", model.RoleUser)
}

func adminToken(t *testing.T) string {
	return mustMakeJWT(t, 99, "admin@example.com", model.RoleAdmin)
}

type request struct {
	method  string
	path    string
	body    string
	auth    string
	headers map[string]string
}

func (a *testApp) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// Book(10.00) x2, Pen(5.00) x1 をカートに入れる
func (a *testApp) fillCart(t *testing.T) {
	t.Helper()
	book := a.seedProduct(t, "Book", "10.00")
	pen := a.seedProduct(t, "Pen", "5.00")
	for _, id := range []int64{book.ID, book.ID, pen.ID} {
		rec := a.do(t, request{method: http.MethodPost, path: "/cart", body: fmt.Sprintf(`{"product_id":%d}`, id), auth: userToken(t)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}
