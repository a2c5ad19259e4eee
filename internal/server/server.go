package server

import (
	"log/slog"

	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/metrics"
	"shop/internal/middleware"
	"shop/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Handlers はルートを持つハンドラ一式。
type Handlers struct {
	Products      *handler.ProductHandler
	AdminProducts *handler.AdminProductHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Orders        *handler.OrderHandler
	AuditLogs     *handler.AdminAuditLogHandler
}

// New は共通ミドルウェアとルートを設定した echo を返す。
func New(cfg config.Config, logger *slog.Logger, reg *prometheus.Registry, sm *metrics.ServerMetrics, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewEchoValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if sm != nil {
		e.Use(sm.Middleware())
	}

	RegisterRoutes(e, cfg, reg, h)
	return e
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, reg *prometheus.Registry, h Handlers) {
	auth := middleware.AuthJWT(cfg)

	e.GET("/health", handler.Health)
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}

	h.Products.RegisterRoutes(e)
	h.AdminProducts.RegisterRoutes(e, auth)
	h.Cart.RegisterRoutes(e, auth)
	h.Checkout.RegisterRoutes(e, auth)
	h.Orders.RegisterRoutes(e, auth)
	h.AuditLogs.RegisterRoutes(e, auth)
}
