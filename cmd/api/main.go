package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/infra/cache"
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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	//.env は無くてもよい（環境変数を優先）
	if err := godotenv.Load(); err != nil {
		logger.Info(".env not loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("connect db", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	//カートキャッシュ（無くても動く）
	var cartCache cache.CartCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		cartCache = cache.NewRedisCache(rdb)
	}

	//通知（AMQP_URL が無ければログだけ）
	var notifier usecase.Notifier = notify.NewLogNotifier(logger)
	if cfg.AMQPURL != "" {
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.NotificationQueue)
		if err != nil {
			logger.Warn("amqp unavailable, falling back to log notifier", "error", err)
		} else {
			defer n.Close()
			notifier = n
		}
	}

	docs, err := storage.NewOSDocumentStore(cfg.InvoiceDir)
	if err != nil {
		logger.Error("document store", "error", err)
		os.Exit(1)
	}

	renderer := invoice.NewPDFRenderer()
	if cfg.InvoiceFont != "" {
		ttf, err := os.ReadFile(cfg.InvoiceFont)
		if err != nil {
			logger.Error("invoice font", "path", cfg.InvoiceFont, "error", err)
			os.Exit(1)
		}
		renderer = invoice.NewPDFRendererWithFont(ttf)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	//Repository（GORM実装）生成
	products := infraRepo.NewProductGormRepository(gormDB)
	carts := infraRepo.NewCartGormRepository(gormDB)
	orders := infraRepo.NewOrderGormRepository(gormDB)
	tx := infraRepo.NewTxManagerGorm(gormDB)

	gateway := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, cfg.PaymentTimeout)

	//Usecase生成
	productUC := usecase.NewProductUsecase(tx, products, validator.NewProductValidator(), cfg.CatalogPageSize)
	cartUC := usecase.NewCartUsecase(carts, products, cartCache)
	checkoutUC := usecase.NewCheckoutUsecase(tx, orders, cartUC, gateway, notifier, checkoutMetrics, usecase.CheckoutConfig{
		Currency:      cfg.Currency,
		WebhookSecret: cfg.PaymentWebhookSecret,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	auditLogUC := usecase.NewAuditLogUsecase(infraRepo.NewAuditLogGormRepository(gormDB))
	invoiceUC := usecase.NewInvoiceUsecase(orders, renderer, docs)

	//Handler生成
	e := server.New(cfg, logger, reg, serverMetrics, server.Handlers{
		Products:      handler.NewProductHandler(productUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		Orders:        handler.NewOrderHandler(checkoutUC, invoiceUC),
		AuditLogs:     handler.NewAdminAuditLogHandler(auditLogUC),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("api listening", "port", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}

	//送信中の確認通知を待ってから通知先を閉じる（defer）
	if err := checkoutUC.Drain(shutdownCtx); err != nil {
		logger.Warn("pending notifications not finished", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped")
}
