package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット（必須）

	RedisAddr     string // カートキャッシュ
	RedisPassword string
	RedisDB       int

	AMQPURL           string // 空ならメール通知はログ出力のみ
	NotificationQueue string

	PaymentAPIURL        string
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentTimeout       time.Duration
	Currency             string

	CatalogPageSize int
	InvoiceDir      string
	InvoiceFont     string // UTF-8 TrueType フォントのパス。空なら Helvetica
	PublicBaseURL   string // 決済後の戻り先URLの組み立てに使う
}

// Loadは環境変数（.env 含む）から設定を読む
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := Config{
		Port: v.GetString("PORT"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		JWTSecret: v.GetString("JWT_SECRET"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AMQPURL:           v.GetString("AMQP_URL"),
		NotificationQueue: v.GetString("NOTIFICATION_QUEUE"),

		PaymentAPIURL:        v.GetString("PAYMENT_API_URL"),
		PaymentSecretKey:     v.GetString("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),
		PaymentTimeout:       v.GetDuration("PAYMENT_TIMEOUT"),
		Currency:             strings.ToLower(v.GetString("CURRENCY")),

		CatalogPageSize: v.GetInt("CATALOG_PAGE_SIZE"),
		InvoiceDir:      v.GetString("INVOICE_DIR"),
		InvoiceFont:     v.GetString("INVOICE_FONT"),
		PublicBaseURL:   strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentAPIURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_API_URL is required")
	}
	if cfg.PaymentWebhookSecret == "" {
		return Config{}, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.CatalogPageSize < 1 {
		return Config{}, fmt.Errorf("CATALOG_PAGE_SIZE must be >= 1")
	}
	if cfg.PaymentTimeout <= 0 {
		return Config{}, fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "shop")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFICATION_QUEUE", "notifications")
	v.SetDefault("PAYMENT_TIMEOUT", "10s")
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("CATALOG_PAGE_SIZE", 2)
	v.SetDefault("INVOICE_DIR", "data/invoices")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
}
