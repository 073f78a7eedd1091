package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     string
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Mail     MailConfig
	Gateways GatewaysConfig
	Uploads  UploadConfig
	Pricing  PricingConfig
}

type DatabaseConfig struct {
	// Driver is mysql, postgres or memory.
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ProductTTL time.Duration
	OrdersTTL  time.Duration
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type AuthConfig struct {
	JWTSecret     string
	ResetTokenTTL time.Duration
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Workers  int
	Buffer   int
}

type GatewayConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type GatewaysConfig struct {
	Timeout time.Duration
	Pix     GatewayConfig
	Card    GatewayConfig
	Boleto  GatewayConfig
	Wallet  GatewayConfig
}

type UploadConfig struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

type PricingConfig struct {
	ShippingFlatRate decimal.Decimal
	TaxRate          decimal.Decimal
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	shipping, err := getDecimalEnv("SHIPPING_FLAT_RATE", "0")
	if err != nil {
		return nil, err
	}
	taxRate, err := getDecimalEnv("TAX_RATE", "0")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "3306"),
			User:            getEnv("DB_USER", "app_user"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "commerce"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 20),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", time.Minute),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			ProductTTL: getDurationEnv("REDIS_PRODUCT_TTL", 5*time.Minute),
			OrdersTTL:  getDurationEnv("REDIS_ORDERS_TTL", 10*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "order.exchange"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			ResetTokenTTL: getDurationEnv("RESET_TOKEN_TTL", 30*time.Minute),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "no-reply@localhost"),
			Workers:  getEnvAsInt("MAIL_WORKERS", 4),
			Buffer:   getEnvAsInt("MAIL_BUFFER", 256),
		},
		Gateways: GatewaysConfig{
			Timeout: getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
			Pix:     gatewayFromEnv("PIX"),
			Card:    gatewayFromEnv("CARD"),
			Boleto:  gatewayFromEnv("BOLETO"),
			Wallet:  gatewayFromEnv("WALLET"),
		},
		Uploads: UploadConfig{
			Dir:       getEnv("UPLOAD_DIR", "./public/uploads"),
			PublicURL: strings.TrimRight(getEnv("UPLOAD_PUBLIC_URL", "/public/uploads"), "/"),
			MaxBytes:  int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Pricing: PricingConfig{
			ShippingFlatRate: shipping,
			TaxRate:          taxRate,
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func gatewayFromEnv(prefix string) GatewayConfig {
	return GatewayConfig{
		BaseURL:       getEnv(prefix+"_GATEWAY_URL", ""),
		APIKey:        getEnv(prefix+"_GATEWAY_API_KEY", ""),
		WebhookSecret: getEnv(prefix+"_WEBHOOK_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go duration strings such as "30s" or "5m".
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDecimalEnv(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
