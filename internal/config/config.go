package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	MetricsAddr string

	PostgresDriver string
	PostgresDSN    string
	RedisAddr      string

	KafkaBrokers        []string
	KafkaPurchasesTopic string
	KafkaDownloadsTopic string
	KafkaGroupID        string

	JWTSecret string
	JWTTTL    time.Duration

	PaymentAPIURL        string
	PaymentAPIKey        string
	PaymentWebhookSecret string
	PaymentTimeout       time.Duration
	PaymentRetries       int
	PaymentCurrency      string
	PublicBaseURL        string

	VerifyWait         time.Duration
	VerifyPollInterval time.Duration
	PurchaseLockTTL    time.Duration
	PurchaseLockWait   time.Duration
	BookCacheTTL       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		PostgresDriver: getEnv("POSTGRES_DRIVER", "postgres"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=bookstore sslmode=disable"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:        splitList(getEnv("KAFKA_BROKER", "localhost:9092")),
		KafkaPurchasesTopic: getEnv("KAFKA_PURCHASES_TOPIC", "purchases"),
		KafkaDownloadsTopic: getEnv("KAFKA_DOWNLOADS_TOPIC", "downloads"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "bookstore-usage"),

		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		PaymentAPIURL:        getEnv("PAYMENT_API_URL", "https://api.stripe.com"),
		PaymentAPIKey:        os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentTimeout:       getPositiveDuration("PAYMENT_TIMEOUT", 10*time.Second),
		PaymentRetries:       getInt("PAYMENT_RETRIES", 2),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		VerifyWait:         getDuration("VERIFY_WAIT", 2*time.Second),
		VerifyPollInterval: getPositiveDuration("VERIFY_POLL_INTERVAL", 200*time.Millisecond),
		PurchaseLockTTL:    getPositiveDuration("PURCHASE_LOCK_TTL", 30*time.Second),
		PurchaseLockWait:   getDuration("PURCHASE_LOCK_WAIT", 5*time.Second),
		BookCacheTTL:       getDuration("BOOK_CACHE_TTL", time.Hour),
	}

	if cfg.PaymentAPIKey == "" {
		slog.Warn("payment processor API key is not set")
	}
	if cfg.PaymentWebhookSecret == "" {
		slog.Error("PAYMENT_WEBHOOK_SECRET is not set; payment notifications cannot be verified")
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"postgres_driver", cfg.PostgresDriver,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"payment_api_url", cfg.PaymentAPIURL,
		"verify_wait", cfg.VerifyWait,
	)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getPositiveDuration(key string, fallback time.Duration) time.Duration {
	d := getDuration(key, fallback)
	if d <= 0 {
		slog.Warn("duration must be positive, using default", "key", key, "value", d, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
