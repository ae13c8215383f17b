package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "KAFKA_BROKER", "VERIFY_WAIT", "PAYMENT_CURRENCY", "POSTGRES_DRIVER"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.PostgresDriver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.VerifyWait)
	assert.Equal(t, 200*time.Millisecond, cfg.VerifyPollInterval)
	assert.Equal(t, "usd", cfg.PaymentCurrency)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "k1:9092, k2:9092,")
	t.Setenv("VERIFY_WAIT", "5s")
	t.Setenv("PURCHASE_LOCK_TTL", "not-a-duration")
	t.Setenv("PAYMENT_CURRENCY", "EUR")
	t.Setenv("PAYMENT_RETRIES", "4")
	t.Setenv("PUBLIC_BASE_URL", "https://books.example.com/")
	t.Setenv("POSTGRES_DRIVER", "pgx")
	t.Setenv("VERIFY_POLL_INTERVAL", "0s")
	t.Setenv("PAYMENT_TIMEOUT", "-1s")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.VerifyWait)
	assert.Equal(t, 30*time.Second, cfg.PurchaseLockTTL)
	assert.Equal(t, "eur", cfg.PaymentCurrency)
	assert.Equal(t, 4, cfg.PaymentRetries)
	assert.Equal(t, "https://books.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "pgx", cfg.PostgresDriver)
	assert.Equal(t, 200*time.Millisecond, cfg.VerifyPollInterval)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
}
