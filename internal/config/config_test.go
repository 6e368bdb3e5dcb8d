package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "JWT_SECRET", "SESSION_TTL", "SHIPPING_FEE", "KAFKA_BROKERS", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Auth.UsesDefaultSecret())
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, "5.99", cfg.Shop.ShippingFee.StringFixed(2))
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SHIPPING_FEE", "4.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example/")
	t.Setenv("ENV", "production")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, "4.50", cfg.Shop.ShippingFee.StringFixed(2))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://shop.example", cfg.Auth.PublicBaseURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("SHIPPING_FEE", "-1")

	cfg := Load()

	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "5.99", cfg.Shop.ShippingFee.StringFixed(2))
}
