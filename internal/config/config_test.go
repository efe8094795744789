package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BASE_URL", "DATABASE_DRIVER", "DATABASE_URL", "PAYMENT_GATEWAY", "PIX_MIN_AMOUNT", "PIX_MAX_AMOUNT", "CORS_ORIGINS", "METRICS_ADDR", "PAGARME_RECIPIENT_ID"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "sync", cfg.PaymentGateway)
	assert.Equal(t, "50", cfg.PixMinAmount)
	assert.Equal(t, "150", cfg.PixDefaultAmount)
	assert.Equal(t, "100000", cfg.PixMaxAmount)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	assert.Empty(t, cfg.PagarmeRecipientID)
	assert.Equal(t, cfg.DBPath, cfg.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://vip.example.com/")
	t.Setenv("DATABASE_DRIVER", "PGX")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/vip")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PIX_MAX_AMOUNT", "5000")
	t.Setenv("PAGARME_RECIPIENT_ID", "rp_platform")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg := Load()
	assert.Equal(t, "5000", cfg.PixMaxAmount)
	assert.Equal(t, "rp_platform", cfg.PagarmeRecipientID)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://vip.example.com", cfg.BaseURL)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://u:p@localhost/vip", cfg.DSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PORT", "eighty")
	assert.Equal(t, 8080, Load().Port)
}
