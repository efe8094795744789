package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	Port    int
	BaseURL string

	DatabaseDriver string // "sqlite" or "pgx"
	DatabaseURL    string
	DBPath         string

	PaymentGateway string // "sync" or "pagarme"

	SyncBaseURL       string
	SyncClientID      string
	SyncClientSecret  string
	SyncWebhookSecret string

	PagarmeBaseURL       string
	PagarmeAPIKey        string
	PagarmeWebhookSecret string
	PagarmeRecipientID   string // platform recipient, required for split charges

	PixMinAmount     string
	PixMaxAmount     string
	PixDefaultAmount string

	DiscordLink  string
	BotJWTSecret string

	RedisURL    string
	CORSOrigins []string
	LogLevel    string

	// MetricsAddr is the admin listener serving /metrics. Empty disables it.
	MetricsAddr     string
	MetricsUser     string
	MetricsPassword string
}

// Load reads configuration from the process environment. Call godotenv.Load
// beforehand to pick up a local .env file.
func Load() *Config {
	return &Config{
		Port:    getEnvInt("PORT", 8080),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBPath:         getEnv("DB_PATH", "data/pixvip.db"),

		PaymentGateway: strings.ToLower(getEnv("PAYMENT_GATEWAY", "sync")),

		SyncBaseURL:       strings.TrimRight(getEnv("SYNC_BASE_URL", "https://api.syncpayments.com.br"), "/"),
		SyncClientID:      os.Getenv("SYNC_CLIENT_ID"),
		SyncClientSecret:  os.Getenv("SYNC_CLIENT_SECRET"),
		SyncWebhookSecret: os.Getenv("SYNC_WEBHOOK_SECRET"),

		PagarmeBaseURL:       strings.TrimRight(getEnv("PAGARME_BASE_URL", "https://api.pagar.me/core/v5"), "/"),
		PagarmeAPIKey:        os.Getenv("PAGARME_API_KEY"),
		PagarmeWebhookSecret: os.Getenv("PAGARME_WEBHOOK_SECRET"),
		PagarmeRecipientID:   os.Getenv("PAGARME_RECIPIENT_ID"),

		PixMinAmount:     getEnv("PIX_MIN_AMOUNT", "50"),
		PixMaxAmount:     getEnv("PIX_MAX_AMOUNT", "100000"),
		PixDefaultAmount: getEnv("PIX_DEFAULT_AMOUNT", "150"),

		DiscordLink:  getEnv("DISCORD_LINK", "https://discord.gg/zbkNdVqYhf"),
		BotJWTSecret: os.Getenv("BOT_JWT_SECRET"),

		RedisURL:    os.Getenv("REDIS_URL"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MetricsAddr:     getEnv("METRICS_ADDR", "127.0.0.1:9090"),
		MetricsUser:     os.Getenv("METRICS_USER"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),
	}
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == "pgx" {
		return c.DatabaseURL
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
