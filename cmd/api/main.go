package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"pixvip/api/internal/config"
	"pixvip/api/internal/credcache"
	"pixvip/api/internal/db"
	"pixvip/api/internal/gateway"
	"pixvip/api/internal/httpapi"
	"pixvip/api/internal/logger"
	"pixvip/api/internal/metrics"
	"pixvip/api/internal/pagarme"
	"pixvip/api/internal/repository"
	"pixvip/api/internal/syncpay"
	"pixvip/api/internal/vip"
)

func main() {
	// Load .env file if it exists (ignores error if file is absent)
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	database, err := db.OpenAndMigrate(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		logger.Fatalf("erro ao abrir banco de dados: %v", err)
	}
	defer database.Close()

	gw, closeGateway, err := newGateway(cfg)
	if err != nil {
		logger.Fatalf("erro ao configurar gateway: %v", err)
	}
	defer closeGateway()

	opts, err := serviceOptions(cfg)
	if err != nil {
		logger.Fatalf("configuração inválida: %v", err)
	}

	m := metrics.New()
	svc := vip.NewService(repository.NewStore(database), gw, opts, m)
	api := httpapi.NewHandler(svc, m, cfg.BotJWTSecret)

	if cfg.BotJWTSecret == "" {
		logger.Warnf("BOT_JWT_SECRET não definido: validação de token sem autenticação do bot")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Infof("servidor escutando em %s (gateway=%s, banco=%s)", addr, gw.Name(), database.Driver)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("erro no servidor: %v", err)
		}
	}()

	var adminServer *http.Server
	if cfg.MetricsAddr != "" {
		if cfg.MetricsUser == "" {
			logger.Warnf("METRICS_USER não definido: /metrics sem autenticação em %s", cfg.MetricsAddr)
		}
		adminServer = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      api.AdminHandler(cfg.MetricsUser, cfg.MetricsPassword),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		logger.Infof("métricas em %s%s", cfg.MetricsAddr, httpapi.RouteMetrics)
		go func() {
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("erro no servidor de métricas: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("encerrando...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if adminServer != nil {
		if err := adminServer.Shutdown(ctx); err != nil {
			logger.Errorf("erro ao encerrar servidor de métricas: %v", err)
		}
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatalf("erro ao encerrar servidor: %v", err)
	}
	logger.Infof("servidor parado")
}

func newGateway(cfg *config.Config) (gateway.Gateway, func(), error) {
	noop := func() {}
	switch cfg.PaymentGateway {
	case "pagarme":
		if cfg.PagarmeAPIKey == "" {
			return nil, noop, fmt.Errorf("PAGARME_API_KEY é obrigatório para o gateway pagarme")
		}
		if cfg.PagarmeRecipientID == "" {
			logger.Warnf("PAGARME_RECIPIENT_ID não definido: cobranças com split serão recusadas")
		}
		client := pagarme.NewClient(cfg.PagarmeBaseURL, cfg.PagarmeAPIKey, cfg.PagarmeWebhookSecret).
			WithRecipient(cfg.PagarmeRecipientID)
		return client, noop, nil
	case "sync", "":
		if cfg.SyncClientID == "" || cfg.SyncClientSecret == "" {
			return nil, noop, fmt.Errorf("SYNC_CLIENT_ID e SYNC_CLIENT_SECRET são obrigatórios para o gateway sync")
		}
		var cache credcache.Cache = credcache.NewMemory()
		closeFn := noop
		if cfg.RedisURL != "" {
			rc, err := credcache.NewRedisFromURL(cfg.RedisURL, "pixvip:")
			if err != nil {
				return nil, noop, err
			}
			cache = rc
			closeFn = func() { rc.Close() }
			logger.Infof("credencial da Sync compartilhada via Redis")
		}
		if cfg.SyncWebhookSecret == "" {
			logger.Warnf("SYNC_WEBHOOK_SECRET não definido: webhooks aceitos sem assinatura")
		}
		return syncpay.NewClient(cfg.SyncBaseURL, cfg.SyncClientID, cfg.SyncClientSecret, cfg.SyncWebhookSecret, cache), closeFn, nil
	default:
		return nil, noop, fmt.Errorf("gateway desconhecido: %q", cfg.PaymentGateway)
	}
}

func serviceOptions(cfg *config.Config) (vip.Options, error) {
	opts := vip.DefaultOptions()
	minAmount, err := decimal.NewFromString(cfg.PixMinAmount)
	if err != nil {
		return opts, fmt.Errorf("PIX_MIN_AMOUNT: %w", err)
	}
	maxAmount, err := decimal.NewFromString(cfg.PixMaxAmount)
	if err != nil {
		return opts, fmt.Errorf("PIX_MAX_AMOUNT: %w", err)
	}
	defAmount, err := decimal.NewFromString(cfg.PixDefaultAmount)
	if err != nil {
		return opts, fmt.Errorf("PIX_DEFAULT_AMOUNT: %w", err)
	}
	if maxAmount.IsPositive() && maxAmount.LessThan(minAmount) {
		return opts, fmt.Errorf("PIX_MAX_AMOUNT (%s) menor que PIX_MIN_AMOUNT (%s)", maxAmount, minAmount)
	}
	opts.MinAmount = minAmount
	opts.MaxAmount = maxAmount
	opts.DefaultAmount = defAmount
	opts.CallbackURL = cfg.BaseURL + httpapi.RouteWebhook
	opts.DiscordLink = cfg.DiscordLink
	return opts, nil
}
