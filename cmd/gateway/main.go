package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smsdispatch/gateway/internal/gateway/app"
	"github.com/smsdispatch/gateway/internal/gateway/channel"
	"github.com/smsdispatch/gateway/internal/gateway/repository/postgres"
	transporthttp "github.com/smsdispatch/gateway/internal/gateway/transport/http"
	"github.com/smsdispatch/gateway/internal/platform/config"
	"github.com/smsdispatch/gateway/internal/platform/database"
	"github.com/smsdispatch/gateway/internal/platform/logger"
	"github.com/smsdispatch/gateway/internal/platform/messagebroker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("SMS gateway starting...", "log_level", cfg.LogLevel, "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, "sms-gateway", appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	channels, receiptCapable, webhookSecrets, err := buildChannels(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to build channels from configuration", "error", err)
		os.Exit(1)
	}
	if len(channels) == 0 {
		appLogger.Error("No channels configured; set APP_CHANNELS in the config file")
		os.Exit(1)
	}
	defaultChannel := cfg.DefaultChannel
	if defaultChannel == "" {
		for name := range channels {
			defaultChannel = name
			break
		}
		appLogger.Warn("No default channel configured; picked one arbitrarily", "channel", defaultChannel)
	}

	messageRepo := postgres.NewPgMessageRepository(dbPool)
	dispatchService := app.NewDispatchService(messageRepo, channels, defaultChannel, natsClient, appLogger)
	dlrProcessor := app.NewDLRProcessor(messageRepo, natsClient, appLogger)
	sweeper := app.NewReceiptSweeper(messageRepo, receiptCapable,
		time.Duration(cfg.ReceiptWaitTimeoutSec)*time.Second,
		time.Duration(cfg.ReceiptSweepIntervalSec)*time.Second,
		appLogger)

	router := transporthttp.NewRouter(
		transporthttp.NewMessageHandler(dispatchService, appLogger),
		transporthttp.NewDLRHandler(dlrProcessor, webhookSecrets, appLogger),
		transporthttp.NewHealthHandler(dispatchService, appLogger),
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("Shutdown signal received, draining HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Gateway exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("SMS gateway shut down successfully.")
}

// buildChannels turns channel settings into live channels keyed by provider
// name, along with the per-provider receipt capability and webhook secrets
// the DLR pipeline needs.
func buildChannels(cfg *config.Config, appLogger *slog.Logger) (map[string]channel.Channel, map[string]bool, map[string]string, error) {
	channels := make(map[string]channel.Channel, len(cfg.Channels))
	receiptCapable := make(map[string]bool, len(cfg.Channels))
	webhookSecrets := make(map[string]string)

	// One client shared across HTTP channels; per-attempt deadlines come
	// from each channel's TimeoutMs, not from here.
	httpClient := &http.Client{}

	for _, settings := range cfg.Channels {
		switch settings.Type {
		case "http", "":
			chCfg := channel.ChannelConfig{
				ProviderName:        settings.ProviderName,
				APIURL:              settings.APIURL,
				APIKey:              settings.APIKey,
				AuthorizationType:   channel.AuthorizationType(settings.AuthorizationType),
				APIKeyHeaderName:    settings.APIKeyHeaderName,
				FromNumber:          settings.FromNumber,
				RequestBodyTemplate: settings.RequestBodyTemplate,
				ContentType:         settings.ContentType,
				HealthCheckURL:      settings.HealthCheckURL,
				TimeoutMs:           settings.TimeoutMs,
				MaxRetryAttempts:    settings.MaxRetryAttempts,
				WebhookURL:          settings.WebhookURL,
				WebhookSecret:       settings.WebhookSecret,
			}
			ch, err := channel.NewHTTPChannel(chCfg, httpClient, appLogger)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("channel %q: %w", settings.ProviderName, err)
			}
			channels[settings.ProviderName] = ch
			receiptCapable[settings.ProviderName] = chCfg.SupportsReceipts()
			if settings.WebhookSecret != "" {
				webhookSecrets[settings.ProviderName] = settings.WebhookSecret
			}
		case "smpp":
			ch, err := channel.NewSMPPChannel(channel.SMPPConfig{
				ProviderName: settings.ProviderName,
				Addr:         settings.SMPPAddr,
				SystemID:     settings.SMPPSystemID,
				Password:     settings.SMPPPassword,
				SourceAddr:   settings.SMPPSource,
				TimeoutMs:    settings.TimeoutMs,
			}, appLogger)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("channel %q: %w", settings.ProviderName, err)
			}
			channels[settings.ProviderName] = ch
			// Receipts over SMPP would need a receiver bind; with a
			// transmitter only, sent messages age into assumed_delivered.
			receiptCapable[settings.ProviderName] = false
		default:
			return nil, nil, nil, fmt.Errorf("channel %q: unknown type %q", settings.ProviderName, settings.Type)
		}
		appLogger.Info("Channel configured",
			"provider", settings.ProviderName,
			"type", settings.Type,
			"receipt_capable", receiptCapable[settings.ProviderName])
	}
	return channels, receiptCapable, webhookSecrets, nil
}
