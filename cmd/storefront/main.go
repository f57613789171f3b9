// Command storefront запускает HTTP API корзины и заказов.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// setupLogger настраивает формат и уровень логирования по STOREFRONT_LOG_LEVEL и STOREFRONT_LOG_FORMAT.
func setupLogger(lookup func(string) string) {
	if strings.EqualFold(strings.TrimSpace(lookup("STOREFRONT_LOG_FORMAT")), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level := log.InfoLevel
	if raw := strings.TrimSpace(lookup("STOREFRONT_LOG_LEVEL")); raw != "" {
		parsed, err := log.ParseLevel(raw)
		if err != nil {
			log.WithError(err).Warn("unknown log level, using info")
		} else {
			level = parsed
		}
	}
	log.SetLevel(level)
}

func main() {
	if err := app.LoadDotEnv(); err != nil {
		log.WithError(err).Warn("failed to load .env")
	}
	setupLogger(os.Getenv)

	cfg, err := app.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"version":      version.String(),
	}).Info("starting storefront")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("storefront stopped with error")
	}

	log.Info("storefront stopped")
}
