// Package app собирает storefront из конфигурации и управляет жизненным циклом процесса.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/observability"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const serviceName = "storefront"

// App — собранный процесс: HTTP API, служебный gRPC, метрики и фоновые воркеры.
type App struct {
	cfg    Config
	logger *log.Entry

	deps          *runtimeDependencies
	producer      *kafka.Producer
	shutdownTrace observability.ShutdownFunc

	health     *healthcheck.Handler
	httpSrv    *http.Server
	metricsSrv *http.Server
	grpc       *grpcOps

	httpLis    net.Listener
	grpcLis    net.Listener
	metricsLis net.Listener

	outbox  *outbox.Worker
	cleanup *idempotency.CleanupWorker
}

// New проверяет конфигурацию, открывает хранилище и занимает порты.
// Ресурсы освобождаются в Run; при ошибке New освобождает их сам.
func New(ctx context.Context, cfg Config, logger *log.Entry) (_ *App, err error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.shutdownTrace, err = observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SampleRatio:    cfg.TracingSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	a.deps, err = initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return nil, err
	}

	registerer := prometheus.DefaultRegisterer
	checkoutMetrics := metrics.NewCheckoutMetricsWithRegisterer(registerer)
	engine := pricing.NewEngine()

	carts := cart.NewService(a.deps.store, engine, checkoutMetrics, logger.WithField("component", "cart"))
	orders := order.NewService(a.deps.store, inventory.NewLedger(), engine, checkoutMetrics,
		logger.WithField("component", "order"),
		order.Config{DefaultDeliveryDays: cfg.DefaultDeliveryDays, Retry: order.DefaultRetryConfig()},
	)

	apiCfg := httpapi.Config{CORSOrigins: cfg.CORSOrigins, IdempotencyTTL: cfg.IdempotencyTTL}
	handler := httpapi.NewHandler(carts, orders, a.deps.idempotencyRepo, apiCfg, logger.WithField("component", "http"))
	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(handler, httpapi.NewAuthenticator(cfg.JWTSecret, cfg.JWTAdminRole), apiCfg)
	a.httpSrv = newHTTPServer(router)

	a.health = healthcheck.NewHandler(version.GetVersion())
	if a.deps.ping != nil {
		a.health.RegisterChecker("storage", healthcheck.NewPingChecker("storage", a.deps.ping))
	}
	a.metricsSrv = newMetricsServer(prometheus.DefaultGatherer, a.health)
	a.grpc = newGRPCServer(registerer, logger.WithField("layer", "grpc"))

	a.producer, err = initKafkaProducer(cfg, logger.WithField("component", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		a.producer = nil
	}
	a.outbox = a.newOutboxWorker(registerer)
	a.cleanup = idempotency.NewCleanupWorker(a.deps.idempotencyRepo,
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithMetrics(metrics.NewCleanupMetrics(registerer)),
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
	)

	if a.httpLis, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		return nil, fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	if a.grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}
	if a.metricsLis, err = net.Listen("tcp", cfg.MetricsAddr); err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
	}
	return a, nil
}

func (a *App) newOutboxWorker(registerer prometheus.Registerer) *outbox.Worker {
	opts := []outbox.Option{
		outbox.WithPollInterval(a.cfg.OutboxPollInterval),
		outbox.WithBatchSize(a.cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(a.cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(a.cfg.OutboxRetryDelay),
		outbox.WithMetrics(metrics.NewOutboxMetrics(registerer)),
		outbox.WithLogger(a.logger.WithField("component", "outbox-worker")),
	}
	if a.producer == nil {
		return outbox.NewWorker(a.deps.outboxRepo, nil, opts...)
	}
	if a.cfg.KafkaDLQTopic != "" {
		opts = append(opts, outbox.WithDLQPublisher(kafka.NewOutboxPublisher(a.producer, a.cfg.KafkaDLQTopic)))
	}
	return outbox.NewWorker(a.deps.outboxRepo, kafka.NewOutboxPublisher(a.producer, a.cfg.KafkaTopic), opts...)
}

// HTTPAddr возвращает фактический адрес API (полезно при порте 0).
func (a *App) HTTPAddr() string { return a.httpLis.Addr().String() }

// GRPCAddr возвращает фактический адрес служебного gRPC.
func (a *App) GRPCAddr() string { return a.grpcLis.Addr().String() }

// MetricsAddr возвращает фактический адрес /metrics и health probes.
func (a *App) MetricsAddr() string { return a.metricsLis.Addr().String() }

// Run обслуживает запросы до отмены ctx или ошибки любого сервера и
// затем останавливает всё в обратном порядке. При отмене ctx возвращает ctx.Err().
func (a *App) Run(ctx context.Context) error {
	defer a.release()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("addr", a.HTTPAddr()).Info("http api listening")
		return serveHTTP(a.httpSrv, a.httpLis)
	})
	g.Go(func() error {
		a.logger.WithField("addr", a.GRPCAddr()).Info("grpc ops server listening")
		return a.grpc.server.Serve(a.grpcLis)
	})
	g.Go(func() error {
		a.logger.WithField("addr", a.MetricsAddr()).Info("metrics and health probes listening")
		return serveHTTP(a.metricsSrv, a.metricsLis)
	})
	g.Go(func() error { return a.outbox.Run(gctx) })
	g.Go(func() error { return a.cleanup.Run(gctx) })

	a.health.SetReady(true)

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		a.health.SetReady(false)
		shutdownHTTP(a.httpSrv, a.cfg.ShutdownTimeout, a.logger)
		a.grpc.stop(a.cfg.ShutdownTimeout, a.logger)
		shutdownHTTP(a.metricsSrv, a.cfg.ShutdownTimeout, a.logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// release закрывает producer, хранилище и экспорт трейсов.
func (a *App) release() {
	for _, lis := range []net.Listener{a.httpLis, a.grpcLis, a.metricsLis} {
		if lis != nil {
			_ = lis.Close()
		}
	}
	closeKafka(a.producer, a.logger)
	a.producer = nil
	if a.deps != nil && a.deps.close != nil {
		if err := a.deps.close(); err != nil {
			a.logger.WithError(err).Warn("failed to close storage")
		}
		a.deps = nil
	}
	if a.shutdownTrace != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.shutdownTrace(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WithError(err).Warn("failed to flush traces")
		}
		a.shutdownTrace = nil
	}
}

// Run собирает приложение и запускает его до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
