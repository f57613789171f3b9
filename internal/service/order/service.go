// Package order оформляет заказы из корзины и ведёт их жизненный цикл.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
	"github.com/vladislavdragonenkov/storefront/internal/service/pricing"
)

const (
	tracerName = "github.com/vladislavdragonenkov/storefront/internal/service/order"

	// DefaultDeliveryDays — срок доставки, если способ доставки его не задаёт.
	DefaultDeliveryDays = 3
)

// Config — настройки сервиса заказов.
type Config struct {
	DefaultDeliveryDays int
	Retry               RetryConfig
}

// Service реализует оформление, просмотр, отмену и смену статуса заказов.
type Service struct {
	store   domain.Store
	ledger  *inventory.Ledger
	pricing *pricing.Engine
	metrics *metrics.CheckoutMetrics
	tracer  trace.Tracer
	logger  *log.Entry
	cfg     Config
	now     func() time.Time
}

// NewService создаёт сервис заказов. ledger, engine и metrics могут быть nil.
func NewService(
	store domain.Store,
	ledger *inventory.Ledger,
	engine *pricing.Engine,
	m *metrics.CheckoutMetrics,
	logger *log.Entry,
	cfg Config,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	if ledger == nil {
		ledger = inventory.NewLedger()
	}
	if engine == nil {
		engine = pricing.NewEngine()
	}
	if cfg.DefaultDeliveryDays <= 0 {
		cfg.DefaultDeliveryDays = DefaultDeliveryDays
	}
	cfg.Retry = cfg.Retry.normalized()

	return &Service{
		store:   store,
		ledger:  ledger,
		pricing: engine,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// record добавляет запись в timeline и событие в outbox в рамках транзакции заказа.
func (s *Service) record(tx domain.Tx, order domain.Order, eventType string, previous domain.OrderStatus, actor, reason string) error {
	at := s.now()

	if err := tx.Timeline().Append(domain.TimelineEvent{
		OrderID:  order.ID,
		Type:     eventType,
		Status:   order.Status,
		Actor:    actor,
		Reason:   reason,
		Occurred: at,
	}); err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}

	payload, err := json.Marshal(domain.NewOrderEvent(eventType, order, previous, actor, reason, at))
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if _, err := tx.Outbox().Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	return nil
}
