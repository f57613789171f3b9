// Package httpapi — HTTP/JSON транспорт корзины и заказов на gin.
package httpapi

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

// CartService — операции корзины, нужные транспорту.
type CartService interface {
	GetOrCreate(ctx context.Context, ownerID string) (cart.Snapshot, error)
	AddLine(ctx context.Context, ownerID, productID string, qty int32) (cart.Snapshot, error)
	UpdateLine(ctx context.Context, ownerID, lineID string, qty int32) (cart.Snapshot, error)
	RemoveLine(ctx context.Context, ownerID, lineID string) (cart.Snapshot, error)
	Clear(ctx context.Context, ownerID string) (cart.Snapshot, error)
	Count(ctx context.Context, ownerID string) (int32, error)
}

// OrderService — операции заказов, нужные транспорту.
type OrderService interface {
	PlaceOrder(ctx context.Context, caller domain.Caller, in order.PlaceOrderInput) (domain.Order, error)
	GetOrder(ctx context.Context, caller domain.Caller, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, caller domain.Caller, filter domain.OrderFilter) (domain.OrderPage, error)
	ListAllOrders(ctx context.Context, caller domain.Caller, filter domain.OrderFilter) (domain.OrderPage, error)
	Cancel(ctx context.Context, caller domain.Caller, orderID string) (domain.Order, error)
	AdminUpdateStatus(ctx context.Context, caller domain.Caller, orderID, status string, expectedDelivery *time.Time) (domain.Order, error)
	Timeline(ctx context.Context, caller domain.Caller, orderID string) ([]domain.TimelineEvent, error)
}

// Config — параметры роутера.
type Config struct {
	// CORSOrigins — разрешённые источники; пусто — CORS не включается.
	CORSOrigins    []string
	IdempotencyTTL time.Duration
}

// Handler связывает HTTP-маршруты с сервисами.
type Handler struct {
	carts       CartService
	orders      OrderService
	idempotency domain.IdempotencyRepository
	idemTTL     time.Duration
	logger      *log.Entry
}

// NewHandler создаёт обработчики. idempotency может быть nil — тогда
// заголовок Idempotency-Key игнорируется.
func NewHandler(carts CartService, orders OrderService, idempotency domain.IdempotencyRepository, cfg Config, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &Handler{
		carts:       carts,
		orders:      orders,
		idempotency: idempotency,
		idemTTL:     ttl,
		logger:      logger,
	}
}

// NewRouter собирает gin.Engine с маршрутами /api/v1.
func NewRouter(h *Handler, auth *Authenticator, cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	}

	api := r.Group("/api/v1")
	api.Use(auth.Middleware())
	{
		carts := api.Group("/cart")
		carts.GET("", h.getCart)
		carts.DELETE("", h.clearCart)
		carts.GET("/count", h.countCart)
		carts.POST("/items", h.addCartItem)
		carts.PUT("/items/:line_id", h.updateCartItem)
		carts.DELETE("/items/:line_id", h.removeCartItem)

		orders := api.Group("/orders")
		orders.POST("", h.placeOrder)
		orders.GET("", h.listMyOrders)
		orders.GET("/:id", h.getOrder)
		orders.GET("/:id/timeline", h.orderTimeline)
		orders.PUT("/:id/cancel", h.cancelOrder)

		admin := api.Group("/admin/orders")
		admin.GET("", h.listAllOrders)
		admin.PUT("/:id/status", h.updateOrderStatus)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyKeyHeader},
		ExposeHeaders: []string{"Content-Length", idempotentReplayHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
