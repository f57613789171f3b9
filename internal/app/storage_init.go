package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies — хранилище и репозитории, выбранные по StorageDriver.
type runtimeDependencies struct {
	store           domain.Store
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	// ping пуст для in-memory хранилища.
	ping  func(ctx context.Context) error
	close func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		store := memory.NewStore()
		if cfg.SeedDemoCatalog {
			seedDemoCatalog(store)
			logger.Info("in-memory catalog seeded with demo products")
		}
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			store:           store,
			outboxRepo:      store.Outbox(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
			close:           func() error { return nil },
		}, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn is required for storage driver %q", StorageDriverPostgres)
		}

		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			state, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithFields(log.Fields{
					"schema_version": state.Version,
					"applied":        state.Applied,
				}).Info("postgres schema is up to date")
			}
		}

		logger.Info("using postgres storage")
		return &runtimeDependencies{
			store:           store,
			outboxRepo:      postgres.NewOutboxRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			ping:            store.Ping,
			close:           store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// seedDemoCatalog заполняет каталог для локального запуска без внешнего каталога.
func seedDemoCatalog(store *memory.Store) {
	now := time.Now().UTC()
	store.PutProduct(domain.Product{
		ID: "p-coffee", Name: "Coffee beans 1kg", Status: domain.ProductStatusAvailable,
		PriceMinor: 2500, Stock: 50, UpdatedAt: now,
	})
	store.PutProduct(domain.Product{
		ID: "p-mug", Name: "Ceramic mug", Status: domain.ProductStatusAvailable,
		PriceMinor: 1200, PromoPriceMinor: domain.PromoPrice(900), Stock: 20, UpdatedAt: now,
	})
	store.PutProduct(domain.Product{
		ID: "p-grinder", Name: "Hand grinder", Status: domain.ProductStatusOutOfStock,
		PriceMinor: 7900, UpdatedAt: now,
	})
	store.PutShippingMethod(domain.ShippingMethod{ID: 1, Name: "Courier", FeeMinor: 500, DeliveryDays: 2})
	store.PutShippingMethod(domain.ShippingMethod{ID: 2, Name: "Pickup point", FeeMinor: 0, DeliveryDays: 4})
	store.PutCoupon(domain.Coupon{
		ID: "welcome10", Code: "WELCOME10", Kind: domain.DiscountPercent,
		Value: 10, Remaining: 1000, Status: domain.CouponStatusActive,
	})
}
