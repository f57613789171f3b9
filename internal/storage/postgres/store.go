package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	// opTimeout ограничивает одиночные запросы воркеров вне транзакций.
	opTimeout = 5 * time.Second
	// txTimeout применяется к транзакции, если у контекста нет дедлайна.
	txTimeout = 10 * time.Second
)

var errStoreNotInitialized = errors.New("postgres store is not initialized")

// Store оборачивает SQL-подключение к PostgreSQL и реализует domain.Store.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения (используется readiness-проверкой).
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithinTx открывает транзакцию, выполняет fn и фиксирует изменения.
// Любая ошибка fn откатывает транзакцию целиком.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, nil, false, fn)
}

// View выполняет fn в транзакции только для чтения, без блокировок строк.
func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, true, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, readOnly bool, fn func(tx domain.Tx) error) (err error) {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txTimeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&pgTx{ctx: ctx, tx: sqlTx, readOnly: readOnly}); err != nil {
		return classify(err)
	}
	if err = sqlTx.Commit(); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// pgTx реализует domain.Tx поверх *sql.Tx.
type pgTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

// forUpdate возвращает блокировку строки для пишущих транзакций.
// В read-only транзакции PostgreSQL запрещает SELECT ... FOR UPDATE.
func (t *pgTx) forUpdate() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func (t *pgTx) Products() domain.ProductRepository         { return productRepository{t} }
func (t *pgTx) Carts() domain.CartRepository               { return cartRepository{t} }
func (t *pgTx) Orders() domain.OrderRepository             { return orderRepository{t} }
func (t *pgTx) Coupons() domain.CouponRepository           { return couponRepository{t} }
func (t *pgTx) ShippingMethods() domain.ShippingRepository { return shippingRepository{t} }
func (t *pgTx) Timeline() domain.TimelineRepository        { return timelineRepository{t} }
func (t *pgTx) Outbox() domain.OutboxWriter                { return outboxWriter{t} }

// classify переводит ошибки сериализации и взаимоблокировки в конфликт версий,
// чтобы сервис повторил операцию.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) && !domain.IsVersionConflict(err) {
		return fmt.Errorf("%w: %w", domain.ErrOrderVersionConflict, err)
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isRetryable — serialization_failure и deadlock_detected.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case "40001", "40P01":
		return true
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*pgTx)(nil)
)
