package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const orderColumns = `id, owner_id, customer_name, phone, address, status, payment_method,
	shipping_method_id, coupon_id, subtotal_minor, shipping_fee_minor, discount_minor, total_minor,
	note, placed_at, expected_delivery, cancelled_at, updated_at, version`

var orderSortColumns = map[domain.OrderSortField]string{
	domain.SortByPlacedAt: "placed_at",
	domain.SortByTotal:    "total_minor",
	domain.SortByStatus:   "status",
}

type orderRepository struct {
	t *pgTx
}

func (r orderRepository) Create(order domain.Order) error {
	_, err := r.t.tx.ExecContext(r.t.ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		order.ID, order.OwnerID, order.Customer.Name, order.Customer.Phone, order.Customer.Address,
		string(order.Status), order.PaymentMethod, nullInt64(order.ShippingMethodID), nullString(order.CouponID),
		order.SubtotalMinor, order.ShippingFeeMinor, order.DiscountMinor, order.TotalMinor,
		order.Note, order.PlacedAt, nullTime(order.ExpectedDelivery), nullTime(order.CancelledAt),
		order.UpdatedAt, order.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range order.Lines {
		if _, err := r.t.tx.ExecContext(r.t.ctx, `
			INSERT INTO order_lines (
				id, order_id, position, product_id, product_name, qty, unit_price_minor
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID, order.ID, i, line.ProductID, line.ProductName, line.Qty, line.UnitPriceMinor,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return nil
}

// Get читает заказ и блокирует строку до конца пишущей транзакции.
func (r orderRepository) Get(id string) (domain.Order, error) {
	row := r.t.tx.QueryRowContext(r.t.ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`+r.t.forUpdate(), id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines([]string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines[order.ID]
	return order, nil
}

// Save обновляет изменяемые поля заказа при совпадении версии.
func (r orderRepository) Save(order domain.Order) error {
	res, err := r.t.tx.ExecContext(r.t.ctx, `
		UPDATE orders
		SET status = $1,
		    expected_delivery = $2,
		    cancelled_at = $3,
		    note = $4,
		    updated_at = $5,
		    version = version + 1
		WHERE id = $6
		  AND version = $7
	`,
		string(order.Status),
		nullTime(order.ExpectedDelivery),
		nullTime(order.CancelledAt),
		order.Note,
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.t.tx.QueryRowContext(r.t.ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return domain.ErrOrderVersionConflict
}

// List строит запрос по фильтру: общее количество и одна страница с позициями.
func (r orderRepository) List(filter domain.OrderFilter) (domain.OrderPage, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return domain.OrderPage{}, err
	}

	where, args := orderWhere(filter)

	page := domain.OrderPage{Page: filter.Page, PageSize: filter.PageSize, Orders: []domain.Order{}}
	if err := r.t.tx.QueryRowContext(r.t.ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&page.Total); err != nil {
		return domain.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}
	if page.Total == 0 || filter.Offset() >= page.Total {
		return page, nil
	}

	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s, placed_at %s, id %s", orderSortColumns[filter.SortBy], dir, dir, dir)
	limit := fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, filter.Offset())

	rows, err := r.t.tx.QueryContext(r.t.ctx, `SELECT `+orderColumns+` FROM orders`+where+order+limit, args...)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, filter.PageSize)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return domain.OrderPage{}, fmt.Errorf("scan order row: %w", err)
		}
		page.Orders = append(page.Orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderPage{}, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	lines, err := r.loadLines(ids)
	if err != nil {
		return domain.OrderPage{}, err
	}
	for i := range page.Orders {
		page.Orders[i].Lines = lines[page.Orders[i].ID]
	}
	return page, nil
}

func orderWhere(f domain.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OwnerID != "" {
		conds = append(conds, "owner_id = "+next(f.OwnerID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+next(string(f.Status)))
	}
	if !f.From.IsZero() {
		conds = append(conds, "placed_at >= "+next(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "placed_at <= "+next(f.To))
	}
	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		conds = append(conds, "(customer_name ILIKE "+p+" OR phone LIKE "+p+" OR id LIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r orderRepository) loadLines(orderIDs []string) (map[string][]domain.OrderLine, error) {
	result := make(map[string][]domain.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := r.t.tx.QueryContext(r.t.ctx, `
		SELECT id, order_id, product_id, product_name, qty, unit_price_minor
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position ASC
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Qty, &line.UnitPriceMinor); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		result[line.OrderID] = append(result[line.OrderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return result, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o          domain.Order
		status     string
		shippingID sql.NullInt64
		couponID   sql.NullString
		expected   sql.NullTime
		cancelled  sql.NullTime
	)
	if err := row.Scan(
		&o.ID, &o.OwnerID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address, &status, &o.PaymentMethod,
		&shippingID, &couponID, &o.SubtotalMinor, &o.ShippingFeeMinor, &o.DiscountMinor, &o.TotalMinor,
		&o.Note, &o.PlacedAt, &expected, &cancelled, &o.UpdatedAt, &o.Version,
	); err != nil {
		return domain.Order{}, err
	}

	o.Status = domain.OrderStatus(status)
	if shippingID.Valid {
		v := shippingID.Int64
		o.ShippingMethodID = &v
	}
	if couponID.Valid {
		v := couponID.String
		o.CouponID = &v
	}
	o.PlacedAt = o.PlacedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	o.ExpectedDelivery = timePtr(expected)
	o.CancelledAt = timePtr(cancelled)
	return o, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

var _ domain.OrderRepository = orderRepository{}
