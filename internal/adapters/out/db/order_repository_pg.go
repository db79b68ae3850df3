package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbcommon "shoporia/internal/adapters/out/db/common"
	common "shoporia/internal/domain/common"
	orderdom "shoporia/internal/domain/order"
)

// PostgreSQL implementation of order.Repository. Nested structures (items,
// status history, address, payment details) are stored as JSONB.
type OrderRepositoryPG struct {
	DB *sql.DB
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db}
}

const orderColumns = `
  id, order_number, customer_id, store_id, items,
  subtotal, discount, delivery_fee, tax, total, currency, coupon_code,
  payment_method, payment_status, payment_details,
  delivery_address, delivery_method, delivery_notes,
  status, status_history,
  tracking_number, estimated_delivery, actual_delivery,
  customer_email, created_at, updated_at`

// ========================
// Queries
// ========================

func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	o, err := scanOrder(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return o, nil
}

func (r *OrderRepositoryPG) GetByNumber(ctx context.Context, orderNumber string) (orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE order_number = $1 ORDER BY created_at DESC LIMIT 1`, orderColumns)
	o, err := scanOrder(run.QueryRowContext(ctx, q, strings.TrimSpace(orderNumber)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return o, nil
}

func (r *OrderRepositoryPG) ListByCustomer(ctx context.Context, customerID string, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	return r.listOrders(ctx, "customer_id = $1", []any{strings.TrimSpace(customerID)}, cpage)
}

func (r *OrderRepositoryPG) ListByStore(ctx context.Context, storeID string, filter orderdom.Filter, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	where := "store_id = $1"
	args := []any{strings.TrimSpace(storeID)}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(*filter.Status))
	}
	return r.listOrders(ctx, where, args, cpage)
}

func (r *OrderRepositoryPG) ListAllByStore(ctx context.Context, storeID string) ([]orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE store_id = $1 ORDER BY created_at DESC, id DESC`, orderColumns)
	rows, err := run.QueryContext(ctx, q, strings.TrimSpace(storeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrderRows(rows)
}

func (r *OrderRepositoryPG) ListRecent(ctx context.Context, storeID string, limit int) ([]orderdom.Order, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit = common.NormalizeLimit(limit, 10, 100)
	q := fmt.Sprintf(`SELECT %s FROM orders WHERE store_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, orderColumns)
	rows, err := run.QueryContext(ctx, q, strings.TrimSpace(storeID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrderRows(rows)
}

// listOrders runs a keyset window ordered by (created_at DESC, id DESC).
func (r *OrderRepositoryPG) listOrders(ctx context.Context, where string, args []any, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return orderdom.CursorPageResult{}, err
		}
		where += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, t, id)
	}

	q := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		orderColumns, where, len(args)+1)
	args = append(args, limit)

	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return orderdom.CursorPageResult{}, err
	}
	defer rows.Close()

	items, err := collectOrderRows(rows)
	if err != nil {
		return orderdom.CursorPageResult{}, err
	}

	res := orderdom.CursorPageResult{Items: items, Limit: limit}
	if len(items) == limit {
		last := items[len(items)-1]
		token := common.EncodeTimeCursor(last.CreatedAt, last.ID)
		res.NextCursor = &token
	}
	return res, nil
}

// ========================
// Commands
// ========================

func (r *OrderRepositoryPG) Create(ctx context.Context, o orderdom.Order) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	items, history, details, addr, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO orders (
  id, order_number, customer_id, store_id, items,
  subtotal, discount, delivery_fee, tax, total, currency, coupon_code,
  payment_method, payment_status, payment_details,
  delivery_address, delivery_method, delivery_notes,
  status, status_history,
  tracking_number, estimated_delivery, actual_delivery,
  customer_email, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26
)`
	_, err = run.ExecContext(ctx, q,
		o.ID, o.OrderNumber, o.CustomerID, o.StoreID, items,
		o.Subtotal, o.Discount, o.DeliveryFee, o.Tax, o.Total, o.Currency, o.CouponCode,
		string(o.PaymentMethod), string(o.PaymentStatus), details,
		addr, string(o.DeliveryMethod), o.DeliveryNotes,
		string(o.Status), history,
		o.TrackingNumber, o.EstimatedDelivery, o.ActualDelivery,
		o.CustomerEmail, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return orderdom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *OrderRepositoryPG) Save(ctx context.Context, o orderdom.Order) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	items, history, details, addr, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	const q = `
UPDATE orders SET
  order_number = $2, customer_id = $3, store_id = $4, items = $5,
  subtotal = $6, discount = $7, delivery_fee = $8, tax = $9, total = $10,
  currency = $11, coupon_code = $12,
  payment_method = $13, payment_status = $14, payment_details = $15,
  delivery_address = $16, delivery_method = $17, delivery_notes = $18,
  status = $19, status_history = $20,
  tracking_number = $21, estimated_delivery = $22, actual_delivery = $23,
  customer_email = $24, updated_at = $25
WHERE id = $1`
	res, err := run.ExecContext(ctx, q,
		o.ID, o.OrderNumber, o.CustomerID, o.StoreID, items,
		o.Subtotal, o.Discount, o.DeliveryFee, o.Tax, o.Total,
		o.Currency, o.CouponCode,
		string(o.PaymentMethod), string(o.PaymentStatus), details,
		addr, string(o.DeliveryMethod), o.DeliveryNotes,
		string(o.Status), history,
		o.TrackingNumber, o.EstimatedDelivery, o.ActualDelivery,
		o.CustomerEmail, o.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return orderdom.ErrNotFound
	}
	return nil
}

// ========================
// Row mapping
// ========================

func marshalOrderJSON(o orderdom.Order) (items, history, details, addr []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, nil, err
	}
	if history, err = json.Marshal(o.StatusHistory); err != nil {
		return nil, nil, nil, nil, err
	}
	if addr, err = json.Marshal(o.DeliveryAddress); err != nil {
		return nil, nil, nil, nil, err
	}
	if o.PaymentDetails != nil {
		if details, err = json.Marshal(o.PaymentDetails); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return items, history, details, addr, nil
}

func scanOrder(s dbcommon.RowScanner) (orderdom.Order, error) {
	var (
		o              orderdom.Order
		items          []byte
		history        []byte
		details        []byte
		addr           []byte
		paymentMethod  string
		paymentStatus  string
		deliveryMethod string
		orderStatus    string
		couponCode     sql.NullString
		deliveryNotes  sql.NullString
		trackingNumber sql.NullString
		customerEmail  sql.NullString
		estimated      sql.NullTime
		actual         sql.NullTime
	)

	err := s.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.StoreID, &items,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Tax, &o.Total, &o.Currency, &couponCode,
		&paymentMethod, &paymentStatus, &details,
		&addr, &deliveryMethod, &deliveryNotes,
		&orderStatus, &history,
		&trackingNumber, &estimated, &actual,
		&customerEmail, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return orderdom.Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return orderdom.Order{}, fmt.Errorf("orders.items: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &o.StatusHistory); err != nil {
			return orderdom.Order{}, fmt.Errorf("orders.status_history: %w", err)
		}
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.DeliveryAddress); err != nil {
			return orderdom.Order{}, fmt.Errorf("orders.delivery_address: %w", err)
		}
	}
	if len(details) > 0 {
		var pd orderdom.PaymentDetails
		if err := json.Unmarshal(details, &pd); err != nil {
			return orderdom.Order{}, fmt.Errorf("orders.payment_details: %w", err)
		}
		o.PaymentDetails = &pd
	}

	o.PaymentMethod = orderdom.PaymentMethod(paymentMethod)
	o.PaymentStatus = orderdom.PaymentStatus(paymentStatus)
	o.DeliveryMethod = orderdom.DeliveryMethod(deliveryMethod)
	o.Status = orderdom.Status(orderStatus)
	o.CouponCode = couponCode.String
	o.DeliveryNotes = deliveryNotes.String
	o.TrackingNumber = trackingNumber.String
	o.CustomerEmail = customerEmail.String
	if estimated.Valid {
		t := estimated.Time.UTC()
		o.EstimatedDelivery = &t
	}
	if actual.Valid {
		t := actual.Time.UTC()
		o.ActualDelivery = &t
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	return o, nil
}

func collectOrderRows(rows *sql.Rows) ([]orderdom.Order, error) {
	var out []orderdom.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
