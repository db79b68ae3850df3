package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	orderdom "shoporia/internal/domain/order"
	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
)

// OrderUsecase orchestrates the order lifecycle and its coupled inventory
// and counter side effects.
type OrderUsecase struct {
	orders   orderdom.Repository
	products productdom.Repository
	stores   storedom.Repository
	tx       Transactor

	mailer   EmailSender // optional
	mailFrom string

	now   func() time.Time
	newID func() string
}

func NewOrderUsecase(
	orders orderdom.Repository,
	products productdom.Repository,
	stores storedom.Repository,
	tx Transactor,
) *OrderUsecase {
	return &OrderUsecase{
		orders:   orders,
		products: products,
		stores:   stores,
		tx:       tx,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithMailer enables best-effort customer notifications.
func (u *OrderUsecase) WithMailer(m EmailSender, from string) *OrderUsecase {
	u.mailer = m
	u.mailFrom = strings.TrimSpace(from)
	return u
}

var ErrOrderUsecaseNotConfigured = errors.New("order usecase: missing repository or transactor")

func (u *OrderUsecase) ready() error {
	if u == nil || u.orders == nil || u.products == nil || u.stores == nil || u.tx == nil {
		return ErrOrderUsecaseNotConfigured
	}
	return nil
}

// =======================
// Commands
// =======================

type CreateOrderItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID string
	StoreID    string
	Items      []CreateOrderItemInput

	DeliveryAddress orderdom.Address
	PaymentMethod   orderdom.PaymentMethod
	DeliveryMethod  orderdom.DeliveryMethod // empty -> standard
	DeliveryNotes   string

	CouponCode string
	Discount   int // caller-supplied coupon amount, >= 0

	CustomerEmail string // optional, enables notifications
}

// Create builds the order (status pending, single-entry history, fresh
// order number) and applies all side effects in one storage transaction:
// per item, decrement tracked inventory (deriving out_of_stock) and
// increment soldCount; then increment the store's orderCount.
// Item prices and names are frozen from the product at this moment.
func (u *OrderUsecase) Create(ctx context.Context, in CreateOrderInput) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	if len(in.Items) == 0 {
		return orderdom.Order{}, orderdom.ErrInvalidItems
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 {
			return orderdom.Order{}, orderdom.ErrInvalidItem
		}
	}
	method := in.DeliveryMethod
	if method == "" {
		method = orderdom.DeliveryStandard
	}

	// Aggregate per product so a product listed twice is read once and
	// written once inside the transaction.
	qtyByProduct := map[string]int{}
	productIDs := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		id := strings.TrimSpace(it.ProductID)
		if _, seen := qtyByProduct[id]; !seen {
			productIDs = append(productIDs, id)
		}
		qtyByProduct[id] += it.Quantity
	}

	var created orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := u.now().UTC()

		// Read phase.
		st, err := u.stores.GetByID(ctx, in.StoreID)
		if err != nil {
			return err
		}
		loaded := make(map[string]productdom.Product, len(productIDs))
		for _, id := range productIDs {
			p, err := u.products.GetByID(ctx, id)
			if err != nil {
				return err
			}
			loaded[id] = p
		}

		items := make([]orderdom.Item, 0, len(in.Items))
		for _, it := range in.Items {
			p := loaded[strings.TrimSpace(it.ProductID)]
			item, err := orderdom.NewItem(p.ID, it.VariantID, p.Name, it.Quantity, p.Price)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		id := u.newID()
		o, err := orderdom.New(
			id,
			orderdom.NewOrderNumber(now, orderNumberSuffix(id)),
			in.CustomerID,
			st.ID,
			items,
			in.Discount,
			in.CouponCode,
			in.DeliveryAddress,
			in.PaymentMethod,
			method,
			in.DeliveryNotes,
			in.CustomerEmail,
			now,
		)
		if err != nil {
			return err
		}

		// Write phase.
		if err := u.orders.Create(ctx, o); err != nil {
			return err
		}
		for _, pid := range productIDs {
			p := loaded[pid]
			qty := qtyByProduct[pid]
			if p.TrackInventory {
				p.ApplyInventoryDelta(-qty, now)
				if err := u.products.SetInventory(ctx, p.ID, p.Quantity, p.Status); err != nil {
					return err
				}
			}
			if err := u.products.IncrementSoldCount(ctx, p.ID, qty); err != nil {
				return err
			}
		}
		if err := u.stores.IncrementOrderCount(ctx, st.ID, 1); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		return orderdom.Order{}, err
	}

	zap.S().Infof("[order_uc] created orderId=%s orderNumber=%s storeId=%s total=%d",
		created.ID, created.OrderNumber, created.StoreID, created.Total)
	u.notify(ctx, created, "Your Shoporia order "+created.OrderNumber, confirmationBody(created))
	return created, nil
}

// UpdateStatus appends a history entry and sets the new status. The
// mutation is mechanically permissive (any status to any status) so
// administrative overrides stay possible; non-admin callers consult
// order.CanTransition first. Runs in a transaction so a concurrent cancel
// and advance on the same order serialize instead of losing a write.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, id string, next orderdom.Status, note, actorID string) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	if !next.Valid() {
		return orderdom.Order{}, orderdom.ErrInvalidStatus
	}

	var out orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := u.orders.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if !orderdom.CanTransition(o.Status, next) {
			zap.S().Warnf("[order_uc] off-policy transition %s -> %s orderId=%s actor=%s",
				o.Status, next, o.ID, actorID)
		}
		if err := o.ApplyStatus(next, u.now(), note, actorID); err != nil {
			return err
		}
		if err := u.orders.Save(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return orderdom.Order{}, err
	}

	u.notify(ctx, out, "Order "+out.OrderNumber+" is now "+string(next), statusBody(out))
	return out, nil
}

// UpdatePaymentStatus sets the payment status; a supplied transaction
// reference is recorded with a paid-at timestamp in the nested details.
func (u *OrderUsecase) UpdatePaymentStatus(ctx context.Context, id string, ps orderdom.PaymentStatus, transactionRef string) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	if !ps.Valid() {
		return orderdom.Order{}, orderdom.ErrInvalidPaymentStatus
	}

	var out orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := u.orders.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if err := o.ApplyPaymentStatus(ps, transactionRef, u.now()); err != nil {
			return err
		}
		if err := u.orders.Save(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

// Cancel reverses the creation-time inventory decrements and records the
// cancelled status. Legal only from pending or confirmed. SoldCount is
// intentionally left untouched as a historical sales metric.
func (u *OrderUsecase) Cancel(ctx context.Context, id, reason, actorID string) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}

	var out orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := u.orders.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if !o.CanCancel() {
			return orderdom.ErrNotCancellable
		}
		now := u.now().UTC()

		// Read phase: load referenced products. A product deleted since the
		// order was placed simply has nothing to restore.
		type restore struct {
			id       string
			quantity int
			status   productdom.Status
		}
		qty := map[string]int{}
		ids := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			if _, seen := qty[it.ProductID]; !seen {
				ids = append(ids, it.ProductID)
			}
			qty[it.ProductID] += it.Quantity
		}
		var restores []restore
		for _, pid := range ids {
			p, err := u.products.GetByID(ctx, pid)
			if err != nil {
				if errors.Is(err, productdom.ErrNotFound) {
					zap.S().Warnf("[order_uc] cancel: product gone, skipping restore orderId=%s productId=%s", o.ID, pid)
					continue
				}
				return err
			}
			if !p.TrackInventory {
				continue
			}
			p.ApplyInventoryDelta(qty[pid], now)
			restores = append(restores, restore{id: p.ID, quantity: p.Quantity, status: p.Status})
		}

		if err := o.ApplyStatus(orderdom.StatusCancelled, now, reason, actorID); err != nil {
			return err
		}

		// Write phase.
		if err := u.orders.Save(ctx, o); err != nil {
			return err
		}
		for _, r := range restores {
			if err := u.products.SetInventory(ctx, r.id, r.quantity, r.status); err != nil {
				return err
			}
		}
		out = o
		return nil
	})
	if err != nil {
		return orderdom.Order{}, err
	}

	zap.S().Infof("[order_uc] cancelled orderId=%s reason=%q", out.ID, reason)
	u.notify(ctx, out, "Order "+out.OrderNumber+" cancelled", statusBody(out))
	return out, nil
}

// SetTracking attaches a tracking number and optional estimated delivery
// date. Pure metadata; no side effects.
func (u *OrderUsecase) SetTracking(ctx context.Context, id, trackingNumber string, estimated *time.Time) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	var out orderdom.Order
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := u.orders.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		o.SetTracking(trackingNumber, estimated, u.now())
		if err := u.orders.Save(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return orderdom.Order{}, err
	}
	return out, nil
}

// =======================
// Queries
// =======================

func (u *OrderUsecase) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	return u.orders.GetByID(ctx, strings.TrimSpace(id))
}

func (u *OrderUsecase) GetByNumber(ctx context.Context, orderNumber string) (orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return orderdom.Order{}, err
	}
	return u.orders.GetByNumber(ctx, strings.TrimSpace(orderNumber))
}

func (u *OrderUsecase) ListByCustomer(ctx context.Context, customerID string, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return orderdom.CursorPageResult{}, err
	}
	return u.orders.ListByCustomer(ctx, strings.TrimSpace(customerID), cpage)
}

func (u *OrderUsecase) ListByStore(ctx context.Context, storeID string, status *orderdom.Status, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return orderdom.CursorPageResult{}, err
	}
	return u.orders.ListByStore(ctx, strings.TrimSpace(storeID), orderdom.Filter{Status: status}, cpage)
}

func (u *OrderUsecase) RecentOrders(ctx context.Context, storeID string, limit int) ([]orderdom.Order, error) {
	if err := u.ready(); err != nil {
		return nil, err
	}
	return u.orders.ListRecent(ctx, strings.TrimSpace(storeID), limit)
}

// StoreStats is the per-store reporting projection: counts per status
// bucket plus revenue over delivered-and-paid orders. Full scan; fine at
// current scale.
type StoreStats struct {
	Total    int
	ByStatus map[orderdom.Status]int
	Revenue  int
}

func (u *OrderUsecase) StoreStats(ctx context.Context, storeID string) (StoreStats, error) {
	if err := u.ready(); err != nil {
		return StoreStats{}, err
	}
	all, err := u.orders.ListAllByStore(ctx, strings.TrimSpace(storeID))
	if err != nil {
		return StoreStats{}, err
	}
	stats := StoreStats{ByStatus: map[orderdom.Status]int{}}
	for _, o := range all {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status == orderdom.StatusDelivered && o.PaymentStatus == orderdom.PaymentPaid {
			stats.Revenue += o.Total
		}
	}
	return stats, nil
}

// =======================
// Helpers
// =======================

func orderNumberSuffix(id string) string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}
