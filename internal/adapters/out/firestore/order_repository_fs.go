package firestore

import (
	"context"
	"errors"
	"strings"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	common "shoporia/internal/domain/common"
	orderdom "shoporia/internal/domain/order"
)

// Firestore implementation of order.Repository
type OrderRepositoryFS struct {
	Client *fs.Client
}

func NewOrderRepositoryFS(client *fs.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) ordersCol() *fs.CollectionRef {
	return r.Client.Collection("orders")
}

// ========================
// Queries
// ========================

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r.Client == nil {
		return orderdom.Order{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	snap, err := fscommon.GetDoc(ctx, r.ordersCol().Doc(id))
	if err != nil {
		if fscommon.IsNotFound(err) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return docToOrder(snap)
}

// GetByNumber resolves the human-readable order number. First match wins;
// uniqueness of the number is by convention.
func (r *OrderRepositoryFS) GetByNumber(ctx context.Context, orderNumber string) (orderdom.Order, error) {
	if r.Client == nil {
		return orderdom.Order{}, errors.New("firestore client is nil")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	it := r.ordersCol().
		Where("orderNumber", "==", orderNumber).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	if err != nil {
		return orderdom.Order{}, err
	}
	return docToOrder(doc)
}

func (r *OrderRepositoryFS) ListByCustomer(ctx context.Context, customerID string, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	if r.Client == nil {
		return orderdom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.ordersCol().Where("customerId", "==", strings.TrimSpace(customerID))
	return r.listOrders(ctx, q, cpage)
}

func (r *OrderRepositoryFS) ListByStore(ctx context.Context, storeID string, filter orderdom.Filter, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	if r.Client == nil {
		return orderdom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.ordersCol().Where("storeId", "==", strings.TrimSpace(storeID))
	if filter.Status != nil {
		q = q.Where("status", "==", string(*filter.Status))
	}
	return r.listOrders(ctx, q, cpage)
}

func (r *OrderRepositoryFS) ListAllByStore(ctx context.Context, storeID string) ([]orderdom.Order, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	it := r.ordersCol().
		Where("storeId", "==", strings.TrimSpace(storeID)).
		Documents(ctx)
	defer it.Stop()

	var out []orderdom.Order
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		o, err := docToOrder(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepositoryFS) ListRecent(ctx context.Context, storeID string, limit int) ([]orderdom.Order, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	limit = common.NormalizeLimit(limit, 10, 100)

	it := r.ordersCol().
		Where("storeId", "==", strings.TrimSpace(storeID)).
		OrderBy("createdAt", fs.Desc).
		OrderBy(fs.DocumentID, fs.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var out []orderdom.Order
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		o, err := docToOrder(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// listOrders runs a cursor window ordered by (createdAt DESC, id DESC).
func (r *OrderRepositoryFS) listOrders(ctx context.Context, q fs.Query, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	q = q.OrderBy("createdAt", fs.Desc).OrderBy(fs.DocumentID, fs.Desc)
	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return orderdom.CursorPageResult{}, err
		}
		q = q.StartAfter(t, id)
	}

	it := q.Limit(limit).Documents(ctx)
	defer it.Stop()

	var items []orderdom.Order
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return orderdom.CursorPageResult{}, err
		}
		o, err := docToOrder(doc)
		if err != nil {
			return orderdom.CursorPageResult{}, err
		}
		items = append(items, o)
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

func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(o.ID) == "" {
		return orderdom.ErrConflict
	}
	if err := fscommon.CreateDoc(ctx, r.ordersCol().Doc(o.ID), orderToDoc(o)); err != nil {
		if fscommon.IsAlreadyExists(err) {
			return orderdom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *OrderRepositoryFS) Save(ctx context.Context, o orderdom.Order) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(o.ID) == "" {
		return orderdom.ErrNotFound
	}
	return fscommon.SetDoc(ctx, r.ordersCol().Doc(o.ID), orderToDoc(o))
}
