package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	common "shoporia/internal/domain/common"
	orderdom "shoporia/internal/domain/order"
	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
)

// fakeTransactor serializes transaction bodies with a mutex, mirroring the
// serialization the real backends provide.
type fakeTransactor struct {
	mu sync.Mutex
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// =======================
// Orders
// =======================

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]orderdom.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]orderdom.Order{}}
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (orderdom.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return orderdom.Order{}, orderdom.ErrNotFound
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (orderdom.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return orderdom.Order{}, orderdom.ErrNotFound
}

func (f *fakeOrderRepo) ListByCustomer(_ context.Context, customerID string, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	return f.page(func(o orderdom.Order) bool { return o.CustomerID == customerID }, cpage), nil
}

func (f *fakeOrderRepo) ListByStore(_ context.Context, storeID string, filter orderdom.Filter, cpage orderdom.CursorPage) (orderdom.CursorPageResult, error) {
	return f.page(func(o orderdom.Order) bool {
		if o.StoreID != storeID {
			return false
		}
		return filter.Status == nil || o.Status == *filter.Status
	}, cpage), nil
}

func (f *fakeOrderRepo) ListAllByStore(_ context.Context, storeID string) ([]orderdom.Order, error) {
	return f.sorted(func(o orderdom.Order) bool { return o.StoreID == storeID }), nil
}

func (f *fakeOrderRepo) ListRecent(_ context.Context, storeID string, limit int) ([]orderdom.Order, error) {
	all := f.sorted(func(o orderdom.Order) bool { return o.StoreID == storeID })
	limit = common.NormalizeLimit(limit, 10, 100)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, o orderdom.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.orders[o.ID]; exists {
		return orderdom.ErrConflict
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) Save(_ context.Context, o orderdom.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.orders[o.ID]; !exists {
		return orderdom.ErrNotFound
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) sorted(keep func(orderdom.Order) bool) []orderdom.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orderdom.Order
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeOrderRepo) page(keep func(orderdom.Order) bool, cpage orderdom.CursorPage) orderdom.CursorPageResult {
	all := f.sorted(keep)
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	start := 0
	if cpage.After != "" {
		t, id, err := common.DecodeTimeCursor(cpage.After)
		if err == nil {
			for i, o := range all {
				if o.CreatedAt.Equal(t) && o.ID == id {
					start = i + 1
					break
				}
			}
		}
	}
	if start > len(all) {
		start = len(all)
	}
	items := all[start:]
	if len(items) > limit {
		items = items[:limit]
	}

	res := orderdom.CursorPageResult{Items: items, Limit: limit}
	if len(items) == limit && len(items) > 0 {
		last := items[len(items)-1]
		token := common.EncodeTimeCursor(last.CreatedAt, last.ID)
		res.NextCursor = &token
	}
	return res
}

// =======================
// Products
// =======================

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]productdom.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]productdom.Product{}}
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (productdom.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return productdom.Product{}, productdom.ErrNotFound
}

func (f *fakeProductRepo) GetBySlug(_ context.Context, slug string) (productdom.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return productdom.Product{}, productdom.ErrNotFound
}

func (f *fakeProductRepo) ListByStore(_ context.Context, storeID string, onlyActive bool, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	items := f.filter(func(p productdom.Product) bool {
		if p.StoreID != storeID {
			return false
		}
		return !onlyActive || p.Status == productdom.StatusActive
	})
	return productdom.CursorPageResult{Items: items, Limit: common.NormalizeLimit(cpage.Limit, 20, 100)}, nil
}

func (f *fakeProductRepo) ListByCategory(_ context.Context, category string, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	items := f.filter(func(p productdom.Product) bool {
		return p.Category == category && p.Status == productdom.StatusActive
	})
	return productdom.CursorPageResult{Items: items, Limit: common.NormalizeLimit(cpage.Limit, 20, 100)}, nil
}

func (f *fakeProductRepo) ListFeatured(_ context.Context, limit int) ([]productdom.Product, error) {
	return f.filter(func(p productdom.Product) bool {
		return p.Featured && p.Status == productdom.StatusActive
	}), nil
}

func (f *fakeProductRepo) ListBestSelling(_ context.Context, storeID string, limit int) ([]productdom.Product, error) {
	items := f.filter(func(p productdom.Product) bool {
		return storeID == "" || p.StoreID == storeID
	})
	sort.Slice(items, func(i, j int) bool { return items[i].SoldCount > items[j].SoldCount })
	limit = common.NormalizeLimit(limit, 10, 50)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeProductRepo) SearchByNamePrefix(_ context.Context, term string, limit int) ([]productdom.Product, error) {
	return f.filter(func(p productdom.Product) bool {
		return strings.HasPrefix(p.Name, term)
	}), nil
}

func (f *fakeProductRepo) Create(_ context.Context, p productdom.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.products[p.ID]; exists {
		return productdom.ErrConflict
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Save(_ context.Context, p productdom.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.products[p.ID]; !exists {
		return productdom.ErrNotFound
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.products[id]; !exists {
		return productdom.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) SetInventory(_ context.Context, id string, quantity int, status productdom.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, exists := f.products[id]
	if !exists {
		return productdom.ErrNotFound
	}
	p.Quantity = quantity
	p.Status = status
	f.products[id] = p
	return nil
}

func (f *fakeProductRepo) IncrementSoldCount(_ context.Context, id string, by int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, exists := f.products[id]
	if !exists {
		return productdom.ErrNotFound
	}
	p.SoldCount += by
	f.products[id] = p
	return nil
}

func (f *fakeProductRepo) IncrementViewCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, exists := f.products[id]
	if !exists {
		return productdom.ErrNotFound
	}
	p.ViewCount++
	f.products[id] = p
	return nil
}

func (f *fakeProductRepo) filter(keep func(productdom.Product) bool) []productdom.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []productdom.Product
	for _, p := range f.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =======================
// Stores
// =======================

type fakeStoreRepo struct {
	mu     sync.Mutex
	stores map[string]storedom.Store
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: map[string]storedom.Store{}}
}

func (f *fakeStoreRepo) GetByID(_ context.Context, id string) (storedom.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[id]; ok {
		return s, nil
	}
	return storedom.Store{}, storedom.ErrNotFound
}

func (f *fakeStoreRepo) GetBySlug(_ context.Context, slug string) (storedom.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stores {
		if s.Slug == slug {
			return s, nil
		}
	}
	return storedom.Store{}, storedom.ErrNotFound
}

func (f *fakeStoreRepo) GetByOwner(_ context.Context, ownerID string) (storedom.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stores {
		if s.OwnerID == ownerID {
			return s, nil
		}
	}
	return storedom.Store{}, storedom.ErrNotFound
}

func (f *fakeStoreRepo) ListActive(_ context.Context, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	items := f.filter(func(s storedom.Store) bool { return s.Status == storedom.StatusActive })
	return storedom.CursorPageResult{Items: items, Limit: common.NormalizeLimit(cpage.Limit, 20, 100)}, nil
}

func (f *fakeStoreRepo) ListByCategory(_ context.Context, category string, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	items := f.filter(func(s storedom.Store) bool {
		return s.Category == category && s.Status == storedom.StatusActive
	})
	return storedom.CursorPageResult{Items: items, Limit: common.NormalizeLimit(cpage.Limit, 20, 100)}, nil
}

func (f *fakeStoreRepo) SearchByNamePrefix(_ context.Context, term string, limit int) ([]storedom.Store, error) {
	return f.filter(func(s storedom.Store) bool {
		return strings.HasPrefix(s.Name, term)
	}), nil
}

func (f *fakeStoreRepo) Create(_ context.Context, s storedom.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.stores[s.ID]; exists {
		return storedom.ErrConflict
	}
	f.stores[s.ID] = s
	return nil
}

func (f *fakeStoreRepo) Save(_ context.Context, s storedom.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.stores[s.ID]; !exists {
		return storedom.ErrNotFound
	}
	f.stores[s.ID] = s
	return nil
}

func (f *fakeStoreRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.stores[id]; !exists {
		return storedom.ErrNotFound
	}
	delete(f.stores, id)
	return nil
}

func (f *fakeStoreRepo) IncrementProductCount(_ context.Context, id string, delta int) error {
	return f.increment(id, delta, func(s *storedom.Store, d int) { s.ProductCount += d })
}

func (f *fakeStoreRepo) IncrementOrderCount(_ context.Context, id string, delta int) error {
	return f.increment(id, delta, func(s *storedom.Store, d int) { s.OrderCount += d })
}

func (f *fakeStoreRepo) increment(id string, delta int, apply func(*storedom.Store, int)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, exists := f.stores[id]
	if !exists {
		return storedom.ErrNotFound
	}
	apply(&s, delta)
	f.stores[id] = s
	return nil
}

func (f *fakeStoreRepo) filter(keep func(storedom.Store) bool) []storedom.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storedom.Store
	for _, s := range f.stores {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =======================
// Mail
// =======================

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []recordedMail
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
