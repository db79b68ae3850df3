package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
)

type uploadRec struct {
	Path        string
	ContentType string
}

type fakeImageStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	calls     []uploadRec
	removed   []string
	removeErr error
	onUpload  func() // runs after the object write, before Upload returns
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string][]byte{}}
}

func (s *fakeImageStore) Upload(_ context.Context, objectPath string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	s.objects[objectPath] = data
	s.calls = append(s.calls, uploadRec{Path: objectPath, ContentType: contentType})
	s.mu.Unlock()
	if s.onUpload != nil {
		s.onUpload()
	}
	return "https://storage.googleapis.com/shoporia-product-images/" + objectPath, nil
}

func (s *fakeImageStore) Remove(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, url)
	return s.removeErr
}

type fakeSearcher struct {
	results []productdom.Product
	lastTerm string
}

func (s *fakeSearcher) SearchProducts(_ context.Context, term string, _ int) ([]productdom.Product, error) {
	s.lastTerm = term
	return s.results, nil
}

type productFixture struct {
	products *fakeProductRepo
	stores   *fakeStoreRepo
	uc       *ProductUsecase
	now      time.Time
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()

	f := &productFixture{
		products: newFakeProductRepo(),
		stores:   newFakeStoreRepo(),
		now:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.uc = NewProductUsecase(f.products, f.stores, &fakeTransactor{})
	f.uc.now = func() time.Time { return f.now }

	var seq int
	f.uc.newID = func() string {
		seq++
		return fmt.Sprintf("prod-%06d", seq)
	}

	st, err := storedom.New("store-1", "owner-1", "Mona Crafts", "handmade", "", f.now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, st.ApplyStatus(storedom.StatusActive, f.now))
	require.NoError(t, f.stores.Create(context.Background(), st))
	return f
}

func TestProductCreate(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{
		StoreID:        "store-1",
		Name:           "Cotton T-Shirt",
		Category:       "apparel",
		Price:          150,
		Quantity:       10,
		TrackInventory: true,
	})
	require.NoError(t, err)
	require.Equal(t, productdom.StatusDraft, p.Status)
	require.Equal(t, "store-1", p.StoreID)
	require.Equal(t, "cotton-t-shirt-prod-0", p.Slug)
	require.Zero(t, p.SoldCount)
	require.Zero(t, p.ViewCount)

	st, err := f.stores.GetByID(ctx, "store-1")
	require.NoError(t, err)
	require.Equal(t, 1, st.ProductCount)

	_, err = f.uc.Create(ctx, CreateProductInput{StoreID: "missing", Name: "x", Price: 1})
	require.ErrorIs(t, err, storedom.ErrNotFound)

	_, err = f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "", Price: 1})
	require.ErrorIs(t, err, productdom.ErrInvalidName)
}

func TestProductDelete_DecrementsStoreCount(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Mug", Category: "home", Price: 80})
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, p.ID))

	st, err := f.stores.GetByID(ctx, "store-1")
	require.NoError(t, err)
	require.Zero(t, st.ProductCount)

	err = f.uc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, productdom.ErrNotFound)
}

func TestProductDuplicate(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Shirt", Category: "apparel", Price: 200})
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, p.ID, productdom.StatusActive)
	require.NoError(t, err)
	require.NoError(t, f.uc.IncrementViewCount(ctx, p.ID))

	dup, err := f.uc.Duplicate(ctx, p.ID)
	require.NoError(t, err)
	require.NotEqual(t, p.ID, dup.ID)
	require.Equal(t, "Shirt (Copy)", dup.Name)
	require.Equal(t, productdom.StatusDraft, dup.Status)
	require.Zero(t, dup.ViewCount)
	require.Zero(t, dup.SoldCount)

	st, err := f.stores.GetByID(ctx, "store-1")
	require.NoError(t, err)
	require.Equal(t, 2, st.ProductCount)
}

func TestProductUpdateInventory_DerivesStatus(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{
		StoreID: "store-1", Name: "Scarf", Category: "apparel",
		Price: 90, Quantity: 2, TrackInventory: true,
	})
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, p.ID, productdom.StatusActive)
	require.NoError(t, err)

	got, err := f.uc.UpdateInventory(ctx, p.ID, -2)
	require.NoError(t, err)
	require.Zero(t, got.Quantity)
	require.Equal(t, productdom.StatusOutOfStock, got.Status)

	got, err = f.uc.UpdateInventory(ctx, p.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)
	require.Equal(t, productdom.StatusActive, got.Status)
}

func TestProductUpdate_Patch(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Bag", Category: "bags", Price: 300})
	require.NoError(t, err)

	name := "  Leather Bag "
	price := 350
	featured := true
	got, err := f.uc.Update(ctx, p.ID, productdom.Patch{Name: &name, Price: &price, Featured: &featured})
	require.NoError(t, err)
	require.Equal(t, "Leather Bag", got.Name)
	require.Equal(t, 350, got.Price)
	require.True(t, got.Featured)
	// Untouched fields survive the patch.
	require.Equal(t, "bags", got.Category)
	require.Equal(t, p.Slug, got.Slug)
}

func TestProductSearch(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Cotton Shirt", Category: "apparel", Price: 100})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Wool Hat", Category: "apparel", Price: 60})
	require.NoError(t, err)

	// Default path is the repository prefix scan, case-sensitive on both
	// backends.
	got, err := f.uc.Search(ctx, "Cotton", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, p.ID, got[0].ID)

	got, err = f.uc.Search(ctx, "cotton", 10)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = f.uc.Search(ctx, "   ", 10)
	require.NoError(t, err)
	require.Empty(t, got)

	// A plugged-in searcher takes over entirely.
	s := &fakeSearcher{results: []productdom.Product{{ID: "from-searcher"}}}
	f.uc.WithSearcher(s)
	got, err = f.uc.Search(ctx, "anything", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "from-searcher", got[0].ID)
	require.Equal(t, "anything", s.lastTerm)
}

func TestProductAddRemoveImage(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Poster", Category: "art", Price: 40})
	require.NoError(t, err)

	_, err = f.uc.AddImage(ctx, p.ID, "front.jpg", []byte{0xFF, 0xD8}, "image/jpeg")
	require.ErrorIs(t, err, ErrImageStoreNotConfigured)

	store := newFakeImageStore()
	f.uc.WithImageStore(store)

	got, err := f.uc.AddImage(ctx, p.ID, "front.jpg", []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	url := got.Images[0]
	require.Contains(t, url, "stores/store-1/products/"+p.ID+"/front.jpg")
	require.Len(t, store.calls, 1)
	require.Equal(t, "image/jpeg", store.calls[0].ContentType)

	got, err = f.uc.RemoveImage(ctx, p.ID, url)
	require.NoError(t, err)
	require.Empty(t, got.Images)
	require.Equal(t, []string{url}, store.removed)

	// A failing object delete does not fail the catalog update.
	got, err = f.uc.AddImage(ctx, p.ID, "back.jpg", []byte{0xFF}, "image/jpeg")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	store.removeErr = errors.New("backend unavailable")
	got, err = f.uc.RemoveImage(ctx, p.ID, got.Images[0])
	require.NoError(t, err)
	require.Empty(t, got.Images)
}

func TestProductAddImage_KeepsConcurrentCounterUpdates(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{
		StoreID: "store-1", Name: "Poster", Category: "art",
		Price: 40, Quantity: 10, TrackInventory: true,
	})
	require.NoError(t, err)

	store := newFakeImageStore()
	f.uc.WithImageStore(store)

	// A sale lands while the image edit is in flight; the edit must not
	// write back the counts it read before the upload.
	store.onUpload = func() {
		require.NoError(t, f.products.IncrementSoldCount(ctx, p.ID, 5))
		require.NoError(t, f.products.SetInventory(ctx, p.ID, 5, productdom.StatusDraft))
	}

	got, err := f.uc.AddImage(ctx, p.ID, "front.jpg", []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	require.Equal(t, 5, got.SoldCount)
	require.Equal(t, 5, got.Quantity)

	back, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, back.SoldCount)
	require.Equal(t, 5, back.Quantity)
	require.Len(t, back.Images, 1)
}

func TestProductIncrementSoldCount_DefaultsToOne(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.uc.Create(ctx, CreateProductInput{StoreID: "store-1", Name: "Pin", Category: "misc", Price: 10})
	require.NoError(t, err)

	require.NoError(t, f.uc.IncrementSoldCount(ctx, p.ID, 0))
	require.NoError(t, f.uc.IncrementSoldCount(ctx, p.ID, 3))

	got, err := f.uc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.SoldCount)
}
