package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	common "shoporia/internal/domain/common"
	productdom "shoporia/internal/domain/product"
)

// Firestore implementation of product.Repository
type ProductRepositoryFS struct {
	Client *fs.Client
}

func NewProductRepositoryFS(client *fs.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) productsCol() *fs.CollectionRef {
	return r.Client.Collection("products")
}

// ========================
// Queries
// ========================

func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	snap, err := fscommon.GetDoc(ctx, r.productsCol().Doc(id))
	if err != nil {
		if fscommon.IsNotFound(err) {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return docToProduct(snap)
}

func (r *ProductRepositoryFS) GetBySlug(ctx context.Context, slug string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	it := r.productsCol().
		Where("slug", "==", slug).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return productdom.Product{}, productdom.ErrNotFound
	}
	if err != nil {
		return productdom.Product{}, err
	}
	return docToProduct(doc)
}

func (r *ProductRepositoryFS) ListByStore(ctx context.Context, storeID string, onlyActive bool, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	if r.Client == nil {
		return productdom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.productsCol().Where("storeId", "==", strings.TrimSpace(storeID))
	if onlyActive {
		q = q.Where("status", "==", string(productdom.StatusActive))
	}
	return r.listProducts(ctx, q, cpage)
}

func (r *ProductRepositoryFS) ListByCategory(ctx context.Context, category string, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	if r.Client == nil {
		return productdom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.productsCol().
		Where("category", "==", strings.TrimSpace(category)).
		Where("status", "==", string(productdom.StatusActive))
	return r.listProducts(ctx, q, cpage)
}

func (r *ProductRepositoryFS) ListFeatured(ctx context.Context, limit int) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	limit = common.NormalizeLimit(limit, 10, 50)

	it := r.productsCol().
		Where("featured", "==", true).
		Where("status", "==", string(productdom.StatusActive)).
		OrderBy("createdAt", fs.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	return collectProducts(it)
}

func (r *ProductRepositoryFS) ListBestSelling(ctx context.Context, storeID string, limit int) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	limit = common.NormalizeLimit(limit, 10, 50)

	q := r.productsCol().Query
	if storeID = strings.TrimSpace(storeID); storeID != "" {
		q = q.Where("storeId", "==", storeID)
	}
	it := q.OrderBy("soldCount", fs.Desc).Limit(limit).Documents(ctx)
	defer it.Stop()

	return collectProducts(it)
}

// SearchByNamePrefix is a range scan on the name field, case sensitive.
// A real search backend plugs in through usecase.ProductSearcher.
func (r *ProductRepositoryFS) SearchByNamePrefix(ctx context.Context, term string, limit int) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	limit = common.NormalizeLimit(limit, 20, 50)

	it := r.productsCol().
		Where("name", ">=", term).
		Where("name", "<=", fscommon.PrefixEnd(term)).
		OrderBy("name", fs.Asc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	return collectProducts(it)
}

func (r *ProductRepositoryFS) listProducts(ctx context.Context, q fs.Query, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	q = q.OrderBy("createdAt", fs.Desc).OrderBy(fs.DocumentID, fs.Desc)
	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return productdom.CursorPageResult{}, err
		}
		q = q.StartAfter(t, id)
	}

	it := q.Limit(limit).Documents(ctx)
	defer it.Stop()

	items, err := collectProducts(it)
	if err != nil {
		return productdom.CursorPageResult{}, err
	}

	res := productdom.CursorPageResult{Items: items, Limit: limit}
	if len(items) == limit {
		last := items[len(items)-1]
		token := common.EncodeTimeCursor(last.CreatedAt, last.ID)
		res.NextCursor = &token
	}
	return res, nil
}

func collectProducts(it *fs.DocumentIterator) ([]productdom.Product, error) {
	var out []productdom.Product
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := docToProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ========================
// Commands
// ========================

func (r *ProductRepositoryFS) Create(ctx context.Context, p productdom.Product) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return productdom.ErrConflict
	}
	if err := fscommon.CreateDoc(ctx, r.productsCol().Doc(p.ID), productToDoc(p)); err != nil {
		if fscommon.IsAlreadyExists(err) {
			return productdom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProductRepositoryFS) Save(ctx context.Context, p productdom.Product) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return productdom.ErrNotFound
	}
	return fscommon.SetDoc(ctx, r.productsCol().Doc(p.ID), productToDoc(p))
}

func (r *ProductRepositoryFS) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}
	return fscommon.DeleteDoc(ctx, r.productsCol().Doc(id))
}

// SetInventory writes quantity and derived status in one update. Write-only
// so it fits the write phase of a transaction.
func (r *ProductRepositoryFS) SetInventory(ctx context.Context, id string, quantity int, status productdom.Status) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}
	err := fscommon.UpdateDoc(ctx, r.productsCol().Doc(id), []fs.Update{
		{Path: "quantity", Value: quantity},
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if fscommon.IsNotFound(err) {
		return productdom.ErrNotFound
	}
	return err
}

// IncrementSoldCount uses a field transform, never read-modify-write.
func (r *ProductRepositoryFS) IncrementSoldCount(ctx context.Context, id string, by int) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}
	err := fscommon.UpdateDoc(ctx, r.productsCol().Doc(id), []fs.Update{
		{Path: "soldCount", Value: fs.Increment(by)},
	})
	if fscommon.IsNotFound(err) {
		return productdom.ErrNotFound
	}
	return err
}

func (r *ProductRepositoryFS) IncrementViewCount(ctx context.Context, id string) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}
	err := fscommon.UpdateDoc(ctx, r.productsCol().Doc(id), []fs.Update{
		{Path: "viewCount", Value: fs.Increment(1)},
	})
	if fscommon.IsNotFound(err) {
		return productdom.ErrNotFound
	}
	return err
}
