package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
)

// ProductUsecase owns product catalog mutations and the inventory/counter
// accounting around them.
type ProductUsecase struct {
	products productdom.Repository
	stores   storedom.Repository
	tx       Transactor

	images   ImageStore      // optional
	searcher ProductSearcher // optional; falls back to the repository prefix scan

	now   func() time.Time
	newID func() string
}

func NewProductUsecase(
	products productdom.Repository,
	stores storedom.Repository,
	tx Transactor,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		stores:   stores,
		tx:       tx,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (u *ProductUsecase) WithImageStore(is ImageStore) *ProductUsecase {
	u.images = is
	return u
}

func (u *ProductUsecase) WithSearcher(s ProductSearcher) *ProductUsecase {
	u.searcher = s
	return u
}

var (
	ErrProductUsecaseNotConfigured = errors.New("product usecase: missing repository or transactor")
	ErrImageStoreNotConfigured     = errors.New("product usecase: image store is not configured")
)

func (u *ProductUsecase) ready() error {
	if u == nil || u.products == nil || u.stores == nil || u.tx == nil {
		return ErrProductUsecaseNotConfigured
	}
	return nil
}

// =======================
// Commands
// =======================

type CreateProductInput struct {
	StoreID     string
	Name        string
	Description string
	Category    string

	Price          int
	CompareAtPrice *int

	Quantity       int
	TrackInventory bool

	HasVariants bool
	Variants    []productdom.Variant
	Images      []string
	Featured    bool
}

// Create persists the product (status draft, zero counters) and increments
// the owning store's productCount in the same transaction.
func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}

	var created productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		st, err := u.stores.GetByID(ctx, in.StoreID)
		if err != nil {
			return err
		}

		now := u.now().UTC()
		p, err := productdom.New(u.newID(), st.ID, in.Name, in.Description, in.Category, in.Price, now)
		if err != nil {
			return err
		}
		p.CompareAtPrice = in.CompareAtPrice
		p.Quantity = in.Quantity
		p.TrackInventory = in.TrackInventory
		p.HasVariants = in.HasVariants
		p.Variants = in.Variants
		p.Images = in.Images
		p.Featured = in.Featured

		if err := u.products.Create(ctx, p); err != nil {
			return err
		}
		if err := u.stores.IncrementProductCount(ctx, st.ID, 1); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return productdom.Product{}, err
	}

	zap.S().Infof("[product_uc] created productId=%s slug=%s storeId=%s", created.ID, created.Slug, created.StoreID)
	return created, nil
}

// Update applies a partial catalog patch. Runs in a transaction so a full
// save cannot race an inventory write on the same document.
func (u *ProductUsecase) Update(ctx context.Context, id string, patch productdom.Patch) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}

	var out productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		applyProductPatch(&p, patch)
		p.UpdatedAt = u.now().UTC()
		if err := u.products.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// UpdateStatus is the manual status change (draft included); inventory
// updates never move a product into or out of draft.
func (u *ProductUsecase) UpdateStatus(ctx context.Context, id string, status productdom.Status) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}
	if !status.Valid() {
		return productdom.Product{}, productdom.ErrInvalidStatus
	}

	var out productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		p.Status = status
		p.UpdatedAt = u.now().UTC()
		if err := u.products.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// UpdateInventory adjusts quantity by delta (negative for sales, positive
// for restocks) and persists quantity and derived status together, inside a
// transaction so concurrent adjustments cannot lose an update.
func (u *ProductUsecase) UpdateInventory(ctx context.Context, id string, delta int) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}

	var out productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		p.ApplyInventoryDelta(delta, u.now())
		if err := u.products.SetInventory(ctx, p.ID, p.Quantity, p.Status); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (u *ProductUsecase) IncrementViewCount(ctx context.Context, id string) error {
	if err := u.ready(); err != nil {
		return err
	}
	return u.products.IncrementViewCount(ctx, strings.TrimSpace(id))
}

// IncrementSoldCount takes an explicit amount to support the bulk per-item
// accounting during order creation; by <= 0 defaults to 1.
func (u *ProductUsecase) IncrementSoldCount(ctx context.Context, id string, by int) error {
	if err := u.ready(); err != nil {
		return err
	}
	if by <= 0 {
		by = 1
	}
	return u.products.IncrementSoldCount(ctx, strings.TrimSpace(id), by)
}

// Delete removes the product and decrements the owning store's
// productCount. Historical order items keep their frozen snapshots; nothing
// is relabelled.
func (u *ProductUsecase) Delete(ctx context.Context, id string) error {
	if err := u.ready(); err != nil {
		return err
	}
	return u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if err := u.products.Delete(ctx, p.ID); err != nil {
			return err
		}
		return u.stores.IncrementProductCount(ctx, p.StoreID, -1)
	})
}

// Duplicate copies a product into a fresh draft: new identity and slug,
// name suffixed, engagement counters and review fields zeroed.
func (u *ProductUsecase) Duplicate(ctx context.Context, id string) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}

	var out productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		dup := p.CopyForDuplicate(u.newID(), u.now())
		if err := u.products.Create(ctx, dup); err != nil {
			return err
		}
		if err := u.stores.IncrementProductCount(ctx, p.StoreID, 1); err != nil {
			return err
		}
		out = dup
		return nil
	})
	return out, err
}

// AddImage uploads an image object and appends its public URL to the
// product's image list.
func (u *ProductUsecase) AddImage(ctx context.Context, productID, fileName string, data []byte, contentType string) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}
	if u.images == nil {
		return productdom.Product{}, ErrImageStoreNotConfigured
	}

	p, err := u.products.GetByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return productdom.Product{}, err
	}

	// Upload outside the transaction; a retried transaction must not
	// re-upload the object.
	objectPath := fmt.Sprintf("stores/%s/products/%s/%s", p.StoreID, p.ID, strings.TrimSpace(fileName))
	url, err := u.images.Upload(ctx, objectPath, data, contentType)
	if err != nil {
		return productdom.Product{}, err
	}

	var out productdom.Product
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		p.Images = append(p.Images, url)
		p.UpdatedAt = u.now().UTC()
		if err := u.products.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return productdom.Product{}, err
	}
	return out, nil
}

// RemoveImage drops the URL from the product and deletes the object
// best-effort (a missing object only logs).
func (u *ProductUsecase) RemoveImage(ctx context.Context, productID, url string) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}

	url = strings.TrimSpace(url)

	var out productdom.Product
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := u.products.GetByID(ctx, strings.TrimSpace(productID))
		if err != nil {
			return err
		}
		kept := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			if img != url {
				kept = append(kept, img)
			}
		}
		p.Images = kept
		p.UpdatedAt = u.now().UTC()
		if err := u.products.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return productdom.Product{}, err
	}

	if u.images != nil {
		if err := u.images.Remove(ctx, url); err != nil {
			zap.S().Warnf("[product_uc] image object delete failed productId=%s url=%s err=%v", out.ID, url, err)
		}
	}
	return out, nil
}

// =======================
// Queries
// =======================

func (u *ProductUsecase) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}
	return u.products.GetByID(ctx, strings.TrimSpace(id))
}

func (u *ProductUsecase) GetBySlug(ctx context.Context, slug string) (productdom.Product, error) {
	if err := u.ready(); err != nil {
		return productdom.Product{}, err
	}
	return u.products.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (u *ProductUsecase) ListByStore(ctx context.Context, storeID string, onlyActive bool, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return productdom.CursorPageResult{}, err
	}
	return u.products.ListByStore(ctx, strings.TrimSpace(storeID), onlyActive, cpage)
}

func (u *ProductUsecase) ListByCategory(ctx context.Context, category string, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return productdom.CursorPageResult{}, err
	}
	return u.products.ListByCategory(ctx, strings.TrimSpace(category), cpage)
}

func (u *ProductUsecase) ListFeatured(ctx context.Context, limit int) ([]productdom.Product, error) {
	if err := u.ready(); err != nil {
		return nil, err
	}
	return u.products.ListFeatured(ctx, limit)
}

func (u *ProductUsecase) ListBestSelling(ctx context.Context, storeID string, limit int) ([]productdom.Product, error) {
	if err := u.ready(); err != nil {
		return nil, err
	}
	return u.products.ListBestSelling(ctx, strings.TrimSpace(storeID), limit)
}

// Search goes through the pluggable searcher when one is wired; the
// baseline is the repository's name-prefix range scan.
func (u *ProductUsecase) Search(ctx context.Context, term string, limit int) ([]productdom.Product, error) {
	if err := u.ready(); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []productdom.Product{}, nil
	}
	if u.searcher != nil {
		return u.searcher.SearchProducts(ctx, term, limit)
	}
	return u.products.SearchByNamePrefix(ctx, term, limit)
}

// =======================
// Helpers
// =======================

func applyProductPatch(p *productdom.Product, patch productdom.Patch) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.HasVariants != nil {
		p.HasVariants = *patch.HasVariants
	}
	if patch.Variants != nil {
		p.Variants = *patch.Variants
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CompareAtPrice != nil {
		p.CompareAtPrice = patch.CompareAtPrice
	}
	if patch.TrackInventory != nil {
		p.TrackInventory = *patch.TrackInventory
	}
}
