package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dbcommon "shoporia/internal/adapters/out/db/common"
	common "shoporia/internal/domain/common"
	productdom "shoporia/internal/domain/product"
)

// PostgreSQL implementation of product.Repository. Images and variants are
// stored as JSONB; the counters are adjusted with arithmetic updates so they
// stay atomic under concurrency.
type ProductRepositoryPG struct {
	DB *sql.DB
}

func NewProductRepositoryPG(db *sql.DB) *ProductRepositoryPG {
	return &ProductRepositoryPG{DB: db}
}

const productColumns = `
  id, slug, store_id, name, description, category, images,
  has_variants, variants, featured,
  price, compare_at_price, currency,
  quantity, track_inventory, status,
  view_count, sold_count, rating, review_count,
  created_at, updated_at`

// ========================
// Queries
// ========================

func (r *ProductRepositoryPG) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	p, err := scanProduct(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryPG) GetBySlug(ctx context.Context, slug string) (productdom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1 LIMIT 1`, productColumns)
	p, err := scanProduct(run.QueryRowContext(ctx, q, strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryPG) ListByStore(ctx context.Context, storeID string, onlyActive bool, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	where := "store_id = $1"
	args := []any{strings.TrimSpace(storeID)}
	if onlyActive {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(productdom.StatusActive))
	}
	return r.listProducts(ctx, where, args, cpage)
}

func (r *ProductRepositoryPG) ListByCategory(ctx context.Context, category string, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	where := "category = $1 AND status = $2"
	args := []any{strings.TrimSpace(category), string(productdom.StatusActive)}
	return r.listProducts(ctx, where, args, cpage)
}

func (r *ProductRepositoryPG) ListFeatured(ctx context.Context, limit int) ([]productdom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit = common.NormalizeLimit(limit, 10, 50)
	q := fmt.Sprintf(`SELECT %s FROM products WHERE featured AND status = $1 ORDER BY created_at DESC LIMIT $2`, productColumns)
	rows, err := run.QueryContext(ctx, q, string(productdom.StatusActive), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProductRows(rows)
}

func (r *ProductRepositoryPG) ListBestSelling(ctx context.Context, storeID string, limit int) ([]productdom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit = common.NormalizeLimit(limit, 10, 50)

	where := "TRUE"
	args := []any{}
	if storeID = strings.TrimSpace(storeID); storeID != "" {
		where = "store_id = $1"
		args = append(args, storeID)
	}
	q := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY sold_count DESC, id LIMIT $%d`,
		productColumns, where, len(args)+1)
	args = append(args, limit)

	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProductRows(rows)
}

func (r *ProductRepositoryPG) SearchByNamePrefix(ctx context.Context, term string, limit int) ([]productdom.Product, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	limit = common.NormalizeLimit(limit, 20, 50)

	q := fmt.Sprintf(`SELECT %s FROM products WHERE name LIKE $1 ORDER BY name LIMIT $2`, productColumns)
	rows, err := run.QueryContext(ctx, q, likePrefix(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProductRows(rows)
}

func (r *ProductRepositoryPG) listProducts(ctx context.Context, where string, args []any, cpage productdom.CursorPage) (productdom.CursorPageResult, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return productdom.CursorPageResult{}, err
		}
		where += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, t, id)
	}

	q := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		productColumns, where, len(args)+1)
	args = append(args, limit)

	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return productdom.CursorPageResult{}, err
	}
	defer rows.Close()

	items, err := collectProductRows(rows)
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

// ========================
// Commands
// ========================

func (r *ProductRepositoryPG) Create(ctx context.Context, p productdom.Product) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	images, variants, err := marshalProductJSON(p)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO products (
  id, slug, store_id, name, description, category, images,
  has_variants, variants, featured,
  price, compare_at_price, currency,
  quantity, track_inventory, status,
  view_count, sold_count, rating, review_count,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)`
	_, err = run.ExecContext(ctx, q,
		p.ID, p.Slug, p.StoreID, p.Name, p.Description, p.Category, images,
		p.HasVariants, variants, p.Featured,
		p.Price, p.CompareAtPrice, p.Currency,
		p.Quantity, p.TrackInventory, string(p.Status),
		p.ViewCount, p.SoldCount, p.Rating, p.ReviewCount,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return productdom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProductRepositoryPG) Save(ctx context.Context, p productdom.Product) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	images, variants, err := marshalProductJSON(p)
	if err != nil {
		return err
	}

	// quantity, view_count and sold_count are left out on purpose; they move
	// only through SetInventory and the Increment* operations, so a catalog
	// save cannot write back a stale read over them.
	const q = `
UPDATE products SET
  slug = $2, store_id = $3, name = $4, description = $5, category = $6, images = $7,
  has_variants = $8, variants = $9, featured = $10,
  price = $11, compare_at_price = $12, currency = $13,
  track_inventory = $14, status = $15,
  rating = $16, review_count = $17,
  updated_at = $18
WHERE id = $1`
	res, err := run.ExecContext(ctx, q,
		p.ID, p.Slug, p.StoreID, p.Name, p.Description, p.Category, images,
		p.HasVariants, variants, p.Featured,
		p.Price, p.CompareAtPrice, p.Currency,
		p.TrackInventory, string(p.Status),
		p.Rating, p.ReviewCount,
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

func (r *ProductRepositoryPG) Delete(ctx context.Context, id string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	res, err := run.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

func (r *ProductRepositoryPG) SetInventory(ctx context.Context, id string, quantity int, status productdom.Status) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `UPDATE products SET quantity = $2, status = $3, updated_at = $4 WHERE id = $1`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(id), quantity, string(status), time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

// Counter updates are arithmetic in SQL, never read-modify-write.
func (r *ProductRepositoryPG) IncrementSoldCount(ctx context.Context, id string, by int) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `UPDATE products SET sold_count = sold_count + $2 WHERE id = $1`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(id), by)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

func (r *ProductRepositoryPG) IncrementViewCount(ctx context.Context, id string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `UPDATE products SET view_count = view_count + 1 WHERE id = $1`
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

// ========================
// Row mapping
// ========================

func likePrefix(term string) string {
	term = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return term + "%"
}

func marshalProductJSON(p productdom.Product) (images, variants []byte, err error) {
	if images, err = json.Marshal(p.Images); err != nil {
		return nil, nil, err
	}
	if variants, err = json.Marshal(p.Variants); err != nil {
		return nil, nil, err
	}
	return images, variants, nil
}

func scanProduct(s dbcommon.RowScanner) (productdom.Product, error) {
	var (
		p              productdom.Product
		images         []byte
		variants       []byte
		compareAtPrice sql.NullInt64
		description    sql.NullString
		category       sql.NullString
		status         string
	)

	err := s.Scan(
		&p.ID, &p.Slug, &p.StoreID, &p.Name, &description, &category, &images,
		&p.HasVariants, &variants, &p.Featured,
		&p.Price, &compareAtPrice, &p.Currency,
		&p.Quantity, &p.TrackInventory, &status,
		&p.ViewCount, &p.SoldCount, &p.Rating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return productdom.Product{}, err
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return productdom.Product{}, fmt.Errorf("products.images: %w", err)
		}
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return productdom.Product{}, fmt.Errorf("products.variants: %w", err)
		}
	}
	if compareAtPrice.Valid {
		v := int(compareAtPrice.Int64)
		p.CompareAtPrice = &v
	}
	p.Description = description.String
	p.Category = category.String
	p.Status = productdom.Status(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return p, nil
}

func collectProductRows(rows *sql.Rows) ([]productdom.Product, error) {
	var out []productdom.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
