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
	storedom "shoporia/internal/domain/store"
)

// PostgreSQL implementation of store.Repository. Settings are stored as
// JSONB; counters are adjusted atomically in SQL.
type StoreRepositoryPG struct {
	DB *sql.DB
}

func NewStoreRepositoryPG(db *sql.DB) *StoreRepositoryPG {
	return &StoreRepositoryPG{DB: db}
}

const storeColumns = `
  id, slug, owner_id, name, category, description,
  status, approved_at,
  product_count, service_count, order_count,
  settings, created_at, updated_at`

// ========================
// Queries
// ========================

func (r *StoreRepositoryPG) GetByID(ctx context.Context, id string) (storedom.Store, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM stores WHERE id = $1`, storeColumns)
	return r.one(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
}

func (r *StoreRepositoryPG) GetBySlug(ctx context.Context, slug string) (storedom.Store, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM stores WHERE slug = $1 LIMIT 1`, storeColumns)
	return r.one(run.QueryRowContext(ctx, q, strings.TrimSpace(slug)))
}

func (r *StoreRepositoryPG) GetByOwner(ctx context.Context, ownerID string) (storedom.Store, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := fmt.Sprintf(`SELECT %s FROM stores WHERE owner_id = $1 ORDER BY created_at LIMIT 1`, storeColumns)
	return r.one(run.QueryRowContext(ctx, q, strings.TrimSpace(ownerID)))
}

func (r *StoreRepositoryPG) one(row *sql.Row) (storedom.Store, error) {
	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storedom.Store{}, storedom.ErrNotFound
		}
		return storedom.Store{}, err
	}
	return s, nil
}

func (r *StoreRepositoryPG) ListActive(ctx context.Context, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	return r.listStores(ctx, "status = $1", []any{string(storedom.StatusActive)}, cpage)
}

func (r *StoreRepositoryPG) ListByCategory(ctx context.Context, category string, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	where := "category = $1 AND status = $2"
	args := []any{strings.TrimSpace(category), string(storedom.StatusActive)}
	return r.listStores(ctx, where, args, cpage)
}

func (r *StoreRepositoryPG) SearchByNamePrefix(ctx context.Context, term string, limit int) ([]storedom.Store, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	limit = common.NormalizeLimit(limit, 20, 50)

	q := fmt.Sprintf(`SELECT %s FROM stores WHERE name LIKE $1 ORDER BY name LIMIT $2`, storeColumns)
	rows, err := run.QueryContext(ctx, q, likePrefix(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStoreRows(rows)
}

func (r *StoreRepositoryPG) listStores(ctx context.Context, where string, args []any, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return storedom.CursorPageResult{}, err
		}
		where += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, t, id)
	}

	q := fmt.Sprintf(`SELECT %s FROM stores WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		storeColumns, where, len(args)+1)
	args = append(args, limit)

	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return storedom.CursorPageResult{}, err
	}
	defer rows.Close()

	items, err := collectStoreRows(rows)
	if err != nil {
		return storedom.CursorPageResult{}, err
	}

	res := storedom.CursorPageResult{Items: items, Limit: limit}
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

func (r *StoreRepositoryPG) Create(ctx context.Context, s storedom.Store) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO stores (
  id, slug, owner_id, name, category, description,
  status, approved_at,
  product_count, service_count, order_count,
  settings, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)`
	_, err = run.ExecContext(ctx, q,
		s.ID, s.Slug, s.OwnerID, s.Name, s.Category, s.Description,
		string(s.Status), s.ApprovedAt,
		s.ProductCount, s.ServiceCount, s.OrderCount,
		settings, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return storedom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *StoreRepositoryPG) Save(ctx context.Context, s storedom.Store) error {
	run := dbcommon.GetRunner(ctx, r.DB)

	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return err
	}

	// Counters are left out on purpose; they move only through the
	// Increment* operations.
	const q = `
UPDATE stores SET
  slug = $2, owner_id = $3, name = $4, category = $5, description = $6,
  status = $7, approved_at = $8,
  settings = $9, updated_at = $10
WHERE id = $1`
	res, err := run.ExecContext(ctx, q,
		s.ID, s.Slug, s.OwnerID, s.Name, s.Category, s.Description,
		string(s.Status), s.ApprovedAt,
		settings, s.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storedom.ErrNotFound
	}
	return nil
}

func (r *StoreRepositoryPG) Delete(ctx context.Context, id string) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	res, err := run.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storedom.ErrNotFound
	}
	return nil
}

func (r *StoreRepositoryPG) IncrementProductCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "product_count", delta)
}

func (r *StoreRepositoryPG) IncrementOrderCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "order_count", delta)
}

func (r *StoreRepositoryPG) increment(ctx context.Context, id, column string, delta int) error {
	run := dbcommon.GetRunner(ctx, r.DB)
	if delta == 0 {
		return nil
	}
	q := fmt.Sprintf(`UPDATE stores SET %s = %s + $2 WHERE id = $1`, column, column)
	res, err := run.ExecContext(ctx, q, strings.TrimSpace(id), delta)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storedom.ErrNotFound
	}
	return nil
}

// ========================
// Row mapping
// ========================

func scanStore(s dbcommon.RowScanner) (storedom.Store, error) {
	var (
		st          storedom.Store
		settings    []byte
		status      string
		category    sql.NullString
		description sql.NullString
		approvedAt  sql.NullTime
	)

	err := s.Scan(
		&st.ID, &st.Slug, &st.OwnerID, &st.Name, &category, &description,
		&status, &approvedAt,
		&st.ProductCount, &st.ServiceCount, &st.OrderCount,
		&settings, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return storedom.Store{}, err
	}

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &st.Settings); err != nil {
			return storedom.Store{}, fmt.Errorf("stores.settings: %w", err)
		}
	} else {
		st.Settings = storedom.DefaultSettings()
	}

	st.Status = storedom.Status(status)
	st.Category = category.String
	st.Description = description.String
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		st.ApprovedAt = &t
	}
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()

	return st, nil
}

func collectStoreRows(rows *sql.Rows) ([]storedom.Store, error) {
	var out []storedom.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
