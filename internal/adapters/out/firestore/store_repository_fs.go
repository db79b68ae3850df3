package firestore

import (
	"context"
	"errors"
	"strings"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	common "shoporia/internal/domain/common"
	storedom "shoporia/internal/domain/store"
)

// Firestore implementation of store.Repository
type StoreRepositoryFS struct {
	Client *fs.Client
}

func NewStoreRepositoryFS(client *fs.Client) *StoreRepositoryFS {
	return &StoreRepositoryFS{Client: client}
}

func (r *StoreRepositoryFS) storesCol() *fs.CollectionRef {
	return r.Client.Collection("stores")
}

// ========================
// Queries
// ========================

func (r *StoreRepositoryFS) GetByID(ctx context.Context, id string) (storedom.Store, error) {
	if r.Client == nil {
		return storedom.Store{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storedom.Store{}, storedom.ErrNotFound
	}

	snap, err := fscommon.GetDoc(ctx, r.storesCol().Doc(id))
	if err != nil {
		if fscommon.IsNotFound(err) {
			return storedom.Store{}, storedom.ErrNotFound
		}
		return storedom.Store{}, err
	}
	return docToStore(snap)
}

func (r *StoreRepositoryFS) GetBySlug(ctx context.Context, slug string) (storedom.Store, error) {
	if r.Client == nil {
		return storedom.Store{}, errors.New("firestore client is nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return storedom.Store{}, storedom.ErrNotFound
	}
	return r.firstMatch(ctx, r.storesCol().Where("slug", "==", slug))
}

// GetByOwner assumes one store per owner; first match wins.
func (r *StoreRepositoryFS) GetByOwner(ctx context.Context, ownerID string) (storedom.Store, error) {
	if r.Client == nil {
		return storedom.Store{}, errors.New("firestore client is nil")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return storedom.Store{}, storedom.ErrNotFound
	}
	return r.firstMatch(ctx, r.storesCol().Where("ownerId", "==", ownerID))
}

func (r *StoreRepositoryFS) firstMatch(ctx context.Context, q fs.Query) (storedom.Store, error) {
	it := q.Limit(1).Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return storedom.Store{}, storedom.ErrNotFound
	}
	if err != nil {
		return storedom.Store{}, err
	}
	return docToStore(doc)
}

func (r *StoreRepositoryFS) ListActive(ctx context.Context, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	if r.Client == nil {
		return storedom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.storesCol().Where("status", "==", string(storedom.StatusActive))
	return r.listStores(ctx, q, cpage)
}

func (r *StoreRepositoryFS) ListByCategory(ctx context.Context, category string, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	if r.Client == nil {
		return storedom.CursorPageResult{}, errors.New("firestore client is nil")
	}
	q := r.storesCol().
		Where("category", "==", strings.TrimSpace(category)).
		Where("status", "==", string(storedom.StatusActive))
	return r.listStores(ctx, q, cpage)
}

func (r *StoreRepositoryFS) SearchByNamePrefix(ctx context.Context, term string, limit int) ([]storedom.Store, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	limit = common.NormalizeLimit(limit, 20, 50)

	it := r.storesCol().
		Where("name", ">=", term).
		Where("name", "<=", fscommon.PrefixEnd(term)).
		OrderBy("name", fs.Asc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var out []storedom.Store
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		s, err := docToStore(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *StoreRepositoryFS) listStores(ctx context.Context, q fs.Query, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	limit := common.NormalizeLimit(cpage.Limit, 20, 100)

	q = q.OrderBy("createdAt", fs.Desc).OrderBy(fs.DocumentID, fs.Desc)
	if after := strings.TrimSpace(cpage.After); after != "" {
		t, id, err := common.DecodeTimeCursor(after)
		if err != nil {
			return storedom.CursorPageResult{}, err
		}
		q = q.StartAfter(t, id)
	}

	it := q.Limit(limit).Documents(ctx)
	defer it.Stop()

	var items []storedom.Store
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return storedom.CursorPageResult{}, err
		}
		s, err := docToStore(doc)
		if err != nil {
			return storedom.CursorPageResult{}, err
		}
		items = append(items, s)
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

func (r *StoreRepositoryFS) Create(ctx context.Context, s storedom.Store) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(s.ID) == "" {
		return storedom.ErrConflict
	}
	if err := fscommon.CreateDoc(ctx, r.storesCol().Doc(s.ID), storeToDoc(s)); err != nil {
		if fscommon.IsAlreadyExists(err) {
			return storedom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *StoreRepositoryFS) Save(ctx context.Context, s storedom.Store) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(s.ID) == "" {
		return storedom.ErrNotFound
	}
	return fscommon.SetDoc(ctx, r.storesCol().Doc(s.ID), storeToDoc(s))
}

func (r *StoreRepositoryFS) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storedom.ErrNotFound
	}
	return fscommon.DeleteDoc(ctx, r.storesCol().Doc(id))
}

// Counter updates use field transforms so concurrent writers never lose an
// increment.
func (r *StoreRepositoryFS) IncrementProductCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "productCount", delta)
}

func (r *StoreRepositoryFS) IncrementOrderCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, "orderCount", delta)
}

func (r *StoreRepositoryFS) increment(ctx context.Context, id, field string, delta int) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storedom.ErrNotFound
	}
	if delta == 0 {
		return nil
	}
	err := fscommon.UpdateDoc(ctx, r.storesCol().Doc(id), []fs.Update{
		{Path: field, Value: fs.Increment(delta)},
	})
	if fscommon.IsNotFound(err) {
		return storedom.ErrNotFound
	}
	return err
}
