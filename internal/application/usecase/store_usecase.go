package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	storedom "shoporia/internal/domain/store"
)

// StoreUsecase owns store lifecycle, settings, and the aggregate counters.
type StoreUsecase struct {
	stores storedom.Repository
	tx     Transactor

	now   func() time.Time
	newID func() string
}

func NewStoreUsecase(stores storedom.Repository, tx Transactor) *StoreUsecase {
	return &StoreUsecase{
		stores: stores,
		tx:     tx,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

var ErrStoreUsecaseNotConfigured = errors.New("store usecase: missing repository or transactor")

func (u *StoreUsecase) ready() error {
	if u == nil || u.stores == nil || u.tx == nil {
		return ErrStoreUsecaseNotConfigured
	}
	return nil
}

// =======================
// Commands
// =======================

type CreateStoreInput struct {
	OwnerID     string
	Name        string
	Category    string
	Description string

	// Optional overrides merged onto the default settings.
	Settings *storedom.SettingsPatch
}

func (u *StoreUsecase) Create(ctx context.Context, in CreateStoreInput) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}

	now := u.now().UTC()
	s, err := storedom.New(u.newID(), in.OwnerID, in.Name, in.Category, in.Description, now)
	if err != nil {
		return storedom.Store{}, err
	}
	if in.Settings != nil {
		s.ApplySettings(*in.Settings, now)
	}

	if err := u.stores.Create(ctx, s); err != nil {
		return storedom.Store{}, err
	}
	zap.S().Infof("[store_uc] created storeId=%s slug=%s owner=%s", s.ID, s.Slug, s.OwnerID)
	return s, nil
}

func (u *StoreUsecase) Update(ctx context.Context, id string, patch storedom.Patch) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}

	var out storedom.Store
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stores.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if patch.Name != nil {
			s.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Category != nil {
			s.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Description != nil {
			s.Description = strings.TrimSpace(*patch.Description)
		}
		s.UpdatedAt = u.now().UTC()
		if err := u.stores.Save(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// UpdateSettings shallow-merges the partial settings: keys absent from the
// patch keep their current value.
func (u *StoreUsecase) UpdateSettings(ctx context.Context, id string, patch storedom.SettingsPatch) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}

	var out storedom.Store
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stores.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		s.ApplySettings(patch, u.now())
		if err := u.stores.Save(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// UpdateStatus sets the status with no legality enforcement (administrative
// callers are trusted) and stamps ApprovedAt on the transition to active.
func (u *StoreUsecase) UpdateStatus(ctx context.Context, id string, status storedom.Status) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}
	if !status.Valid() {
		return storedom.Store{}, storedom.ErrInvalidStatus
	}

	var out storedom.Store
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stores.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if err := s.ApplyStatus(status, u.now()); err != nil {
			return err
		}
		if err := u.stores.Save(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func (u *StoreUsecase) Delete(ctx context.Context, id string) error {
	if err := u.ready(); err != nil {
		return err
	}
	return u.stores.Delete(ctx, strings.TrimSpace(id))
}

// IncrementProductCount applies a counter delta through the storage-atomic
// repository operation. Counters are never written directly.
func (u *StoreUsecase) IncrementProductCount(ctx context.Context, id string, delta int) error {
	if err := u.ready(); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	return u.stores.IncrementProductCount(ctx, strings.TrimSpace(id), delta)
}

func (u *StoreUsecase) IncrementOrderCount(ctx context.Context, id string, delta int) error {
	if err := u.ready(); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	return u.stores.IncrementOrderCount(ctx, strings.TrimSpace(id), delta)
}

// =======================
// Queries
// =======================

func (u *StoreUsecase) GetByID(ctx context.Context, id string) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}
	return u.stores.GetByID(ctx, strings.TrimSpace(id))
}

func (u *StoreUsecase) GetBySlug(ctx context.Context, slug string) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}
	return u.stores.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (u *StoreUsecase) GetByOwner(ctx context.Context, ownerID string) (storedom.Store, error) {
	if err := u.ready(); err != nil {
		return storedom.Store{}, err
	}
	return u.stores.GetByOwner(ctx, strings.TrimSpace(ownerID))
}

func (u *StoreUsecase) ListActive(ctx context.Context, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return storedom.CursorPageResult{}, err
	}
	return u.stores.ListActive(ctx, cpage)
}

func (u *StoreUsecase) ListByCategory(ctx context.Context, category string, cpage storedom.CursorPage) (storedom.CursorPageResult, error) {
	if err := u.ready(); err != nil {
		return storedom.CursorPageResult{}, err
	}
	return u.stores.ListByCategory(ctx, strings.TrimSpace(category), cpage)
}

func (u *StoreUsecase) Search(ctx context.Context, term string, limit int) ([]storedom.Store, error) {
	if err := u.ready(); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []storedom.Store{}, nil
	}
	return u.stores.SearchByNamePrefix(ctx, term, limit)
}
