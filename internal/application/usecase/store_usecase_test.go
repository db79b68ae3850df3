package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	storedom "shoporia/internal/domain/store"
)

type storeFixture struct {
	stores *fakeStoreRepo
	uc     *StoreUsecase
	now    time.Time
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	f := &storeFixture{
		stores: newFakeStoreRepo(),
		now:    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	f.uc = NewStoreUsecase(f.stores, &fakeTransactor{})
	f.uc.now = func() time.Time { return f.now }

	var seq int
	f.uc.newID = func() string {
		seq++
		return fmt.Sprintf("store-%06d", seq)
	}
	return f
}

func TestStoreCreate_Defaults(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	s, err := f.uc.Create(ctx, CreateStoreInput{
		OwnerID:  "owner-1",
		Name:     "Mona Crafts",
		Category: "handmade",
	})
	require.NoError(t, err)
	require.Equal(t, storedom.StatusPending, s.Status)
	require.Equal(t, storedom.DefaultSettings(), s.Settings)
	require.Nil(t, s.ApprovedAt)
	require.Zero(t, s.ProductCount)
	require.Zero(t, s.OrderCount)
	require.Contains(t, s.Slug, "mona-crafts-")

	_, err = f.uc.Create(ctx, CreateStoreInput{OwnerID: "owner-2", Name: ""})
	require.ErrorIs(t, err, storedom.ErrInvalidName)
}

func TestStoreCreate_SettingsOverrides(t *testing.T) {
	f := newStoreFixture(t)

	lang := "en"
	fawry := true
	s, err := f.uc.Create(context.Background(), CreateStoreInput{
		OwnerID:  "owner-1",
		Name:     "Cairo Gadgets",
		Category: "electronics",
		Settings: &storedom.SettingsPatch{Language: &lang, AcceptFawry: &fawry},
	})
	require.NoError(t, err)
	require.Equal(t, "en", s.Settings.Language)
	require.True(t, s.Settings.AcceptFawry)
	// Untouched keys keep their defaults.
	require.Equal(t, "EGP", s.Settings.Currency)
	require.True(t, s.Settings.AcceptCash)
}

func TestStoreUpdateStatus_ApprovedAt(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	s, err := f.uc.Create(ctx, CreateStoreInput{OwnerID: "owner-1", Name: "Mona Crafts", Category: "handmade"})
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	got, err := f.uc.UpdateStatus(ctx, s.ID, storedom.StatusActive)
	require.NoError(t, err)
	require.Equal(t, storedom.StatusActive, got.Status)
	require.NotNil(t, got.ApprovedAt)
	first := *got.ApprovedAt
	require.Equal(t, f.now, first)

	// Suspend and re-activate: the original approval stamp survives.
	f.now = f.now.Add(time.Hour)
	_, err = f.uc.UpdateStatus(ctx, s.ID, storedom.StatusSuspended)
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	got, err = f.uc.UpdateStatus(ctx, s.ID, storedom.StatusActive)
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedAt)
	require.Equal(t, first, *got.ApprovedAt)

	_, err = f.uc.UpdateStatus(ctx, s.ID, storedom.Status("bogus"))
	require.ErrorIs(t, err, storedom.ErrInvalidStatus)
}

func TestStoreUpdateSettings_ShallowMerge(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	s, err := f.uc.Create(ctx, CreateStoreInput{OwnerID: "owner-1", Name: "Mona Crafts", Category: "handmade"})
	require.NoError(t, err)

	instapay := true
	got, err := f.uc.UpdateSettings(ctx, s.ID, storedom.SettingsPatch{AcceptInstapay: &instapay})
	require.NoError(t, err)
	require.True(t, got.Settings.AcceptInstapay)
	require.Equal(t, "EGP", got.Settings.Currency)
	require.True(t, got.Settings.AcceptCash)

	_, err = f.uc.UpdateSettings(ctx, "missing", storedom.SettingsPatch{AcceptInstapay: &instapay})
	require.ErrorIs(t, err, storedom.ErrNotFound)
}

func TestStoreUpdate_Patch(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	s, err := f.uc.Create(ctx, CreateStoreInput{OwnerID: "owner-1", Name: "Mona Crafts", Category: "handmade"})
	require.NoError(t, err)

	name := " Mona's Atelier "
	desc := "Handmade goods from Cairo"
	got, err := f.uc.Update(ctx, s.ID, storedom.Patch{Name: &name, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "Mona's Atelier", got.Name)
	require.Equal(t, "Handmade goods from Cairo", got.Description)
	require.Equal(t, "handmade", got.Category)
	// Slug is assigned at creation and never re-derived.
	require.Equal(t, s.Slug, got.Slug)
}

func TestStoreCounterIncrements(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	s, err := f.uc.Create(ctx, CreateStoreInput{OwnerID: "owner-1", Name: "Mona Crafts", Category: "handmade"})
	require.NoError(t, err)

	require.NoError(t, f.uc.IncrementProductCount(ctx, s.ID, 3))
	require.NoError(t, f.uc.IncrementProductCount(ctx, s.ID, -1))
	require.NoError(t, f.uc.IncrementOrderCount(ctx, s.ID, 2))

	// Zero deltas are a no-op, even for unknown ids.
	require.NoError(t, f.uc.IncrementProductCount(ctx, "missing", 0))
	require.NoError(t, f.uc.IncrementOrderCount(ctx, "missing", 0))

	got, err := f.uc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.ProductCount)
	require.Equal(t, 2, got.OrderCount)
}
