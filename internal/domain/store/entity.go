package store

import (
	"errors"
	"strings"
	"time"

	product "shoporia/internal/domain/product"
)

// Status is the store lifecycle state. pending means awaiting admin
// approval.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Settings is the nested store configuration. Updates merge shallowly:
// keys absent from the patch keep their current value.
type Settings struct {
	Currency           string `json:"currency"`
	Language           string `json:"language"`
	AcceptCash         bool   `json:"acceptCash"`
	AcceptVodafoneCash bool   `json:"acceptVodafoneCash"`
	AcceptInstapay     bool   `json:"acceptInstapay"`
	AcceptFawry        bool   `json:"acceptFawry"`
}

// SettingsPatch carries the shallow-merge update; nil means "keep".
type SettingsPatch struct {
	Currency           *string
	Language           *string
	AcceptCash         *bool
	AcceptVodafoneCash *bool
	AcceptInstapay     *bool
	AcceptFawry        *bool
}

func DefaultSettings() Settings {
	return Settings{
		Currency:   "EGP",
		Language:   "ar",
		AcceptCash: true,
	}
}

// ========================================
// Entity
// ========================================

type Store struct {
	ID      string
	Slug    string
	OwnerID string

	Name        string
	Category    string
	Description string

	Status     Status
	ApprovedAt *time.Time

	// Aggregate counters. Never written directly by callers; mutated only
	// through the repository increment operations.
	ProductCount int
	ServiceCount int
	OrderCount   int

	Settings Settings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID      = errors.New("store: invalid id")
	ErrInvalidOwnerID = errors.New("store: invalid ownerId")
	ErrInvalidName    = errors.New("store: invalid name")
	ErrInvalidStatus  = errors.New("store: invalid status")
)

// ========================================
// Constructors
// ========================================

// New builds a store with creation defaults: status pending, default
// settings, zero counters.
func New(id, ownerID, name, category, description string, createdAt time.Time) (Store, error) {
	s := Store{
		ID:          strings.TrimSpace(id),
		OwnerID:     strings.TrimSpace(ownerID),
		Name:        strings.TrimSpace(name),
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		Status:      StatusPending,
		Settings:    DefaultSettings(),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
	s.Slug = product.MakeSlug(s.Name, s.ID)
	if err := s.validate(); err != nil {
		return Store{}, err
	}
	return s, nil
}

// ========================================
// Behavior (mutators)
// ========================================

// ApplyStatus sets the status without legality checks (administrative
// callers are trusted) and stamps ApprovedAt on the transition to active.
func (s *Store) ApplyStatus(next Status, at time.Time) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if next == StatusActive && s.Status != StatusActive && s.ApprovedAt == nil {
		t := at.UTC()
		s.ApprovedAt = &t
	}
	s.Status = next
	s.UpdatedAt = at.UTC()
	return nil
}

// ApplySettings shallow-merges the patch onto the current settings.
func (s *Store) ApplySettings(p SettingsPatch, at time.Time) {
	if p.Currency != nil {
		s.Settings.Currency = strings.TrimSpace(*p.Currency)
	}
	if p.Language != nil {
		s.Settings.Language = strings.TrimSpace(*p.Language)
	}
	if p.AcceptCash != nil {
		s.Settings.AcceptCash = *p.AcceptCash
	}
	if p.AcceptVodafoneCash != nil {
		s.Settings.AcceptVodafoneCash = *p.AcceptVodafoneCash
	}
	if p.AcceptInstapay != nil {
		s.Settings.AcceptInstapay = *p.AcceptInstapay
	}
	if p.AcceptFawry != nil {
		s.Settings.AcceptFawry = *p.AcceptFawry
	}
	s.UpdatedAt = at.UTC()
}

// ========================================
// Validation
// ========================================

func (s Store) validate() error {
	if s.ID == "" {
		return ErrInvalidID
	}
	if s.OwnerID == "" {
		return ErrInvalidOwnerID
	}
	if s.Name == "" {
		return ErrInvalidName
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
