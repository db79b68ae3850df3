package product

import (
	"errors"
	"strings"
	"time"
)

// ========================================
// Value types
// ========================================

// Variant is an option axis definition (e.g. Size -> S/M/L).
type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Status is the product lifecycle state. draft is manual-only; inventory
// changes never move a product into or out of draft.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusOutOfStock Status = "out_of_stock"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusOutOfStock:
		return true
	}
	return false
}

// ========================================
// Entity
// ========================================

type Product struct {
	ID      string
	Slug    string
	StoreID string

	Name        string
	Description string
	Category    string
	Images      []string
	HasVariants bool
	Variants    []Variant
	Featured    bool

	Price          int
	CompareAtPrice *int
	Currency       string

	Quantity       int
	TrackInventory bool

	Status Status

	ViewCount int
	SoldCount int

	// Owned by the review subsystem; read-only here.
	Rating      float64
	ReviewCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID      = errors.New("product: invalid id")
	ErrInvalidStoreID = errors.New("product: invalid storeId")
	ErrInvalidName    = errors.New("product: invalid name")
	ErrInvalidPrice   = errors.New("product: price must be >= 0")
	ErrInvalidStatus  = errors.New("product: invalid status")
)

const DefaultCurrency = "EGP"

// ========================================
// Constructors
// ========================================

// New builds a product with creation defaults: status draft, zero counters,
// fixed currency, slug derived from name + id suffix.
func New(id, storeID, name, description, category string, price int, createdAt time.Time) (Product, error) {
	p := Product{
		ID:          strings.TrimSpace(id),
		StoreID:     strings.TrimSpace(storeID),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Price:       price,
		Currency:    DefaultCurrency,
		Status:      StatusDraft,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
	p.Slug = MakeSlug(p.Name, p.ID)
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// MakeSlug derives the URL slug from the name plus an id suffix so two
// products with the same name stay addressable.
func MakeSlug(name, id string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	suffix := strings.TrimSpace(id)
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// ========================================
// Behavior (mutators)
// ========================================

// ApplyInventoryDelta adjusts the quantity and derives the status. Only the
// active <-> out_of_stock flip is automatic; draft is never touched. The
// quantity may go negative when callers adjust past zero; the caller decides
// whether that is an error.
func (p *Product) ApplyInventoryDelta(delta int, at time.Time) {
	p.Quantity += delta
	switch {
	case p.Quantity <= 0 && p.Status == StatusActive:
		p.Status = StatusOutOfStock
	case p.Quantity > 0 && p.Status == StatusOutOfStock:
		p.Status = StatusActive
	}
	p.UpdatedAt = at.UTC()
}

// CopyForDuplicate returns a copy for the duplicate operation: new identity
// and slug, name suffixed, status reset to draft, engagement counters and
// review fields zeroed.
func (p Product) CopyForDuplicate(newID string, at time.Time) Product {
	out := p
	out.ID = strings.TrimSpace(newID)
	out.Name = p.Name + " (Copy)"
	out.Slug = MakeSlug(out.Name, out.ID)
	out.Status = StatusDraft
	out.ViewCount = 0
	out.SoldCount = 0
	out.Rating = 0
	out.ReviewCount = 0
	out.Images = append([]string(nil), p.Images...)
	out.Variants = append([]Variant(nil), p.Variants...)
	out.CreatedAt = at.UTC()
	out.UpdatedAt = at.UTC()
	return out
}

// ========================================
// Validation
// ========================================

func (p Product) validate() error {
	if p.ID == "" {
		return ErrInvalidID
	}
	if p.StoreID == "" {
		return ErrInvalidStoreID
	}
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
