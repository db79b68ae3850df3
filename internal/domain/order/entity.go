package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ========================================
// Value types (stored inside Order)
// ========================================

// Item is a frozen snapshot of a product line at order time. It never
// resolves against current product state; deleting a product leaves
// historical items intact.
type Item struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unitPrice"`
	Total     int    `json:"total"` // Quantity * UnitPrice
}

// Address is the structured delivery address.
type Address struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Street    string `json:"street"`
	Building  string `json:"building,omitempty"`
	Floor     string `json:"floor,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status  Status    `json:"status"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
	ActorID string    `json:"actorId,omitempty"`
}

// PaymentDetails records a gateway transaction reference once the payment
// status carries one.
type PaymentDetails struct {
	TransactionRef string    `json:"transactionRef"`
	PaidAt         time.Time `json:"paidAt"`
}

// ========================================
// Entity
// ========================================

type Order struct {
	ID          string
	OrderNumber string

	CustomerID string
	StoreID    string

	Items []Item

	Subtotal    int
	Discount    int
	DeliveryFee int
	Tax         int // reserved, currently always 0
	Total       int
	Currency    string
	CouponCode  string

	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	PaymentDetails *PaymentDetails

	DeliveryAddress Address
	DeliveryMethod  DeliveryMethod
	DeliveryNotes   string

	Status        Status
	StatusHistory []StatusChange

	TrackingNumber    string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time

	CustomerEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID            = errors.New("order: invalid id")
	ErrInvalidCustomerID    = errors.New("order: invalid customerId")
	ErrInvalidStoreID       = errors.New("order: invalid storeId")
	ErrInvalidItems         = errors.New("order: items must be non-empty")
	ErrInvalidItem          = errors.New("order: invalid item")
	ErrInvalidAddress       = errors.New("order: invalid delivery address")
	ErrInvalidPaymentMethod = errors.New("order: invalid payment method")
	ErrInvalidPaymentStatus = errors.New("order: invalid payment status")
	ErrInvalidDelivery      = errors.New("order: invalid delivery method")
	ErrInvalidStatus        = errors.New("order: invalid status")
	ErrInvalidDiscount      = errors.New("order: discount must be >= 0")
	ErrNotCancellable       = errors.New("order: only pending or confirmed orders can be cancelled")
)

const DefaultCurrency = "EGP"

// ========================================
// Constructors
// ========================================

// NewItem freezes one product line. Total is always derived here, never
// taken from the caller.
func NewItem(productID, variantID, name string, quantity, unitPrice int) (Item, error) {
	productID = strings.TrimSpace(productID)
	name = strings.TrimSpace(name)
	if productID == "" || name == "" || quantity <= 0 || unitPrice < 0 {
		return Item{}, ErrInvalidItem
	}
	return Item{
		ProductID: productID,
		VariantID: strings.TrimSpace(variantID),
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     quantity * unitPrice,
	}, nil
}

// Subtotal sums the item totals.
func SubtotalOf(items []Item) int {
	sum := 0
	for _, it := range items {
		sum += it.Total
	}
	return sum
}

// New builds a freshly created order in status pending with a single-entry
// status history. Monetary fields are fixed here and never recomputed on
// later status changes.
func New(
	id string,
	orderNumber string,
	customerID string,
	storeID string,
	items []Item,
	discount int,
	couponCode string,
	addr Address,
	paymentMethod PaymentMethod,
	deliveryMethod DeliveryMethod,
	deliveryNotes string,
	customerEmail string,
	createdAt time.Time,
) (Order, error) {
	subtotal := SubtotalOf(items)
	fee := DeliveryFeeFor(deliveryMethod, subtotal)
	tax := 0

	o := Order{
		ID:          strings.TrimSpace(id),
		OrderNumber: strings.TrimSpace(orderNumber),
		CustomerID:  strings.TrimSpace(customerID),
		StoreID:     strings.TrimSpace(storeID),
		Items:       items,

		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal - discount + fee + tax,
		Currency:    DefaultCurrency,
		CouponCode:  strings.TrimSpace(couponCode),

		PaymentMethod: paymentMethod,
		PaymentStatus: PaymentPending,

		DeliveryAddress: normalizeAddress(addr),
		DeliveryMethod:  deliveryMethod,
		DeliveryNotes:   strings.TrimSpace(deliveryNotes),

		Status: StatusPending,
		StatusHistory: []StatusChange{
			{Status: StatusPending, At: createdAt.UTC()},
		},

		CustomerEmail: strings.TrimSpace(customerEmail),

		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	if err := o.validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// NewOrderNumber derives the human-readable number from the creation
// timestamp plus a random suffix. Uniqueness is by convention, not enforced.
func NewOrderNumber(at time.Time, suffix string) string {
	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	return fmt.Sprintf("SHP-%s-%s", at.UTC().Format("20060102"), suffix)
}

// ========================================
// Behavior (mutators)
// ========================================

// ApplyStatus appends a history entry and sets the new status. It is
// deliberately permissive about the transition itself (administrative
// overrides); use CanTransition for the policy check. ActualDelivery is
// stamped the first time the order reaches delivered.
func (o *Order) ApplyStatus(s Status, at time.Time, note, actorID string) error {
	if !s.Valid() {
		return ErrInvalidStatus
	}
	at = at.UTC()
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:  s,
		At:      at,
		Note:    strings.TrimSpace(note),
		ActorID: strings.TrimSpace(actorID),
	})
	o.Status = s
	if s == StatusDelivered && o.ActualDelivery == nil {
		t := at
		o.ActualDelivery = &t
	}
	o.UpdatedAt = at
	return nil
}

// ApplyPaymentStatus sets the payment status; when a transaction reference
// is supplied it is recorded together with a paid-at timestamp.
func (o *Order) ApplyPaymentStatus(ps PaymentStatus, transactionRef string, at time.Time) error {
	if !ps.Valid() {
		return ErrInvalidPaymentStatus
	}
	o.PaymentStatus = ps
	if ref := strings.TrimSpace(transactionRef); ref != "" {
		o.PaymentDetails = &PaymentDetails{TransactionRef: ref, PaidAt: at.UTC()}
	}
	o.UpdatedAt = at.UTC()
	return nil
}

// SetTracking attaches shipment metadata. Pure metadata update.
func (o *Order) SetTracking(trackingNumber string, estimated *time.Time, at time.Time) {
	o.TrackingNumber = strings.TrimSpace(trackingNumber)
	if estimated != nil {
		t := estimated.UTC()
		o.EstimatedDelivery = &t
	}
	o.UpdatedAt = at.UTC()
}

// CanCancel reports whether cancellation is legal from the current status.
func (o Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ========================================
// Validation
// ========================================

func (o Order) validate() error {
	if o.ID == "" {
		return ErrInvalidID
	}
	if o.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if o.StoreID == "" {
		return ErrInvalidStoreID
	}
	if len(o.Items) == 0 {
		return ErrInvalidItems
	}
	for _, it := range o.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return ErrInvalidItem
		}
	}
	if o.Discount < 0 {
		return ErrInvalidDiscount
	}
	if !o.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if !o.DeliveryMethod.Valid() {
		return ErrInvalidDelivery
	}
	if err := validateAddress(o.DeliveryAddress); err != nil {
		return err
	}
	if o.CreatedAt.IsZero() {
		return errors.New("order: invalid createdAt")
	}
	return nil
}

func validateAddress(a Address) error {
	if a.Name == "" || a.Phone == "" || a.Region == "" || a.City == "" || a.Street == "" {
		return ErrInvalidAddress
	}
	return nil
}

// ========================================
// Helpers
// ========================================

func normalizeAddress(a Address) Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Region = strings.TrimSpace(a.Region)
	a.City = strings.TrimSpace(a.City)
	a.Street = strings.TrimSpace(a.Street)
	a.Building = strings.TrimSpace(a.Building)
	a.Floor = strings.TrimSpace(a.Floor)
	a.Apartment = strings.TrimSpace(a.Apartment)
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}
