package order

import "strings"

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ParseStatus normalizes and validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// CanTransition is the canonical transition policy:
//
//	pending -> confirmed -> processing -> shipped -> delivered
//	cancelled only from pending or confirmed
//
// ApplyStatus itself stays permissive so administrative overrides remain
// possible; callers that are not admins are expected to consult this table
// before mutating.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusProcessing || to == StatusCancelled
	case StatusProcessing:
		return to == StatusShipped
	case StatusShipped:
		return to == StatusDelivered
	}
	return false
}

// PaymentStatus is the payment bookkeeping state.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is the method selected at checkout. Only status bookkeeping
// is in scope here; gateway integration lives outside the core.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodVodafoneCash PaymentMethod = "vodafone_cash"
	MethodInstapay     PaymentMethod = "instapay"
	MethodFawry        PaymentMethod = "fawry"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodVodafoneCash, MethodInstapay, MethodFawry:
		return true
	}
	return false
}

// DeliveryMethod determines the delivery fee at creation time.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
	DeliveryPickup   DeliveryMethod = "pickup"
)

func (d DeliveryMethod) Valid() bool {
	switch d {
	case DeliveryStandard, DeliveryExpress, DeliveryPickup:
		return true
	}
	return false
}

// Delivery fee policy. Standard delivery is free strictly above the
// threshold; an order at exactly the threshold still pays the standard fee.
const (
	FreeShippingThreshold = 500
	StandardDeliveryFee   = 50
	ExpressDeliveryFee    = 100
)

// DeliveryFeeFor computes the fee for a method given the order subtotal.
func DeliveryFeeFor(method DeliveryMethod, subtotal int) int {
	switch method {
	case DeliveryExpress:
		return ExpressDeliveryFee
	case DeliveryPickup:
		return 0
	default:
		if subtotal > FreeShippingThreshold {
			return 0
		}
		return StandardDeliveryFee
	}
}
