package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testAddress() Address {
	return Address{
		Name:   "Mona Hassan",
		Phone:  "+201001234567",
		Region: "Cairo",
		City:   "Nasr City",
		Street: "12 Abbas El Akkad",
	}
}

func testItems(t *testing.T) []Item {
	t.Helper()
	a, err := NewItem("prod-1", "", "Cotton T-Shirt", 2, 150)
	require.NoError(t, err)
	b, err := NewItem("prod-2", "size-m", "Ceramic Mug", 1, 120)
	require.NoError(t, err)
	return []Item{a, b}
}

func TestNewItem(t *testing.T) {
	it, err := NewItem(" prod-1 ", "", " Shirt ", 3, 100)
	require.NoError(t, err)
	require.Equal(t, "prod-1", it.ProductID)
	require.Equal(t, "Shirt", it.Name)
	require.Equal(t, 300, it.Total)

	_, err = NewItem("prod-1", "", "Shirt", 0, 100)
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewItem("prod-1", "", "Shirt", 1, -1)
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewItem("", "", "Shirt", 1, 100)
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestNew_Totals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := testItems(t) // subtotal 420

	o, err := New("ord-1", "SHP-20260310-AB12CD", "cust-1", "store-1",
		items, 20, "WELCOME", testAddress(),
		MethodCash, DeliveryStandard, "", "mona@example.com", now)
	require.NoError(t, err)

	require.Equal(t, 420, o.Subtotal)
	require.Equal(t, 50, o.DeliveryFee) // 420 <= threshold
	require.Equal(t, 0, o.Tax)
	require.Equal(t, 420-20+50, o.Total)
	require.Equal(t, DefaultCurrency, o.Currency)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, PaymentPending, o.PaymentStatus)

	require.Len(t, o.StatusHistory, 1)
	require.Equal(t, StatusPending, o.StatusHistory[0].Status)
	require.Equal(t, now, o.StatusHistory[0].At)
}

func TestNew_Validation(t *testing.T) {
	now := time.Now()
	items := testItems(t)

	_, err := New("ord-1", "n", "", "store-1", items, 0, "", testAddress(),
		MethodCash, DeliveryStandard, "", "", now)
	require.ErrorIs(t, err, ErrInvalidCustomerID)

	_, err = New("ord-1", "n", "cust-1", "store-1", nil, 0, "", testAddress(),
		MethodCash, DeliveryStandard, "", "", now)
	require.ErrorIs(t, err, ErrInvalidItems)

	_, err = New("ord-1", "n", "cust-1", "store-1", items, -1, "", testAddress(),
		MethodCash, DeliveryStandard, "", "", now)
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = New("ord-1", "n", "cust-1", "store-1", items, 0, "", testAddress(),
		PaymentMethod("paypal"), DeliveryStandard, "", "", now)
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)

	bad := testAddress()
	bad.Phone = ""
	_, err = New("ord-1", "n", "cust-1", "store-1", items, 0, "", bad,
		MethodCash, DeliveryStandard, "", "", now)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestDeliveryFeeFor(t *testing.T) {
	cases := []struct {
		name     string
		method   DeliveryMethod
		subtotal int
		want     int
	}{
		{"standard below threshold", DeliveryStandard, 100, 50},
		{"standard at threshold still pays", DeliveryStandard, 500, 50},
		{"standard above threshold free", DeliveryStandard, 501, 0},
		{"express always flat", DeliveryExpress, 10000, 100},
		{"pickup always free", DeliveryPickup, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeliveryFeeFor(tc.method, tc.subtotal))
		})
	}
}

func TestNewOrderNumber(t *testing.T) {
	at := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "SHP-20260310-AB12CD", NewOrderNumber(at, "ab12cd"))
}

func TestApplyStatus_History(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	o, err := New("ord-1", "n", "cust-1", "store-1", testItems(t), 0, "",
		testAddress(), MethodCash, DeliveryStandard, "", "", now)
	require.NoError(t, err)

	require.NoError(t, o.ApplyStatus(StatusConfirmed, now.Add(time.Hour), "", "admin-1"))
	require.NoError(t, o.ApplyStatus(StatusProcessing, now.Add(2*time.Hour), "packing", ""))

	require.Equal(t, StatusProcessing, o.Status)
	require.Len(t, o.StatusHistory, 3)
	require.Equal(t, "admin-1", o.StatusHistory[1].ActorID)
	require.Equal(t, "packing", o.StatusHistory[2].Note)
	require.True(t, o.StatusHistory[1].At.Before(o.StatusHistory[2].At))

	require.ErrorIs(t, o.ApplyStatus(Status("unknown"), now, "", ""), ErrInvalidStatus)
}

func TestApplyStatus_PermissiveButPolicyExposed(t *testing.T) {
	now := time.Now()
	o, err := New("ord-1", "n", "cust-1", "store-1", testItems(t), 0, "",
		testAddress(), MethodCash, DeliveryStandard, "", "", now)
	require.NoError(t, err)

	// Off-policy jump still applies; the policy table says no.
	require.False(t, CanTransition(StatusPending, StatusShipped))
	require.NoError(t, o.ApplyStatus(StatusShipped, now, "manual override", "admin-1"))
	require.Equal(t, StatusShipped, o.Status)
}

func TestApplyStatus_DeliveredStampsOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	o, err := New("ord-1", "n", "cust-1", "store-1", testItems(t), 0, "",
		testAddress(), MethodCash, DeliveryStandard, "", "", now)
	require.NoError(t, err)

	first := now.Add(24 * time.Hour)
	require.NoError(t, o.ApplyStatus(StatusDelivered, first, "", ""))
	require.NotNil(t, o.ActualDelivery)
	require.Equal(t, first, *o.ActualDelivery)

	// Re-delivery (admin correction) must not move the stamp.
	require.NoError(t, o.ApplyStatus(StatusDelivered, first.Add(time.Hour), "", ""))
	require.Equal(t, first, *o.ActualDelivery)
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
	}
	for _, tr := range allowed {
		require.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]Status{
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusShipped},
		{StatusCancelled, StatusPending},
		{StatusPending, StatusDelivered},
	}
	for _, tr := range denied {
		require.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestApplyPaymentStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	o, err := New("ord-1", "n", "cust-1", "store-1", testItems(t), 0, "",
		testAddress(), MethodInstapay, DeliveryStandard, "", "", now)
	require.NoError(t, err)

	require.NoError(t, o.ApplyPaymentStatus(PaymentPaid, "txn-9f3", now.Add(time.Minute)))
	require.Equal(t, PaymentPaid, o.PaymentStatus)
	require.NotNil(t, o.PaymentDetails)
	require.Equal(t, "txn-9f3", o.PaymentDetails.TransactionRef)

	// No ref: status moves, details stay.
	require.NoError(t, o.ApplyPaymentStatus(PaymentRefunded, "", now.Add(time.Hour)))
	require.Equal(t, PaymentRefunded, o.PaymentStatus)
	require.Equal(t, "txn-9f3", o.PaymentDetails.TransactionRef)

	require.ErrorIs(t, o.ApplyPaymentStatus(PaymentStatus("void"), "", now), ErrInvalidPaymentStatus)
}

func TestCanCancel(t *testing.T) {
	now := time.Now()
	o, err := New("ord-1", "n", "cust-1", "store-1", testItems(t), 0, "",
		testAddress(), MethodCash, DeliveryStandard, "", "", now)
	require.NoError(t, err)

	require.True(t, o.CanCancel())
	require.NoError(t, o.ApplyStatus(StatusConfirmed, now, "", ""))
	require.True(t, o.CanCancel())
	require.NoError(t, o.ApplyStatus(StatusProcessing, now, "", ""))
	require.False(t, o.CanCancel())
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("  Shipped ")
	require.True(t, ok)
	require.Equal(t, StatusShipped, s)

	_, ok = ParseStatus("unknown")
	require.False(t, ok)
}
