package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	orderdom "shoporia/internal/domain/order"
)

// notify sends a customer mail best-effort: a delivery failure is logged and
// never fails the order operation that triggered it.
func (u *OrderUsecase) notify(ctx context.Context, o orderdom.Order, subject, body string) {
	if u.mailer == nil || u.mailFrom == "" || o.CustomerEmail == "" {
		return
	}
	if err := u.mailer.Send(ctx, u.mailFrom, o.CustomerEmail, subject, body); err != nil {
		zap.S().Warnf("[order_uc] notification failed orderId=%s to=%s err=%v", o.ID, o.CustomerEmail, err)
	}
}

func confirmationBody(o orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s received.\n\n", o.OrderNumber)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d x %s - %d %s\n", it.Quantity, it.Name, it.Total, o.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %d %s\n", o.Subtotal, o.Currency)
	if o.Discount > 0 {
		fmt.Fprintf(&b, "Discount: -%d %s\n", o.Discount, o.Currency)
	}
	fmt.Fprintf(&b, "Delivery: %d %s\n", o.DeliveryFee, o.Currency)
	fmt.Fprintf(&b, "Total: %d %s\n", o.Total, o.Currency)
	return b.String()
}

func statusBody(o orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s is now %s.\n", o.OrderNumber, o.Status)
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "Tracking number: %s\n", o.TrackingNumber)
	}
	if o.EstimatedDelivery != nil {
		fmt.Fprintf(&b, "Estimated delivery: %s\n", o.EstimatedDelivery.Format("2006-01-02"))
	}
	return b.String()
}
