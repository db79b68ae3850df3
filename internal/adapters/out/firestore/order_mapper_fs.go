package firestore

import (
	fs "cloud.google.com/go/firestore"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	orderdom "shoporia/internal/domain/order"
)

// ========================
// Doc <-> entity mapping
// ========================

func docToOrder(snap *fs.DocumentSnapshot) (orderdom.Order, error) {
	data := snap.Data()
	if data == nil {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	o := orderdom.Order{
		ID:          snap.Ref.ID,
		OrderNumber: fscommon.Str(data, "orderNumber"),
		CustomerID:  fscommon.Str(data, "customerId"),
		StoreID:     fscommon.Str(data, "storeId"),

		Subtotal:    fscommon.Int(data, "subtotal"),
		Discount:    fscommon.Int(data, "discount"),
		DeliveryFee: fscommon.Int(data, "deliveryFee"),
		Tax:         fscommon.Int(data, "tax"),
		Total:       fscommon.Int(data, "total"),
		Currency:    fscommon.Str(data, "currency"),
		CouponCode:  fscommon.Str(data, "couponCode"),

		PaymentMethod: orderdom.PaymentMethod(fscommon.Str(data, "paymentMethod")),
		PaymentStatus: orderdom.PaymentStatus(fscommon.Str(data, "paymentStatus")),

		DeliveryMethod: orderdom.DeliveryMethod(fscommon.Str(data, "deliveryMethod")),
		DeliveryNotes:  fscommon.Str(data, "deliveryNotes"),

		Status: orderdom.Status(fscommon.Str(data, "status")),

		TrackingNumber:    fscommon.Str(data, "trackingNumber"),
		EstimatedDelivery: fscommon.TimePtr(data, "estimatedDelivery"),
		ActualDelivery:    fscommon.TimePtr(data, "actualDelivery"),

		CustomerEmail: fscommon.Str(data, "customerEmail"),
	}

	for _, m := range fscommon.MapSlice(data, "items") {
		o.Items = append(o.Items, orderdom.Item{
			ProductID: fscommon.Str(m, "productId"),
			VariantID: fscommon.Str(m, "variantId"),
			Name:      fscommon.Str(m, "name"),
			Quantity:  fscommon.Int(m, "quantity"),
			UnitPrice: fscommon.Int(m, "unitPrice"),
			Total:     fscommon.Int(m, "total"),
		})
	}

	if m, ok := fscommon.SubMap(data, "deliveryAddress"); ok {
		o.DeliveryAddress = orderdom.Address{
			Name:      fscommon.Str(m, "name"),
			Phone:     fscommon.Str(m, "phone"),
			Region:    fscommon.Str(m, "region"),
			City:      fscommon.Str(m, "city"),
			Street:    fscommon.Str(m, "street"),
			Building:  fscommon.Str(m, "building"),
			Floor:     fscommon.Str(m, "floor"),
			Apartment: fscommon.Str(m, "apartment"),
			Notes:     fscommon.Str(m, "notes"),
		}
	}

	for _, m := range fscommon.MapSlice(data, "statusHistory") {
		at, _ := fscommon.Time(m, "at")
		o.StatusHistory = append(o.StatusHistory, orderdom.StatusChange{
			Status:  orderdom.Status(fscommon.Str(m, "status")),
			At:      at,
			Note:    fscommon.Str(m, "note"),
			ActorID: fscommon.Str(m, "actorId"),
		})
	}

	if m, ok := fscommon.SubMap(data, "paymentDetails"); ok {
		paidAt, _ := fscommon.Time(m, "paidAt")
		o.PaymentDetails = &orderdom.PaymentDetails{
			TransactionRef: fscommon.Str(m, "transactionRef"),
			PaidAt:         paidAt,
		}
	}

	if t, ok := fscommon.Time(data, "createdAt"); ok {
		o.CreatedAt = t
	}
	if t, ok := fscommon.Time(data, "updatedAt"); ok {
		o.UpdatedAt = t
	} else {
		o.UpdatedAt = o.CreatedAt
	}

	return o, nil
}

func orderToDoc(o orderdom.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"variantId": it.VariantID,
			"name":      it.Name,
			"quantity":  it.Quantity,
			"unitPrice": it.UnitPrice,
			"total":     it.Total,
		})
	}

	history := make([]map[string]any, 0, len(o.StatusHistory))
	for _, h := range o.StatusHistory {
		history = append(history, map[string]any{
			"status":  string(h.Status),
			"at":      h.At.UTC(),
			"note":    h.Note,
			"actorId": h.ActorID,
		})
	}

	doc := map[string]any{
		"orderNumber": o.OrderNumber,
		"customerId":  o.CustomerID,
		"storeId":     o.StoreID,
		"items":       items,

		"subtotal":    o.Subtotal,
		"discount":    o.Discount,
		"deliveryFee": o.DeliveryFee,
		"tax":         o.Tax,
		"total":       o.Total,
		"currency":    o.Currency,
		"couponCode":  o.CouponCode,

		"paymentMethod": string(o.PaymentMethod),
		"paymentStatus": string(o.PaymentStatus),

		"deliveryAddress": map[string]any{
			"name":      o.DeliveryAddress.Name,
			"phone":     o.DeliveryAddress.Phone,
			"region":    o.DeliveryAddress.Region,
			"city":      o.DeliveryAddress.City,
			"street":    o.DeliveryAddress.Street,
			"building":  o.DeliveryAddress.Building,
			"floor":     o.DeliveryAddress.Floor,
			"apartment": o.DeliveryAddress.Apartment,
			"notes":     o.DeliveryAddress.Notes,
		},
		"deliveryMethod": string(o.DeliveryMethod),
		"deliveryNotes":  o.DeliveryNotes,

		"status":        string(o.Status),
		"statusHistory": history,

		"trackingNumber": o.TrackingNumber,
		"customerEmail":  o.CustomerEmail,

		"createdAt": o.CreatedAt.UTC(),
		"updatedAt": o.UpdatedAt.UTC(),
	}

	if o.PaymentDetails != nil {
		doc["paymentDetails"] = map[string]any{
			"transactionRef": o.PaymentDetails.TransactionRef,
			"paidAt":         o.PaymentDetails.PaidAt.UTC(),
		}
	}
	if o.EstimatedDelivery != nil {
		doc["estimatedDelivery"] = o.EstimatedDelivery.UTC()
	}
	if o.ActualDelivery != nil {
		doc["actualDelivery"] = o.ActualDelivery.UTC()
	}

	return doc
}
