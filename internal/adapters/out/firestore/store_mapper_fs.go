package firestore

import (
	fs "cloud.google.com/go/firestore"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	storedom "shoporia/internal/domain/store"
)

func docToStore(snap *fs.DocumentSnapshot) (storedom.Store, error) {
	data := snap.Data()
	if data == nil {
		return storedom.Store{}, storedom.ErrNotFound
	}

	s := storedom.Store{
		ID:      snap.Ref.ID,
		Slug:    fscommon.Str(data, "slug"),
		OwnerID: fscommon.Str(data, "ownerId"),

		Name:        fscommon.Str(data, "name"),
		Category:    fscommon.Str(data, "category"),
		Description: fscommon.Str(data, "description"),

		Status:     storedom.Status(fscommon.Str(data, "status")),
		ApprovedAt: fscommon.TimePtr(data, "approvedAt"),

		ProductCount: fscommon.Int(data, "productCount"),
		ServiceCount: fscommon.Int(data, "serviceCount"),
		OrderCount:   fscommon.Int(data, "orderCount"),
	}

	if m, ok := fscommon.SubMap(data, "settings"); ok {
		s.Settings = storedom.Settings{
			Currency:           fscommon.Str(m, "currency"),
			Language:           fscommon.Str(m, "language"),
			AcceptCash:         fscommon.Bool(m, "acceptCash"),
			AcceptVodafoneCash: fscommon.Bool(m, "acceptVodafoneCash"),
			AcceptInstapay:     fscommon.Bool(m, "acceptInstapay"),
			AcceptFawry:        fscommon.Bool(m, "acceptFawry"),
		}
	} else {
		s.Settings = storedom.DefaultSettings()
	}

	if t, ok := fscommon.Time(data, "createdAt"); ok {
		s.CreatedAt = t
	}
	if t, ok := fscommon.Time(data, "updatedAt"); ok {
		s.UpdatedAt = t
	} else {
		s.UpdatedAt = s.CreatedAt
	}

	return s, nil
}

func storeToDoc(s storedom.Store) map[string]any {
	doc := map[string]any{
		"slug":    s.Slug,
		"ownerId": s.OwnerID,

		"name":        s.Name,
		"category":    s.Category,
		"description": s.Description,

		"status": string(s.Status),

		"productCount": s.ProductCount,
		"serviceCount": s.ServiceCount,
		"orderCount":   s.OrderCount,

		"settings": map[string]any{
			"currency":           s.Settings.Currency,
			"language":           s.Settings.Language,
			"acceptCash":         s.Settings.AcceptCash,
			"acceptVodafoneCash": s.Settings.AcceptVodafoneCash,
			"acceptInstapay":     s.Settings.AcceptInstapay,
			"acceptFawry":        s.Settings.AcceptFawry,
		},

		"createdAt": s.CreatedAt.UTC(),
		"updatedAt": s.UpdatedAt.UTC(),
	}

	if s.ApprovedAt != nil {
		doc["approvedAt"] = s.ApprovedAt.UTC()
	}

	return doc
}
