package firestore

import (
	fs "cloud.google.com/go/firestore"

	fscommon "shoporia/internal/adapters/out/firestore/common"
	productdom "shoporia/internal/domain/product"
)

func docToProduct(snap *fs.DocumentSnapshot) (productdom.Product, error) {
	data := snap.Data()
	if data == nil {
		return productdom.Product{}, productdom.ErrNotFound
	}

	p := productdom.Product{
		ID:      snap.Ref.ID,
		Slug:    fscommon.Str(data, "slug"),
		StoreID: fscommon.Str(data, "storeId"),

		Name:        fscommon.Str(data, "name"),
		Description: fscommon.Str(data, "description"),
		Category:    fscommon.Str(data, "category"),
		Images:      fscommon.StrSlice(data, "images"),
		HasVariants: fscommon.Bool(data, "hasVariants"),
		Featured:    fscommon.Bool(data, "featured"),

		Price:    fscommon.Int(data, "price"),
		Currency: fscommon.Str(data, "currency"),

		Quantity:       fscommon.Int(data, "quantity"),
		TrackInventory: fscommon.Bool(data, "trackInventory"),

		Status: productdom.Status(fscommon.Str(data, "status")),

		ViewCount: fscommon.Int(data, "viewCount"),
		SoldCount: fscommon.Int(data, "soldCount"),

		Rating:      fscommon.Float(data, "rating"),
		ReviewCount: fscommon.Int(data, "reviewCount"),
	}

	if _, ok := data["compareAtPrice"]; ok {
		v := fscommon.Int(data, "compareAtPrice")
		p.CompareAtPrice = &v
	}

	for _, m := range fscommon.MapSlice(data, "variants") {
		p.Variants = append(p.Variants, productdom.Variant{
			Name:    fscommon.Str(m, "name"),
			Options: fscommon.StrSlice(m, "options"),
		})
	}

	if t, ok := fscommon.Time(data, "createdAt"); ok {
		p.CreatedAt = t
	}
	if t, ok := fscommon.Time(data, "updatedAt"); ok {
		p.UpdatedAt = t
	} else {
		p.UpdatedAt = p.CreatedAt
	}

	return p, nil
}

func productToDoc(p productdom.Product) map[string]any {
	variants := make([]map[string]any, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, map[string]any{
			"name":    v.Name,
			"options": v.Options,
		})
	}

	doc := map[string]any{
		"slug":    p.Slug,
		"storeId": p.StoreID,

		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"images":      p.Images,
		"hasVariants": p.HasVariants,
		"variants":    variants,
		"featured":    p.Featured,

		"price":    p.Price,
		"currency": p.Currency,

		"quantity":       p.Quantity,
		"trackInventory": p.TrackInventory,

		"status": string(p.Status),

		"viewCount": p.ViewCount,
		"soldCount": p.SoldCount,

		"rating":      p.Rating,
		"reviewCount": p.ReviewCount,

		"createdAt": p.CreatedAt.UTC(),
		"updatedAt": p.UpdatedAt.UTC(),
	}

	if p.CompareAtPrice != nil {
		doc["compareAtPrice"] = *p.CompareAtPrice
	}

	return doc
}
