package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	uc "shoporia/internal/application/usecase"
	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
	"shoporia/internal/platform/di"
)

// Maintenance console for the marketplace core.
//
// Usage:
//
//	console -cmd seed -owner <ownerId>
//	console -cmd stats -store <storeId>
//	console -cmd recent -store <storeId> [-limit 10]
//	console -cmd approve -store <storeId>
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zap init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	var (
		cmd     = flag.String("cmd", "", "seed | stats | recent | approve")
		ownerID = flag.String("owner", "", "owner id for seed")
		storeID = flag.String("store", "", "store id")
		limit   = flag.Int("limit", 10, "result limit for recent")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := di.NewContainer(ctx)
	if err != nil {
		zap.S().Fatalw("container init failed", "err", err)
	}
	defer c.Close()

	switch *cmd {
	case "seed":
		err = runSeed(ctx, c, *ownerID)
	case "stats":
		err = runStats(ctx, c, *storeID)
	case "recent":
		err = runRecent(ctx, c, *storeID, *limit)
	case "approve":
		err = runApprove(ctx, c, *storeID)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zap.S().Fatalw("command failed", "cmd", *cmd, "err", err)
	}
}

// runSeed creates a demo store with a couple of active products.
func runSeed(ctx context.Context, c *di.Container, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("seed: -owner is required")
	}

	st, err := c.StoreUC.Create(ctx, uc.CreateStoreInput{
		OwnerID:     ownerID,
		Name:        "Demo Store",
		Category:    "general",
		Description: "Seeded demo store",
	})
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	if _, err := c.StoreUC.UpdateStatus(ctx, st.ID, storedom.StatusActive); err != nil {
		return fmt.Errorf("activate store: %w", err)
	}

	seedProducts := []uc.CreateProductInput{
		{StoreID: st.ID, Name: "Cotton T-Shirt", Category: "clothing", Price: 250, Quantity: 40, TrackInventory: true},
		{StoreID: st.ID, Name: "Ceramic Mug", Category: "home", Price: 120, Quantity: 100, TrackInventory: true},
		{StoreID: st.ID, Name: "Gift Wrapping", Category: "services", Price: 30},
	}
	for _, in := range seedProducts {
		p, err := c.ProductUC.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", in.Name, err)
		}
		if _, err := c.ProductUC.UpdateStatus(ctx, p.ID, productdom.StatusActive); err != nil {
			return fmt.Errorf("activate product %q: %w", in.Name, err)
		}
	}

	fmt.Printf("seeded store %s (%s) with %d products\n", st.ID, st.Slug, len(seedProducts))
	return nil
}

func runStats(ctx context.Context, c *di.Container, storeID string) error {
	if storeID == "" {
		return fmt.Errorf("stats: -store is required")
	}
	stats, err := c.OrderUC.StoreStats(ctx, storeID)
	if err != nil {
		return err
	}
	fmt.Printf("orders: %d\nrevenue: %d\n", stats.Total, stats.Revenue)
	for status, n := range stats.ByStatus {
		fmt.Printf("  %s: %d\n", status, n)
	}
	return nil
}

func runRecent(ctx context.Context, c *di.Container, storeID string, limit int) error {
	if storeID == "" {
		return fmt.Errorf("recent: -store is required")
	}
	orders, err := c.OrderUC.RecentOrders(ctx, storeID, limit)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("%s  %s  %-10s  total=%d %s\n",
			o.CreatedAt.Format(time.RFC3339), o.OrderNumber, o.Status, o.Total, o.Currency)
	}
	if len(orders) == 0 {
		fmt.Println("no orders")
	}
	return nil
}

func runApprove(ctx context.Context, c *di.Container, storeID string) error {
	if storeID == "" {
		return fmt.Errorf("approve: -store is required")
	}
	st, err := c.StoreUC.UpdateStatus(ctx, storeID, storedom.StatusActive)
	if err != nil {
		return err
	}
	if st.ApprovedAt != nil {
		fmt.Printf("store %s approved at %s\n", st.ID, st.ApprovedAt.Format(time.RFC3339))
	} else {
		fmt.Printf("store %s active\n", st.ID)
	}
	return nil
}
