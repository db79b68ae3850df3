package di

import (
	"context"

	"go.uber.org/zap"

	dbadapter "shoporia/internal/adapters/out/db"
	fsadapter "shoporia/internal/adapters/out/firestore"
	gcsadapter "shoporia/internal/adapters/out/gcs"
	mailadapter "shoporia/internal/adapters/out/mail"
	uc "shoporia/internal/application/usecase"
	orderdom "shoporia/internal/domain/order"
	productdom "shoporia/internal/domain/product"
	storedom "shoporia/internal/domain/store"
	"shoporia/internal/platform/di/shared"
)

// Container wires the marketplace core: repositories for the selected
// storage backend, the transactor, and the usecases with their optional
// capabilities (mail, image store).
type Container struct {
	Infra *shared.Infra

	Orders   orderdom.Repository
	Products productdom.Repository
	Stores   storedom.Repository

	OrderUC   *uc.OrderUsecase
	ProductUC *uc.ProductUsecase
	StoreUC   *uc.StoreUsecase
}

func NewContainer(ctx context.Context) (*Container, error) {
	inf, err := shared.NewInfra(ctx)
	if err != nil {
		return nil, err
	}

	c := &Container{Infra: inf}

	var tx uc.Transactor
	if inf.Config.UsesPostgres() {
		c.Orders = dbadapter.NewOrderRepositoryPG(inf.DB)
		c.Products = dbadapter.NewProductRepositoryPG(inf.DB)
		c.Stores = dbadapter.NewStoreRepositoryPG(inf.DB)
		tx = dbadapter.NewTransactorPG(inf.DB)
	} else {
		c.Orders = fsadapter.NewOrderRepositoryFS(inf.Firestore)
		c.Products = fsadapter.NewProductRepositoryFS(inf.Firestore)
		c.Stores = fsadapter.NewStoreRepositoryFS(inf.Firestore)
		tx = fsadapter.NewTransactorFS(inf.Firestore)
	}

	c.OrderUC = uc.NewOrderUsecase(c.Orders, c.Products, c.Stores, tx)
	c.ProductUC = uc.NewProductUsecase(c.Products, c.Stores, tx)
	c.StoreUC = uc.NewStoreUsecase(c.Stores, tx)

	if inf.SendGridAPIKey != "" {
		c.OrderUC = c.OrderUC.WithMailer(mailadapter.NewSendGridClient(inf.SendGridAPIKey), inf.MailFrom)
	} else {
		zap.S().Info("[di] order notifications disabled (no SendGrid key)")
	}

	if inf.GCS != nil && inf.ProductImageBucket != "" {
		c.ProductUC = c.ProductUC.WithImageStore(
			gcsadapter.NewProductImageRepositoryGCS(inf.GCS, inf.ProductImageBucket))
	} else {
		zap.S().Info("[di] product image uploads disabled")
	}

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.Infra.Close()
}
