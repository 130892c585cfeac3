package sales

import (
	"context"

	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// Tx is the tenant-scoped view of one database transaction. Every method
// runs inside it; returning an error from the WithTx callback rolls it all back.
type Tx interface {
	GetClientForUpdate(clientID uint) (*models.Client, error)
	GetBarber(barberID uint) (*models.User, error)
	// GetCouponForUpdate returns nil, nil when the code does not exist.
	GetCouponForUpdate(code string) (*models.Coupon, error)

	ListServices(ids []uint) ([]models.Service, error)
	ListProductsForUpdate(ids []uint) ([]models.Product, error)

	CreateSale(sale *models.Sale) error
	SetProductStock(productID uint, stock int) error
	CreateStockMovement(m *models.StockMovement) error
	IncrementCouponUsage(couponID uint) error
	AddClientPoints(clientID uint, delta int) error
	CreateLoyaltyTransaction(lt *models.LoyaltyTransaction) error
}

type Repository interface {
	GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error)
	FindCoupon(ctx context.Context, barbershopID uint, code string) (*models.Coupon, error)

	WithTx(ctx context.Context, barbershopID uint, fn func(Tx) error) error
}
