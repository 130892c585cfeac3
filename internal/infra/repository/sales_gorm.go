package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type SalesGormRepository struct {
	db *gorm.DB
}

func NewSalesGormRepository(db *gorm.DB) *SalesGormRepository {
	return &SalesGormRepository{db: db}
}

func (r *SalesGormRepository) GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindCoupon returns nil, nil when no coupon matches.
func (r *SalesGormRepository) FindCoupon(ctx context.Context, barbershopID uint, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND code = ?", barbershopID, sales.NormalizeCode(code)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SalesGormRepository) WithTx(ctx context.Context, barbershopID uint, fn func(sales.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&salesTx{db: tx, shopID: barbershopID})
	})
}

// --------------------------------------------------
// salesTx
// --------------------------------------------------

type salesTx struct {
	db     *gorm.DB
	shopID uint
}

func (t *salesTx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *salesTx) GetClientForUpdate(clientID uint) (*models.Client, error) {
	var c models.Client
	if err := t.forUpdate().
		Where("id = ? AND barbershop_id = ?", clientID, t.shopID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *salesTx) GetBarber(barberID uint) (*models.User, error) {
	var u models.User
	if err := t.db.
		Where("id = ? AND barbershop_id = ?", barberID, t.shopID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *salesTx) GetCouponForUpdate(code string) (*models.Coupon, error) {
	var c models.Coupon
	err := t.forUpdate().
		Where("barbershop_id = ? AND code = ?", t.shopID, sales.NormalizeCode(code)).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListServices skips deactivated services so they cannot be sold.
func (t *salesTx) ListServices(ids []uint) ([]models.Service, error) {
	var out []models.Service
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.db.
		Where("barbershop_id = ? AND id IN ? AND active = ?", t.shopID, ids, true).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (t *salesTx) ListProductsForUpdate(ids []uint) ([]models.Product, error) {
	var out []models.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.forUpdate().
		Where("barbershop_id = ? AND id IN ?", t.shopID, ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (t *salesTx) CreateSale(sale *models.Sale) error {
	sale.BarbershopID = t.shopID
	return t.db.Create(sale).Error
}

func (t *salesTx) SetProductStock(productID uint, stock int) error {
	return t.db.Model(&models.Product{}).
		Where("id = ? AND barbershop_id = ?", productID, t.shopID).
		Update("stock", stock).Error
}

func (t *salesTx) CreateStockMovement(m *models.StockMovement) error {
	m.BarbershopID = t.shopID
	return t.db.Create(m).Error
}

func (t *salesTx) IncrementCouponUsage(couponID uint) error {
	return t.db.Model(&models.Coupon{}).
		Where("id = ? AND barbershop_id = ?", couponID, t.shopID).
		Update("used_count", gorm.Expr("used_count + 1")).Error
}

func (t *salesTx) AddClientPoints(clientID uint, delta int) error {
	return t.db.Model(&models.Client{}).
		Where("id = ? AND barbershop_id = ?", clientID, t.shopID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", delta)).Error
}

func (t *salesTx) CreateLoyaltyTransaction(lt *models.LoyaltyTransaction) error {
	lt.BarbershopID = t.shopID
	return t.db.Create(lt).Error
}

var _ sales.Repository = (*SalesGormRepository)(nil)
