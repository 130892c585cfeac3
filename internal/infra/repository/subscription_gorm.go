package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
)

type SubscriptionGormRepository struct {
	db *gorm.DB
}

func NewSubscriptionGormRepository(db *gorm.DB) *SubscriptionGormRepository {
	return &SubscriptionGormRepository{db: db}
}

func (r *SubscriptionGormRepository) GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *SubscriptionGormRepository) GetOwnerEmail(ctx context.Context, barbershopID uint) (string, error) {
	var owner models.User
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND role = ?", barbershopID, models.RoleOwner).
		Order("id ASC").
		First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return owner.Email, err
}

func (r *SubscriptionGormRepository) GetSubscription(ctx context.Context, barbershopID uint) (*models.PlatformSubscription, error) {
	var s models.PlatformSubscription
	err := r.db.WithContext(ctx).Where("barbershop_id = ?", barbershopID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionGormRepository) FindByReference(ctx context.Context, reference string) (*models.PlatformSubscription, error) {
	var s models.PlatformSubscription
	err := r.db.WithContext(ctx).Where("external_reference = ?", reference).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionGormRepository) SaveSubscription(ctx context.Context, s *models.PlatformSubscription) error {
	return r.db.WithContext(ctx).Omit("Barbershop").Save(s).Error
}

var _ subscription.Repository = (*SubscriptionGormRepository)(nil)
