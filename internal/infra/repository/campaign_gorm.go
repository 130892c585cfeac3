package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/campaign"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/campaign"
)

type CampaignGormRepository struct {
	db *gorm.DB
}

func NewCampaignGormRepository(db *gorm.DB) *CampaignGormRepository {
	return &CampaignGormRepository{db: db}
}

func (r *CampaignGormRepository) GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *CampaignGormRepository) GetCampaign(ctx context.Context, barbershopID, campaignID uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", campaignID, barbershopID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignGormRepository) ClaimCampaign(ctx context.Context, barbershopID, campaignID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ? AND barbershop_id = ? AND status = ?", campaignID, barbershopID, domain.StatusDraft).
		Update("status", domain.StatusSending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CampaignGormRepository) ReleaseCampaign(ctx context.Context, barbershopID, campaignID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ? AND barbershop_id = ? AND status = ?", campaignID, barbershopID, domain.StatusSending).
		Update("status", domain.StatusDraft).Error
}

func (r *CampaignGormRepository) ListClients(ctx context.Context, barbershopID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ?", barbershopID).
		Order("id ASC").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *CampaignGormRepository) LastVisits(ctx context.Context, barbershopID uint) (map[uint]time.Time, error) {
	var rows []struct {
		ClientID uint
		Last     time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("client_id, MAX(date) AS last").
		Where("barbershop_id = ? AND status <> ?", barbershopID, "cancelled").
		Group("client_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]time.Time, len(rows))
	for _, row := range rows {
		out[row.ClientID] = row.Last
	}
	return out, nil
}

func (r *CampaignGormRepository) CreateDelivery(ctx context.Context, d *models.CampaignDelivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *CampaignGormRepository) FinishCampaign(ctx context.Context, c *models.Campaign) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ? AND barbershop_id = ?", c.ID, c.BarbershopID).
		Updates(map[string]any{
			"status":       c.Status,
			"sent_count":   c.SentCount,
			"failed_count": c.FailedCount,
			"sent_at":      c.SentAt,
		}).Error
}

var _ campaign.Repository = (*CampaignGormRepository)(nil)
