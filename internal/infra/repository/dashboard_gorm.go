package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/dashboard"
)

type DashboardGormRepository struct {
	db *gorm.DB
}

func NewDashboardGormRepository(db *gorm.DB) *DashboardGormRepository {
	return &DashboardGormRepository{db: db}
}

func (r *DashboardGormRepository) GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *DashboardGormRepository) CountAppointmentsByStatus(
	ctx context.Context,
	barbershopID uint,
	day time.Time,
) (map[string]int, error) {

	var rows []struct {
		Status string
		Total  int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("status, COUNT(*) AS total").
		Where("barbershop_id = ? AND date = ?", barbershopID, timezone.DateKey(day)).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *DashboardGormRepository) SumAppointmentRevenue(
	ctx context.Context,
	barbershopID uint,
	day time.Time,
	statuses []string,
) (float64, error) {

	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("barbershop_id = ? AND date = ? AND status IN ?", barbershopID, timezone.DateKey(day), statuses).
		Scan(&total).Error
	return total, err
}

func (r *DashboardGormRepository) SumSales(
	ctx context.Context,
	barbershopID uint,
	start, end time.Time,
) (float64, error) {

	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0)").
		Where("barbershop_id = ? AND created_at >= ? AND created_at < ?", barbershopID, start, end).
		Scan(&total).Error
	return total, err
}

func (r *DashboardGormRepository) CountNewClients(
	ctx context.Context,
	barbershopID uint,
	start, end time.Time,
) (int64, error) {

	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("barbershop_id = ? AND created_at >= ? AND created_at < ?", barbershopID, start, end).
		Count(&n).Error
	return n, err
}

func (r *DashboardGormRepository) ListNextAppointments(
	ctx context.Context,
	barbershopID uint,
	day time.Time,
	fromClock string,
	limit int,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Barber").
		Preload("Services").
		Where("barbershop_id = ? AND date = ? AND time >= ? AND status IN ?",
			barbershopID, timezone.DateKey(day), fromClock, []string{string(domain.StatusPending), string(domain.StatusConfirmed)}).
		Order("time ASC").
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

var _ dashboard.Repository = (*DashboardGormRepository)(nil)
