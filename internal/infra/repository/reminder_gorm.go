package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/reminders"
)

type ReminderGormRepository struct {
	db *gorm.DB
}

func NewReminderGormRepository(db *gorm.DB) *ReminderGormRepository {
	return &ReminderGormRepository{db: db}
}

func (r *ReminderGormRepository) ListActiveBarbershops(ctx context.Context) ([]models.Barbershop, error) {
	var shops []models.Barbershop
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *ReminderGormRepository) ListDueReminders(
	ctx context.Context,
	barbershopID uint,
	from, to time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Barber").
		Where(
			"barbershop_id = ? AND date >= ? AND date <= ? AND status IN ? AND reminder_sent_at IS NULL",
			barbershopID,
			timezone.DateKey(from),
			timezone.DateKey(to),
			[]string{string(domain.StatusPending), string(domain.StatusConfirmed)},
		).
		Order("date ASC, time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ReminderGormRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// MarkReminderSent is a compare-and-swap on reminder_sent_at, so two runs
// over the same appointment cannot both win.
func (r *ReminderGormRepository) MarkReminderSent(ctx context.Context, appointmentID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND reminder_sent_at IS NULL", appointmentID).
		Update("reminder_sent_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ReminderGormRepository) ClearReminderSent(ctx context.Context, appointmentID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("reminder_sent_at", nil).Error
}

var _ reminders.Repository = (*ReminderGormRepository)(nil)
