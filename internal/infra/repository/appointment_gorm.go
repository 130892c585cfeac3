package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

// ActiveSlotIndex is the partial unique index that guarantees one active
// appointment per (barber, date, time).
const ActiveSlotIndex = "ux_appointments_active_slot"

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func blockingStatuses() []string {
	out := make([]string, 0, len(domain.BlockingStatuses))
	for _, s := range domain.BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}

// --------------------------------------------------
// Barbershop
// --------------------------------------------------

func (r *AppointmentGormRepository) GetBarbershopByID(
	ctx context.Context,
	id uint,
) (*models.Barbershop, error) {

	var shop models.Barbershop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *AppointmentGormRepository) ListServicesByIDs(
	ctx context.Context,
	barbershopID uint,
	ids []uint,
) ([]models.Service, error) {

	var services []models.Service
	if len(ids) == 0 {
		return services, nil
	}

	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND id IN ? AND active = ?", barbershopID, ids, true).
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// --------------------------------------------------
// Client
// --------------------------------------------------

func (r *AppointmentGormRepository) GetClient(
	ctx context.Context,
	barbershopID uint,
	clientID uint,
) (*models.Client, error) {

	var client models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", clientID, barbershopID).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *AppointmentGormRepository) GetOrCreateClient(
	ctx context.Context,
	barbershopID uint,
	name string,
	phone string,
	email string,
) (*models.Client, error) {

	var client models.Client
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND phone = ?", barbershopID, phone).
		First(&client).Error

	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	client = models.Client{
		BarbershopID: barbershopID,
		Name:         name,
		Phone:        phone,
		Email:        email,
	}

	if err := r.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}

	return &client, nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *AppointmentGormRepository) ListRoster(
	ctx context.Context,
	barbershopID uint,
) ([]models.User, error) {

	var staff []models.User
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND active = ? AND role IN ?", barbershopID, true,
			[]string{models.RoleOwner, models.RoleBarber}).
		Order("sort_order ASC, id ASC").
		Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *AppointmentGormRepository) ListShifts(
	ctx context.Context,
	barbershopID uint,
) ([]models.StaffShift, error) {

	var shifts []models.StaffShift
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND active = ?", barbershopID, true).
		Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *AppointmentGormRepository) GetBusinessHours(
	ctx context.Context,
	barbershopID uint,
	weekday int,
) (*models.BusinessHours, error) {

	var bh models.BusinessHours
	err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND weekday = ?", barbershopID, weekday).
		First(&bh).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bh, nil
}

func (r *AppointmentGormRepository) ListAbsencesOn(
	ctx context.Context,
	barbershopID uint,
	date time.Time,
) ([]models.StaffAbsence, error) {

	day := timezone.DateKey(date)

	var absences []models.StaffAbsence
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND start_date <= ? AND end_date >= ?", barbershopID, day, day).
		Find(&absences).Error; err != nil {
		return nil, err
	}
	return absences, nil
}

func (r *AppointmentGormRepository) ListBlockedSlotsBetween(
	ctx context.Context,
	barbershopID uint,
	start time.Time,
	end time.Time,
) ([]models.BlockedSlot, error) {

	var blocks []models.BlockedSlot
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND start_at < ? AND end_at > ?", barbershopID, end, start).
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *AppointmentGormRepository) ListAppointmentsOn(
	ctx context.Context,
	barbershopID uint,
	date time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND date = ?", barbershopID, timezone.DateKey(date)).
		Order("time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

// lockSlot locks every active row holding the slot. An empty result locks
// nothing; the partial unique index rejects a concurrent insert in that case.
func lockSlot(tx *gorm.DB, barberID uint, date time.Time, clock string, excludeID uint) ([]models.Appointment, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "barber_id", "date", "time", "status").
		Where(
			"barber_id = ? AND date = ? AND time = ? AND status IN ?",
			barberID, timezone.DateKey(date), clock, blockingStatuses(),
		)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var held []models.Appointment
	if err := q.Find(&held).Error; err != nil {
		return nil, err
	}
	return held, nil
}

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ap.BarberID != nil {
			held, err := lockSlot(tx, *ap.BarberID, ap.Date, ap.Time, 0)
			if err != nil {
				return err
			}
			if len(held) > 0 {
				return httperr.ErrBusiness("time_conflict")
			}
		}

		return tx.Omit("Client", "Barber", "Services.*").Create(ap).Error
	})

	return mapSlotError(err)
}

func mapSlotError(err error) error {
	if err == nil {
		return nil
	}
	if httperr.IsUniqueViolation(err, ActiveSlotIndex) {
		return httperr.ErrBusiness("time_conflict")
	}
	if _, ok := httperr.AsBusiness(err); ok {
		return err
	}
	return fmt.Errorf("repository: appointment write: %w", err)
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Services").
		Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
		First(&ap).Error; err != nil {
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointmentStatus(
	ctx context.Context,
	ap *models.Appointment,
	from domain.Status,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND barbershop_id = ? AND status = ?", ap.ID, ap.BarbershopID, string(from)).
		Updates(map[string]any{
			"status":              ap.Status,
			"confirmed_at":        ap.ConfirmedAt,
			"cancelled_at":        ap.CancelledAt,
			"completed_at":        ap.CompletedAt,
			"result_photo_url":    ap.ResultPhotoURL,
			"no_show_fee_applied": ap.NoShowFeeApplied,
			"no_show_fee_amount":  ap.NoShowFeeAmount,
			"no_show_note":        ap.NoShowNote,
		})

	if res.Error != nil {
		return mapSlotError(res.Error)
	}
	if res.RowsAffected == 0 {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func (r *AppointmentGormRepository) RescheduleAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ap.BarberID != nil {
			held, err := lockSlot(tx, *ap.BarberID, ap.Date, ap.Time, ap.ID)
			if err != nil {
				return err
			}
			if len(held) > 0 {
				return httperr.ErrBusiness("time_conflict")
			}
		}

		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND barbershop_id = ? AND status IN ?", ap.ID, ap.BarbershopID,
				[]string{string(domain.StatusPending), string(domain.StatusConfirmed)}).
			Updates(map[string]any{
				"date":             ap.Date,
				"time":             ap.Time,
				"barber_id":        ap.BarberID,
				"reminder_sent_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.ErrBusiness("invalid_state")
		}
		return nil
	})

	return mapSlotError(err)
}

func (r *AppointmentGormRepository) UpdateAppointmentNotes(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
	notes string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
		Update("notes", notes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) UpdateResultPhoto(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
	url string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
		Update("result_photo_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	barbershopID uint,
	appointmentID uint,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM appointment_services WHERE appointment_id = ?", appointmentID,
		).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
			Delete(&models.Appointment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	barbershopID uint,
	barberID *uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Services").
		Preload("Barber").
		Where(
			"barbershop_id = ? AND date >= ? AND date < ?",
			barbershopID,
			timezone.DateKey(start),
			timezone.DateKey(end),
		)
	if barberID != nil {
		q = q.Where("barber_id = ?", *barberID)
	}

	var apps []models.Appointment
	if err := q.Order("date ASC, time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

// --------------------------------------------------
// Waitlist / notifications
// --------------------------------------------------

func (r *AppointmentGormRepository) ListWaitlistOn(
	ctx context.Context,
	barbershopID uint,
	date time.Time,
) ([]models.WaitlistEntry, error) {

	var entries []models.WaitlistEntry
	if err := r.db.WithContext(ctx).
		Where("barbershop_id = ? AND preferred_date = ? AND status = ?",
			barbershopID, timezone.DateKey(date), models.WaitlistWaiting).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *AppointmentGormRepository) CreateNotification(
	ctx context.Context,
	n *models.Notification,
) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
