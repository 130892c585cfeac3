package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type Repository interface {
	// -------- Barbershop --------
	GetBarbershopByID(
		ctx context.Context,
		id uint,
	) (*models.Barbershop, error)

	// -------- Service --------
	ListServicesByIDs(
		ctx context.Context,
		barbershopID uint,
		ids []uint,
	) ([]models.Service, error)

	// -------- Client --------
	GetClient(
		ctx context.Context,
		barbershopID uint,
		clientID uint,
	) (*models.Client, error)

	GetOrCreateClient(
		ctx context.Context,
		barbershopID uint,
		name string,
		phone string,
		email string,
	) (*models.Client, error)

	// -------- Schedule (one day) --------
	ListRoster(
		ctx context.Context,
		barbershopID uint,
	) ([]models.User, error)

	ListShifts(
		ctx context.Context,
		barbershopID uint,
	) ([]models.StaffShift, error)

	// GetBusinessHours returns nil, nil when the weekday is not configured.
	GetBusinessHours(
		ctx context.Context,
		barbershopID uint,
		weekday int,
	) (*models.BusinessHours, error)

	ListAbsencesOn(
		ctx context.Context,
		barbershopID uint,
		date time.Time,
	) ([]models.StaffAbsence, error)

	ListBlockedSlotsBetween(
		ctx context.Context,
		barbershopID uint,
		start time.Time,
		end time.Time,
	) ([]models.BlockedSlot, error)

	ListAppointmentsOn(
		ctx context.Context,
		barbershopID uint,
		date time.Time,
	) ([]models.Appointment, error)

	// -------- Appointment (create / conflict) --------

	// CreateAppointment re-checks the slot under row locks and returns
	// a time_conflict business error when it is already held.
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Appointment (state change) --------
	GetAppointment(
		ctx context.Context,
		barbershopID uint,
		appointmentID uint,
	) (*models.Appointment, error)

	// UpdateAppointmentStatus persists ap only if the stored status is
	// still from. Otherwise it returns an invalid_state business error.
	UpdateAppointmentStatus(
		ctx context.Context,
		ap *models.Appointment,
		from Status,
	) error

	RescheduleAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointmentNotes(
		ctx context.Context,
		barbershopID uint,
		appointmentID uint,
		notes string,
	) error

	// UpdateResultPhoto touches only result_photo_url, whatever the status.
	UpdateResultPhoto(
		ctx context.Context,
		barbershopID uint,
		appointmentID uint,
		url string,
	) error

	DeleteAppointment(
		ctx context.Context,
		barbershopID uint,
		appointmentID uint,
	) error

	// -------- Listing --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		barbershopID uint,
		barberID *uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// -------- Waitlist / notifications --------
	ListWaitlistOn(
		ctx context.Context,
		barbershopID uint,
		date time.Time,
	) ([]models.WaitlistEntry, error)

	CreateNotification(
		ctx context.Context,
		n *models.Notification,
	) error
}
