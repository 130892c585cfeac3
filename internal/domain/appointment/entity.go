package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// ===============================
// Domain Actions
// ===============================
//
// Each action validates the transition and mutates the given copy. Callers
// persist it with a compare-and-swap on the previous status.

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanConfirm(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time, photoURL string) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	if photoURL != "" {
		ap.ResultPhotoURL = photoURL
	}
	return nil
}

// NoShowDecision is what staff chose when marking a no-show.
type NoShowDecision struct {
	ApplyFee bool
	Note     string
}

// MarkNoShow records the fee only when the tenant charges one and staff applied it.
func MarkNoShow(ap *models.Appointment, shop *models.Barbershop, d NoShowDecision) error {
	if err := CanMarkNoShow(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusNoShow)
	ap.NoShowNote = d.Note
	ap.NoShowFeeApplied = false
	ap.NoShowFeeAmount = 0

	if d.ApplyFee && shop.NoShowFeeEnabled && shop.NoShowFeeAmount > 0 {
		ap.NoShowFeeApplied = true
		ap.NoShowFeeAmount = shop.NoShowFeeAmount
	}
	return nil
}

// Reschedule moves the appointment and clears the reminder so it is sent again.
func Reschedule(ap *models.Appointment, date time.Time, clock string, barberID *uint) error {
	if err := CanReschedule(Status(ap.Status)); err != nil {
		return err
	}

	ap.Date = date
	ap.Time = clock
	if barberID != nil {
		ap.BarberID = barberID
	}
	ap.ReminderSentAt = nil
	return nil
}
