package appointment

import (
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

// BlocksSlot reports whether ap holds the (barber, date, time) triple.
// Cancelled and no-show appointments release their slot.
func BlocksSlot(ap models.Appointment, barberID uint, dateKey, clock string) bool {
	if ap.BarberID == nil || *ap.BarberID != barberID {
		return false
	}
	if !Status(ap.Status).Blocks() {
		return false
	}
	return timezone.DateKey(ap.Date) == dateKey && ap.Time == clock
}

// FindConflict returns the first appointment that already holds the slot,
// ignoring excludeID (the appointment being rescheduled). Nil means free.
func FindConflict(apps []models.Appointment, barberID uint, dateKey, clock string, excludeID uint) *models.Appointment {
	for i := range apps {
		if excludeID != 0 && apps[i].ID == excludeID {
			continue
		}
		if BlocksSlot(apps[i], barberID, dateKey, clock) {
			return &apps[i]
		}
	}
	return nil
}
