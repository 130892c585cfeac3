package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

const NotificationSlotReleased = "slot_released"

type CancelAppointment struct {
	transition
}

func NewCancelAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *CancelAppointment {
	return &CancelAppointment{newTransition(repo, audit, events)}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := uc.run(ctx, barbershopID, actorID, appointmentID, "appointment_cancelled",
		func(ap *models.Appointment, _ *models.Barbershop, now time.Time) error {
			return domain.Cancel(ap, now)
		})
	if err != nil {
		return ap, err
	}

	uc.notifyWaitlist(ctx, ap)
	return ap, nil
}

// notifyWaitlist tells staff that someone waiting for this date can now be
// booked. Failures are logged; the cancellation already happened.
func (uc *CancelAppointment) notifyWaitlist(ctx context.Context, ap *models.Appointment) {
	logger := zerolog.Ctx(ctx)

	entries, err := uc.repo.ListWaitlistOn(ctx, ap.BarbershopID, ap.Date)
	if err != nil {
		logger.Warn().Err(err).Uint("appointment_id", ap.ID).Msg("waitlist lookup failed")
		return
	}

	for _, e := range entries {
		apID := ap.ID
		n := &models.Notification{
			BarbershopID:  ap.BarbershopID,
			AppointmentID: &apID,
			Type:          NotificationSlotReleased,
			Title:         "Horário liberado",
			Message: fmt.Sprintf(
				"%s às %s ficou livre. %s (%s) está na lista de espera.",
				ap.Date.Format("02/01/2006"), ap.Time, e.ClientName, e.ClientPhone,
			),
		}
		if err := uc.repo.CreateNotification(ctx, n); err != nil {
			logger.Warn().Err(err).Uint("waitlist_id", e.ID).Msg("waitlist notification failed")
			continue
		}
		realtime.Emit(ctx, uc.events, realtime.EventInsert, realtime.TableNotifications, ap.BarbershopID, n.ID)
	}
}
