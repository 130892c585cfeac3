package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

type RescheduleInput struct {
	BarbershopID  uint
	ActorID       *uint
	AppointmentID uint
	Date          string
	Time          string
	BarberID      *uint
}

type RescheduleAppointment struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
	now    func() time.Time
}

func NewRescheduleAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *RescheduleAppointment {
	return &RescheduleAppointment{repo: repo, audit: audit, events: events, now: time.Now}
}

func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*models.Appointment, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	stored, err := uc.repo.GetAppointment(ctx, in.BarbershopID, in.AppointmentID)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
	}
	if err := domain.CanReschedule(domain.Status(stored.Status)); err != nil {
		return stored, err
	}

	loc := timezone.Location(shop.Timezone)
	if !domain.ValidClock(in.Time) {
		return stored, httperr.ErrBusinessMsg("invalid_date_or_time", "Data ou horário inválido")
	}
	day, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return stored, httperr.ErrBusinessMsg("invalid_date_or_time", "Data ou horário inválido")
	}
	at, _ := timezone.ParseDateTime(in.Date, in.Time, loc)
	if at.Before(uc.now()) {
		return stored, httperr.ErrBusinessMsg("past_time", "Horário já passou")
	}

	barberID := in.BarberID
	if barberID == nil {
		barberID = stored.BarberID
	}

	barber, err := resolveBarber(ctx, uc.repo, shop, day, in.Time, barberID, stored.ID)
	if err != nil {
		return stored, err
	}

	next := *stored
	id := barber.ID
	if err := domain.Reschedule(&next, timezone.CalendarDate(day), in.Time, &id); err != nil {
		return stored, err
	}

	if err := uc.repo.RescheduleAppointment(ctx, &next); err != nil {
		return stored, err
	}
	next.Barber = barber

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       in.ActorID,
		Action:       "appointment_rescheduled",
		Entity:       "appointment",
		EntityID:     &next.ID,
		Metadata: map[string]any{
			"from_date": timezone.DateKey(stored.Date),
			"from_time": stored.Time,
			"to_date":   in.Date,
			"to_time":   in.Time,
		},
	})
	realtime.Emit(ctx, uc.events, realtime.EventUpdate, realtime.TableAppointments, in.BarbershopID, next.ID)

	return &next, nil
}
