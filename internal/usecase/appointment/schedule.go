package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

// loadDay gathers everything the slot generator needs for one tenant day.
// Any load failure is returned as is; no slots are computed from partial data.
func loadDay(
	ctx context.Context,
	repo domain.Repository,
	shop *models.Barbershop,
	day time.Time,
) (domain.SlotInput, error) {

	in := domain.SlotInput{
		Date:     timezone.DateKey(day),
		Location: day.Location(),
		Interval: time.Duration(shop.SlotIntervalMinutes) * time.Minute,
	}

	var err error
	if in.Roster, err = repo.ListRoster(ctx, shop.ID); err != nil {
		return in, err
	}
	if in.Shifts, err = repo.ListShifts(ctx, shop.ID); err != nil {
		return in, err
	}
	if in.Hours, err = repo.GetBusinessHours(ctx, shop.ID, int(day.Weekday())); err != nil {
		return in, err
	}
	if in.Absences, err = repo.ListAbsencesOn(ctx, shop.ID, day); err != nil {
		return in, err
	}
	if in.Blocked, err = repo.ListBlockedSlotsBetween(ctx, shop.ID, day, day.AddDate(0, 0, 1)); err != nil {
		return in, err
	}
	if in.Appointments, err = repo.ListAppointmentsOn(ctx, shop.ID, day); err != nil {
		return in, err
	}

	return in, nil
}

func onlyBarber(roster []models.User, barberID uint) ([]models.User, bool) {
	for _, u := range roster {
		if u.ID == barberID {
			return []models.User{u}, true
		}
	}
	return nil, false
}

func withoutAppointment(apps []models.Appointment, id uint) []models.Appointment {
	if id == 0 {
		return apps
	}
	out := make([]models.Appointment, 0, len(apps))
	for _, ap := range apps {
		if ap.ID != id {
			out = append(out, ap)
		}
	}
	return out
}

// resolveBarber decides who takes (day, clock): the requested barber if they
// can, otherwise the first free one in roster order.
func resolveBarber(
	ctx context.Context,
	repo domain.Repository,
	shop *models.Barbershop,
	day time.Time,
	clock string,
	barberID *uint,
	excludeID uint,
) (*models.User, error) {

	in, err := loadDay(ctx, repo, shop, day)
	if err != nil {
		return nil, err
	}
	in.Appointments = withoutAppointment(in.Appointments, excludeID)

	if barberID != nil {
		roster, ok := onlyBarber(in.Roster, *barberID)
		if !ok {
			return nil, httperr.ErrBusinessMsg("barber_not_found", "Profissional não encontrado")
		}
		in.Roster = roster
	}

	slots, err := domain.GenerateSlots(in)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data inválida")
	}

	for _, s := range slots {
		if s.Time != clock {
			continue
		}
		if !s.Available {
			if s.Reason == domain.ReasonAllBusy {
				return nil, httperr.ErrBusinessMsg("time_conflict", "Horário já reservado")
			}
			return nil, httperr.ErrBusinessMsg("barber_unavailable", s.Reason)
		}
		for i := range in.Roster {
			if in.Roster[i].ID == *s.BarberID {
				return &in.Roster[i], nil
			}
		}
	}

	return nil, httperr.ErrBusinessMsg("outside_working_hours", "Horário fora do expediente")
}
