package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// transition loads the appointment, applies action to a copy and stores it
// with a compare-and-swap on the loaded status. When anything fails the
// caller gets the stored appointment back, never the mutated copy.
type transition struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
	now    func() time.Time
}

func (t transition) run(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
	auditAction string,
	action func(ap *models.Appointment, shop *models.Barbershop, now time.Time) error,
) (*models.Appointment, error) {

	shop, err := t.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	stored, err := t.repo.GetAppointment(ctx, barbershopID, appointmentID)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
	}

	next := *stored
	from := domain.Status(stored.Status)

	if err := action(&next, shop, t.now()); err != nil {
		return stored, err
	}

	if err := t.repo.UpdateAppointmentStatus(ctx, &next, from); err != nil {
		if fresh, ferr := t.repo.GetAppointment(ctx, barbershopID, appointmentID); ferr == nil {
			stored = fresh
		}
		return stored, err
	}

	metrics.StatusTransitions.WithLabelValues(next.Status).Inc()

	t.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       auditAction,
		Entity:       "appointment",
		EntityID:     &next.ID,
		Metadata:     map[string]any{"from": string(from), "to": next.Status},
	})
	realtime.Emit(ctx, t.events, realtime.EventUpdate, realtime.TableAppointments, barbershopID, next.ID)

	return &next, nil
}

func newTransition(repo domain.Repository, audit *audit.Dispatcher, events realtime.Publisher) transition {
	return transition{repo: repo, audit: audit, events: events, now: time.Now}
}

// ======================================================
// Confirm
// ======================================================

type ConfirmAppointment struct {
	transition
}

func NewConfirmAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *ConfirmAppointment {
	return &ConfirmAppointment{newTransition(repo, audit, events)}
}

func (uc *ConfirmAppointment) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.run(ctx, barbershopID, actorID, appointmentID, "appointment_confirmed",
		func(ap *models.Appointment, _ *models.Barbershop, now time.Time) error {
			return domain.Confirm(ap, now)
		})
}

// ======================================================
// No-show
// ======================================================

type MarkNoShow struct {
	transition
}

func NewMarkNoShow(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *MarkNoShow {
	return &MarkNoShow{newTransition(repo, audit, events)}
}

func (uc *MarkNoShow) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
	decision domain.NoShowDecision,
) (*models.Appointment, error) {
	return uc.run(ctx, barbershopID, actorID, appointmentID, "appointment_no_show",
		func(ap *models.Appointment, shop *models.Barbershop, _ time.Time) error {
			return domain.MarkNoShow(ap, shop, decision)
		})
}
