package appointment

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
)

// UpdateNotes edits the free text notes. Allowed in every status, terminal
// ones included.
type UpdateNotes struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
}

func NewUpdateNotes(repo domain.Repository, audit *audit.Dispatcher, events realtime.Publisher) *UpdateNotes {
	return &UpdateNotes{repo: repo, audit: audit, events: events}
}

func (uc *UpdateNotes) Execute(ctx context.Context, barbershopID uint, actorID *uint, appointmentID uint, notes string) error {
	err := uc.repo.UpdateAppointmentNotes(ctx, barbershopID, appointmentID, strings.TrimSpace(notes))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
	}
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       "appointment_notes_updated",
		Entity:       "appointment",
		EntityID:     &appointmentID,
	})
	realtime.Emit(ctx, uc.events, realtime.EventUpdate, realtime.TableAppointments, barbershopID, appointmentID)
	return nil
}

type DeleteAppointment struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
}

func NewDeleteAppointment(repo domain.Repository, audit *audit.Dispatcher, events realtime.Publisher) *DeleteAppointment {
	return &DeleteAppointment{repo: repo, audit: audit, events: events}
}

func (uc *DeleteAppointment) Execute(ctx context.Context, barbershopID uint, actorID *uint, appointmentID uint) error {
	err := uc.repo.DeleteAppointment(ctx, barbershopID, appointmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
	}
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       "appointment_deleted",
		Entity:       "appointment",
		EntityID:     &appointmentID,
	})
	realtime.Emit(ctx, uc.events, realtime.EventDelete, realtime.TableAppointments, barbershopID, appointmentID)
	return nil
}
