package appointment

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// UpdateResultPhoto attaches or replaces the result photo. Like notes it is
// allowed in every status, terminal ones included.
type UpdateResultPhoto struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
	photos PhotoUploader
}

func NewUpdateResultPhoto(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
	photos PhotoUploader,
) *UpdateResultPhoto {
	return &UpdateResultPhoto{repo: repo, audit: audit, events: events, photos: photos}
}

func (uc *UpdateResultPhoto) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
	photo io.Reader,
) (*models.Appointment, error) {

	if uc.photos == nil || !uc.photos.Enabled() {
		return nil, httperr.ErrBusinessMsg("photo_storage_disabled", "Armazenamento de fotos indisponível")
	}
	if photo == nil {
		return nil, httperr.ErrBusinessMsg("photo_required", "Envie a foto do resultado")
	}

	ap, err := uc.repo.GetAppointment(ctx, barbershopID, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
		}
		return nil, err
	}

	url, err := uc.photos.UploadResultPhoto(ctx, barbershopID, appointmentID, photo)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("photo_upload_failed", "Falha ao enviar a foto")
	}

	err = uc.repo.UpdateResultPhoto(ctx, barbershopID, appointmentID, url)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
	}
	if err != nil {
		return nil, err
	}
	ap.ResultPhotoURL = url

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       "appointment_photo_updated",
		Entity:       "appointment",
		EntityID:     &ap.ID,
	})
	realtime.Emit(ctx, uc.events, realtime.EventUpdate, realtime.TableAppointments, barbershopID, ap.ID)

	return ap, nil
}
