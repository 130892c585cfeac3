package appointment

import (
	"context"
	"io"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// PhotoUploader stores a result photo and returns its public URL.
type PhotoUploader interface {
	Enabled() bool
	UploadResultPhoto(ctx context.Context, barbershopID, appointmentID uint, r io.Reader) (string, error)
}

type CompleteAppointment struct {
	transition
	photos PhotoUploader
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
	photos PhotoUploader,
) *CompleteAppointment {
	return &CompleteAppointment{
		transition: newTransition(repo, audit, events),
		photos:     photos,
	}
}

// Execute completes the appointment. photo may be nil. The photo is only
// uploaded once the transition is known to be allowed.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	appointmentID uint,
	photo io.Reader,
) (*models.Appointment, error) {

	var url string
	if photo != nil {
		if uc.photos == nil || !uc.photos.Enabled() {
			return nil, httperr.ErrBusinessMsg("photo_storage_disabled", "Armazenamento de fotos indisponível")
		}

		current, err := uc.repo.GetAppointment(ctx, barbershopID, appointmentID)
		if err != nil {
			return nil, httperr.ErrBusinessMsg("appointment_not_found", "Agendamento não encontrado")
		}
		if err := domain.CanComplete(domain.Status(current.Status)); err != nil {
			return current, err
		}

		url, err = uc.photos.UploadResultPhoto(ctx, barbershopID, appointmentID, photo)
		if err != nil {
			return current, httperr.ErrBusinessMsg("photo_upload_failed", "Falha ao enviar a foto")
		}
	}

	return uc.run(ctx, barbershopID, actorID, appointmentID, "appointment_completed",
		func(ap *models.Appointment, _ *models.Barbershop, now time.Time) error {
			return domain.Complete(ap, now, url)
		})
}
