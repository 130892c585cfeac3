package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

func TestConfirmThenComplete(t *testing.T) {
	repo := newMemRepo()
	rec := &recorder{}
	seeded := repo.seed(1, "2030-01-07", "10:00", domain.StatusPending)
	ctx := context.Background()

	ap, err := NewConfirmAppointment(repo, nil, rec).Execute(ctx, 1, uptr(1), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.NotNil(t, ap.ConfirmedAt)
	assert.Equal(t, string(domain.StatusConfirmed), repo.find(seeded.ID).Status)

	ap, err = NewCompleteAppointment(repo, nil, rec, nil).Execute(ctx, 1, uptr(1), seeded.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), ap.Status)
	assert.NotNil(t, ap.CompletedAt)

	require.Len(t, rec.events, 2)
	assert.Equal(t, realtime.EventUpdate, rec.events[1].Type)
}

func TestRejectedTransitionReturnsStoredState(t *testing.T) {
	repo := newMemRepo()
	seeded := repo.seed(1, "2030-01-07", "10:00", domain.StatusCompleted)

	ap, err := NewCancelAppointment(repo, nil, &recorder{}).Execute(context.Background(), 1, nil, seeded.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	require.NotNil(t, ap)
	assert.Equal(t, string(domain.StatusCompleted), ap.Status)
	assert.Nil(t, ap.CancelledAt)
}

func TestConcurrentChangeIsNotOverwritten(t *testing.T) {
	repo := newMemRepo()
	seeded := repo.seed(1, "2030-01-07", "10:00", domain.StatusPending)

	// Someone cancels between our read and our write.
	repo.beforeStatusUpdate = func(r *memRepo) {
		for i := range r.apps {
			if r.apps[i].ID == seeded.ID {
				r.apps[i].Status = string(domain.StatusCancelled)
			}
		}
	}

	ap, err := NewConfirmAppointment(repo, nil, &recorder{}).Execute(context.Background(), 1, nil, seeded.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	require.NotNil(t, ap)
	assert.Equal(t, string(domain.StatusCancelled), ap.Status)
	assert.Nil(t, ap.ConfirmedAt)
	assert.Equal(t, string(domain.StatusCancelled), repo.find(seeded.ID).Status)
}

func TestTransitionUnknownAppointment(t *testing.T) {
	_, err := NewConfirmAppointment(newMemRepo(), nil, nil).Execute(context.Background(), 1, nil, 424242)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}

func TestCancelReleasesSlotAndNotifiesWaitlist(t *testing.T) {
	repo := newMemRepo()
	rec := &recorder{}
	seeded := repo.seed(1, "2030-01-07", "10:00", domain.StatusConfirmed)
	repo.waitlist = []models.WaitlistEntry{
		{ID: 5, BarbershopID: 1, ClientName: "Eva", ClientPhone: "11977776666",
			PreferredDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC), Status: models.WaitlistWaiting},
		{ID: 6, BarbershopID: 1, ClientName: "Fábio", ClientPhone: "11966665555",
			PreferredDate: time.Date(2030, 1, 8, 0, 0, 0, 0, time.UTC), Status: models.WaitlistWaiting},
	}

	ap, err := NewCancelAppointment(repo, nil, rec).Execute(context.Background(), 1, uptr(1), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), ap.Status)

	require.Len(t, repo.notes, 1)
	n := repo.notes[0]
	assert.Equal(t, NotificationSlotReleased, n.Type)
	assert.Equal(t, "Horário liberado", n.Title)
	assert.True(t, strings.Contains(n.Message, "Eva"))
	assert.Equal(t, seeded.ID, *n.AppointmentID)

	tables := []string{}
	for _, ev := range rec.events {
		tables = append(tables, ev.Table)
	}
	assert.Equal(t, []string{realtime.TableAppointments, realtime.TableNotifications}, tables)

	in := staffInput("2030-01-07", "10:00")
	in.BarberID = uptr(1)
	res, err := newCreate(repo, &recorder{}).Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, uint(1), *res.Appointments[0].BarberID)
}

func TestMarkNoShowFee(t *testing.T) {
	repo := newMemRepo()
	repo.shop.NoShowFeeEnabled = true
	repo.shop.NoShowFeeAmount = 30
	uc := NewMarkNoShow(repo, nil, nil)
	ctx := context.Background()

	charged := repo.seed(1, "2030-01-07", "10:00", domain.StatusConfirmed)
	ap, err := uc.Execute(ctx, 1, nil, charged.ID, domain.NoShowDecision{ApplyFee: true, Note: "não avisou"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNoShow), ap.Status)
	assert.True(t, ap.NoShowFeeApplied)
	assert.Equal(t, 30.0, ap.NoShowFeeAmount)

	waived := repo.seed(1, "2030-01-07", "11:00", domain.StatusConfirmed)
	ap, err = uc.Execute(ctx, 1, nil, waived.ID, domain.NoShowDecision{Note: "primeira vez"})
	require.NoError(t, err)
	assert.False(t, ap.NoShowFeeApplied)
	assert.Zero(t, ap.NoShowFeeAmount)
	assert.Equal(t, "primeira vez", ap.NoShowNote)

	pending := repo.seed(1, "2030-01-07", "12:00", domain.StatusPending)
	_, err = uc.Execute(ctx, 1, nil, pending.ID, domain.NoShowDecision{ApplyFee: true})
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestCompleteUploadsPhotoOnlyWhenAllowed(t *testing.T) {
	repo := newMemRepo()
	photos := &fakePhotos{}
	uc := NewCompleteAppointment(repo, nil, nil, photos)
	ctx := context.Background()

	pending := repo.seed(1, "2030-01-07", "10:00", domain.StatusPending)
	_, err := uc.Execute(ctx, 1, nil, pending.ID, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	assert.Zero(t, photos.uploads)

	confirmed := repo.seed(1, "2030-01-07", "11:00", domain.StatusConfirmed)
	ap, err := uc.Execute(ctx, 1, nil, confirmed.ID, strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, 1, photos.uploads)
	assert.Equal(t, "https://cdn.example.com/results/1/photo.webp", ap.ResultPhotoURL)
	assert.Equal(t, ap.ResultPhotoURL, repo.find(confirmed.ID).ResultPhotoURL)

	photos.err = errBoom
	other := repo.seed(1, "2030-01-07", "12:00", domain.StatusConfirmed)
	ap, err = uc.Execute(ctx, 1, nil, other.ID, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "photo_upload_failed"))
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)

	_, err = NewCompleteAppointment(repo, nil, nil, nil).Execute(ctx, 1, nil, other.ID, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "photo_storage_disabled"))
}

func TestResultPhotoOnCompletedAppointment(t *testing.T) {
	repo := newMemRepo()
	photos := &fakePhotos{}
	rec := &recorder{}
	uc := NewUpdateResultPhoto(repo, nil, rec, photos)
	ctx := context.Background()

	done := repo.seed(1, "2030-01-07", "10:00", domain.StatusCompleted)
	ap, err := uc.Execute(ctx, 1, nil, done.ID, strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, 1, photos.uploads)
	assert.Equal(t, "https://cdn.example.com/results/1/photo.webp", ap.ResultPhotoURL)
	assert.Equal(t, string(domain.StatusCompleted), repo.find(done.ID).Status)
	assert.Equal(t, ap.ResultPhotoURL, repo.find(done.ID).ResultPhotoURL)
	require.NotEmpty(t, rec.events)
	assert.Equal(t, realtime.EventUpdate, rec.events[len(rec.events)-1].Type)

	// a second upload replaces the first
	_, err = uc.Execute(ctx, 1, nil, done.ID, strings.NewReader("img2"))
	require.NoError(t, err)
	assert.Equal(t, 2, photos.uploads)

	cancelled := repo.seed(1, "2030-01-07", "11:00", domain.StatusCancelled)
	_, err = uc.Execute(ctx, 1, nil, cancelled.ID, strings.NewReader("img"))
	require.NoError(t, err)

	_, err = uc.Execute(ctx, 1, nil, 999, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
	assert.Equal(t, 3, photos.uploads)

	photos.err = errBoom
	_, err = uc.Execute(ctx, 1, nil, done.ID, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "photo_upload_failed"))

	_, err = NewUpdateResultPhoto(repo, nil, nil, nil).Execute(ctx, 1, nil, done.ID, strings.NewReader("img"))
	assert.True(t, httperr.IsBusiness(err, "photo_storage_disabled"))
}

func TestReschedule(t *testing.T) {
	repo := newMemRepo()
	moving := repo.seed(1, "2030-01-07", "10:00", domain.StatusPending)
	repo.seed(1, "2030-01-07", "11:00", domain.StatusConfirmed)

	sent := fixedNow
	for i := range repo.apps {
		if repo.apps[i].ID == moving.ID {
			repo.apps[i].ReminderSentAt = &sent
		}
	}

	uc := NewRescheduleAppointment(repo, nil, &recorder{})
	uc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	ap, err := uc.Execute(ctx, RescheduleInput{BarbershopID: 1, AppointmentID: moving.ID, Date: "2030-01-07", Time: "11:00"})
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
	assert.Equal(t, "10:00", ap.Time)
	assert.Equal(t, "10:00", repo.find(moving.ID).Time)

	// Its own slot does not collide with itself.
	_, err = uc.Execute(ctx, RescheduleInput{BarbershopID: 1, AppointmentID: moving.ID, Date: "2030-01-07", Time: "10:00"})
	require.NoError(t, err)

	ap, err = uc.Execute(ctx, RescheduleInput{BarbershopID: 1, AppointmentID: moving.ID, Date: "2030-01-08", Time: "14:00", BarberID: uptr(2)})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-08", timezone.DateKey(ap.Date))
	assert.Equal(t, "14:00", ap.Time)
	assert.Equal(t, uint(2), *ap.BarberID)
	assert.Nil(t, ap.ReminderSentAt)

	done := repo.seed(1, "2030-01-07", "15:00", domain.StatusCompleted)
	_, err = uc.Execute(ctx, RescheduleInput{BarbershopID: 1, AppointmentID: done.ID, Date: "2030-01-09", Time: "10:00"})
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	_, err = uc.Execute(ctx, RescheduleInput{BarbershopID: 1, AppointmentID: moving.ID, Date: "2029-12-01", Time: "10:00"})
	assert.True(t, httperr.IsBusiness(err, "past_time"))
}

func TestNotesAndDelete(t *testing.T) {
	repo := newMemRepo()
	rec := &recorder{}
	done := repo.seed(1, "2030-01-07", "10:00", domain.StatusCompleted)
	ctx := context.Background()

	require.NoError(t, NewUpdateNotes(repo, nil, rec).Execute(ctx, 1, nil, done.ID, "  cliente prefere máquina 2  "))
	assert.Equal(t, "cliente prefere máquina 2", repo.find(done.ID).Notes)

	err := NewUpdateNotes(repo, nil, rec).Execute(ctx, 1, nil, 999, "x")
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))

	require.NoError(t, NewDeleteAppointment(repo, nil, rec).Execute(ctx, 1, nil, done.ID))
	assert.Empty(t, repo.apps)
	assert.Equal(t, realtime.EventDelete, rec.events[len(rec.events)-1].Type)

	err = NewDeleteAppointment(repo, nil, rec).Execute(ctx, 1, nil, done.ID)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}

func TestListByDateAndMonth(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, "2030-01-07", "10:00", domain.StatusPending)
	repo.seed(2, "2030-01-07", "11:00", domain.StatusConfirmed)
	repo.seed(1, "2030-01-20", "10:00", domain.StatusPending)
	repo.seed(1, "2030-02-01", "10:00", domain.StatusPending)
	ctx := context.Background()

	day, err := NewListAppointmentsByDate(repo).Execute(ctx, 1, nil, "2030-01-07")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	day, err = NewListAppointmentsByDate(repo).Execute(ctx, 1, uptr(2), "2030-01-07")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "11:00", day[0].Time)

	month, err := NewListAppointmentsByMonth(repo).Execute(ctx, 1, uptr(1), 2030, 1)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	_, err = NewListAppointmentsByMonth(repo).Execute(ctx, 1, nil, 2030, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_month"))

	_, err = NewListAppointmentsByDate(repo).Execute(ctx, 1, nil, "ontem")
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))
}
