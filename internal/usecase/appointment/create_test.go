package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

func uptr(v uint) *uint { return &v }

var (
	sp = timezone.Location(timezone.DefaultTimezone)

	// Tuesday; 2030-01-07 is the following Monday.
	fixedNow = time.Date(2030, 1, 1, 12, 0, 0, 0, sp)
)

func newCreate(repo *memRepo, rec *recorder) *CreateAppointment {
	uc := NewCreateAppointment(repo, nil, rec)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func staffInput(date, clock string) CreateAppointmentInput {
	return CreateAppointmentInput{
		BarbershopID: 1,
		ActorID:      uptr(1),
		ClientID:     uptr(100),
		ServiceIDs:   []uint{10, 11},
		Date:         date,
		Time:         clock,
	}
}

func TestCreateAssignsFirstFreeBarberInRosterOrder(t *testing.T) {
	repo := newMemRepo()
	rec := &recorder{}
	uc := newCreate(repo, rec)
	ctx := context.Background()

	res, err := uc.Execute(ctx, staffInput("2030-01-07", "10:00"))
	require.NoError(t, err)
	require.Len(t, res.Appointments, 1)

	ap := res.Appointments[0]
	assert.Equal(t, uint(1), *ap.BarberID)
	assert.Equal(t, string(domain.StatusPending), ap.Status)
	assert.Equal(t, SourceStaff, ap.Source)
	assert.Equal(t, 80.0, ap.TotalPrice)
	assert.Equal(t, 50, ap.TotalDurationMin)
	assert.Equal(t, "2030-01-07", timezone.DateKey(ap.Date))
	assert.Equal(t, time.UTC, ap.Date.Location())
	assert.Empty(t, res.RecurrenceGroup)

	require.Len(t, rec.events, 1)
	assert.Equal(t, realtime.EventInsert, rec.events[0].Type)
	assert.Equal(t, realtime.TableAppointments, rec.events[0].Table)

	res, err = uc.Execute(ctx, staffInput("2030-01-07", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, uint(2), *res.Appointments[0].BarberID)

	_, err = uc.Execute(ctx, staffInput("2030-01-07", "10:00"))
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
	assert.Len(t, repo.apps, 2)
}

func TestCreateWeeklyRecurrenceCreatesEveryOccurrence(t *testing.T) {
	repo := newMemRepo()
	uc := newCreate(repo, &recorder{})

	in := staffInput("2030-01-07", "10:00")
	in.Recurrence = domain.RecurrenceWeekly
	in.RecurrenceEnd = "2030-01-28"

	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Appointments, 4)
	assert.Empty(t, res.Skipped)
	require.NotEmpty(t, res.RecurrenceGroup)

	want := []string{"2030-01-07", "2030-01-14", "2030-01-21", "2030-01-28"}
	for i, ap := range res.Appointments {
		assert.Equal(t, want[i], timezone.DateKey(ap.Date))
		assert.Equal(t, res.RecurrenceGroup, ap.RecurrenceGroup)
		assert.Equal(t, string(domain.RecurrenceWeekly), ap.RecurrenceType)
		require.NotNil(t, ap.RecurrenceEndDate)
		assert.Equal(t, "2030-01-28", timezone.DateKey(*ap.RecurrenceEndDate))
	}
}

func TestCreateRecurrenceSkipsTakenDates(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, "2030-01-14", "10:00", domain.StatusConfirmed)
	repo.seed(2, "2030-01-14", "10:00", domain.StatusPending)
	uc := newCreate(repo, &recorder{})

	in := staffInput("2030-01-07", "10:00")
	in.Recurrence = domain.RecurrenceWeekly
	in.RecurrenceEnd = "2030-01-28"

	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, res.Appointments, 3)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "2030-01-14", res.Skipped[0].Date)
	assert.Equal(t, "time_conflict", res.Skipped[0].Code)
}

func TestCreateRecurrenceFailsWhenNothingIsFree(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, "2030-01-07", "10:00", domain.StatusConfirmed)
	repo.seed(1, "2030-01-14", "10:00", domain.StatusConfirmed)
	uc := newCreate(repo, &recorder{})

	in := staffInput("2030-01-07", "10:00")
	in.BarberID = uptr(1)
	in.Recurrence = domain.RecurrenceWeekly
	in.RecurrenceEnd = "2030-01-14"

	res, err := uc.Execute(context.Background(), in)
	assert.Nil(t, res)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
}

func TestCreateRequestedBarberOnly(t *testing.T) {
	repo := newMemRepo()
	repo.seed(2, "2030-01-07", "10:00", domain.StatusConfirmed)
	uc := newCreate(repo, &recorder{})

	in := staffInput("2030-01-07", "10:00")
	in.BarberID = uptr(2)
	_, err := uc.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))

	in.BarberID = uptr(99)
	_, err = uc.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "barber_not_found"))
}

func TestCreatePublicBooking(t *testing.T) {
	repo := newMemRepo()
	repo.shop.AutoConfirm = true
	rec := &recorder{}
	uc := NewCreateAppointment(repo, nil, rec)
	uc.now = func() time.Time { return time.Date(2030, 1, 7, 9, 0, 0, 0, sp) }

	in := CreateAppointmentInput{
		BarbershopID: 1,
		Source:       SourcePublic,
		ClientName:   "Diego",
		ClientPhone:  "11988887777",
		ServiceIDs:   []uint{10},
		Date:         "2030-01-07",
		Time:         "10:00",
	}

	_, err := uc.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "too_soon"))

	in.Time = "11:00"
	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	ap := res.Appointments[0]
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.NotNil(t, ap.ConfirmedAt)
	assert.Equal(t, SourcePublic, ap.Source)
	assert.Equal(t, "Diego", ap.Client.Name)
	assert.Len(t, repo.clients, 2)
}

func TestCreateStaffSkipsMinAdvanceAndHonoursConfirm(t *testing.T) {
	repo := newMemRepo()
	uc := NewCreateAppointment(repo, nil, &recorder{})
	uc.now = func() time.Time { return time.Date(2030, 1, 7, 9, 50, 0, 0, sp) }

	in := staffInput("2030-01-07", "10:00")
	in.Confirm = true

	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), res.Appointments[0].Status)
}

func TestCreateRejections(t *testing.T) {
	cases := []struct {
		name string
		edit func(*CreateAppointmentInput, *memRepo)
		code string
	}{
		{"bad clock", func(in *CreateAppointmentInput, _ *memRepo) { in.Time = "25:00" }, "invalid_date_or_time"},
		{"bad date", func(in *CreateAppointmentInput, _ *memRepo) { in.Date = "07/01/2030" }, "invalid_date_or_time"},
		{"past", func(in *CreateAppointmentInput, _ *memRepo) { in.Date = "2029-12-31" }, "past_time"},
		{"no services", func(in *CreateAppointmentInput, _ *memRepo) { in.ServiceIDs = nil }, "service_required"},
		{"unknown service", func(in *CreateAppointmentInput, _ *memRepo) { in.ServiceIDs = []uint{10, 99} }, "service_not_found"},
		{"unknown client", func(in *CreateAppointmentInput, _ *memRepo) { in.ClientID = uptr(7) }, "client_not_found"},
		{"anonymous client", func(in *CreateAppointmentInput, _ *memRepo) { in.ClientID = nil }, "client_required"},
		{"after closing", func(in *CreateAppointmentInput, _ *memRepo) { in.Time = "18:00" }, "outside_working_hours"},
		{"off grid", func(in *CreateAppointmentInput, _ *memRepo) { in.Time = "10:15" }, "outside_working_hours"},
		{"inactive shop", func(_ *CreateAppointmentInput, r *memRepo) { r.shop.Active = false }, "barbershop_inactive"},
		{"bad recurrence", func(in *CreateAppointmentInput, _ *memRepo) {
			in.Recurrence = "daily"
			in.RecurrenceEnd = "2030-02-01"
		}, "invalid_recurrence"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemRepo()
			in := staffInput("2030-01-07", "10:00")
			tc.edit(&in, repo)

			_, err := newCreate(repo, &recorder{}).Execute(context.Background(), in)
			assert.True(t, httperr.IsBusiness(err, tc.code), "got %v", err)
			assert.Empty(t, repo.apps)
		})
	}
}

func TestCreateDoesNotBookWhenAppointmentsFailToLoad(t *testing.T) {
	repo := newMemRepo()
	repo.failListAppointments = errBoom

	_, err := newCreate(repo, &recorder{}).Execute(context.Background(), staffInput("2030-01-07", "10:00"))
	assert.True(t, errors.Is(err, errBoom))
	assert.Empty(t, repo.apps)
}

func TestGetAvailability(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, "2030-01-07", "09:00", domain.StatusConfirmed)
	uc := NewGetAvailability(repo)
	uc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	slots, err := uc.Execute(ctx, AvailabilityInput{BarbershopID: 1, Date: "2030-01-07"})
	require.NoError(t, err)
	require.Len(t, slots, 18)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, uint(2), *slots[0].BarberID)

	slots, err = uc.Execute(ctx, AvailabilityInput{BarbershopID: 1, Date: "2030-01-07", BarberID: uptr(1)})
	require.NoError(t, err)
	assert.False(t, slots[0].Available)
	assert.Equal(t, domain.ReasonAllBusy, slots[0].Reason)

	_, err = uc.Execute(ctx, AvailabilityInput{BarbershopID: 1, Date: "2030-01-07", BarberID: uptr(99)})
	assert.True(t, httperr.IsBusiness(err, "barber_not_found"))

	_, err = uc.Execute(ctx, AvailabilityInput{BarbershopID: 1, Date: "amanhã"})
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))

	repo.failListAppointments = errBoom
	slots, err = uc.Execute(ctx, AvailabilityInput{BarbershopID: 1, Date: "2030-01-07"})
	assert.True(t, errors.Is(err, errBoom))
	assert.Nil(t, slots)
}
