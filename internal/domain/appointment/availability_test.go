package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

func uptr(v uint) *uint { return &v }

func calendar(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	sp     = timezone.Location(timezone.DefaultTimezone)
	monday = "2024-01-08"
	before = time.Date(2024, 1, 5, 10, 0, 0, 0, sp)

	ana   = models.User{ID: 1, Name: "Ana"}
	bruno = models.User{ID: 2, Name: "Bruno"}
)

func baseInput() SlotInput {
	return SlotInput{
		Date:     monday,
		Location: sp,
		Now:      before,
		Roster:   []models.User{ana, bruno},
	}
}

func slotAt(t *testing.T, slots []Slot, clock string) Slot {
	t.Helper()
	for _, s := range slots {
		if s.Time == clock {
			return s
		}
	}
	t.Fatalf("slot %s not generated", clock)
	return Slot{}
}

func TestGenerateSlots_EmptyDayAssignsFirstBarber(t *testing.T) {
	slots, err := GenerateSlots(baseInput())
	require.NoError(t, err)

	require.Len(t, slots, 18)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "17:30", slots[len(slots)-1].Time)

	for _, s := range slots {
		assert.True(t, s.Available, s.Time)
		require.NotNil(t, s.BarberID)
		assert.Equal(t, ana.ID, *s.BarberID)
		assert.Equal(t, "Ana", s.BarberName)
		assert.Empty(t, s.Reason)
	}
}

func TestGenerateSlots_PastDateIsUnavailable(t *testing.T) {
	in := baseInput()
	in.Now = time.Date(2024, 1, 9, 8, 0, 0, 0, sp)

	slots, err := GenerateSlots(in)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, s := range slots {
		assert.False(t, s.Available)
		assert.Nil(t, s.BarberID)
		assert.Equal(t, ReasonPastDate, s.Reason)
	}
}

func TestGenerateSlots_TodayIsNotPast(t *testing.T) {
	in := baseInput()
	in.Now = time.Date(2024, 1, 8, 17, 0, 0, 0, sp)

	slots, err := GenerateSlots(in)
	require.NoError(t, err)
	assert.True(t, slotAt(t, slots, "09:00").Available)
}

func TestGenerateSlots_CollisionFallsToNextBarber(t *testing.T) {
	in := baseInput()
	in.Appointments = []models.Appointment{
		{ID: 10, BarberID: uptr(ana.ID), Date: calendar(2024, 1, 8), Time: "10:00", Status: string(StatusConfirmed)},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	s := slotAt(t, slots, "10:00")
	assert.True(t, s.Available)
	assert.Equal(t, bruno.ID, *s.BarberID)

	assert.Equal(t, ana.ID, *slotAt(t, slots, "10:30").BarberID)
}

func TestGenerateSlots_AllBusy(t *testing.T) {
	in := baseInput()
	in.Appointments = []models.Appointment{
		{BarberID: uptr(ana.ID), Date: calendar(2024, 1, 8), Time: "10:00", Status: string(StatusPending)},
		{BarberID: uptr(bruno.ID), Date: calendar(2024, 1, 8), Time: "10:00", Status: string(StatusCompleted)},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	s := slotAt(t, slots, "10:00")
	assert.False(t, s.Available)
	assert.Equal(t, ReasonAllBusy, s.Reason)
}

func TestGenerateSlots_ReleasedStatusesDoNotBlock(t *testing.T) {
	for _, st := range []Status{StatusCancelled, StatusNoShow} {
		t.Run(string(st), func(t *testing.T) {
			in := baseInput()
			in.Roster = []models.User{ana}
			in.Appointments = []models.Appointment{
				{BarberID: uptr(ana.ID), Date: calendar(2024, 1, 8), Time: "10:00", Status: string(st)},
			}

			slots, err := GenerateSlots(in)
			require.NoError(t, err)

			s := slotAt(t, slots, "10:00")
			assert.True(t, s.Available)
			assert.Equal(t, ana.ID, *s.BarberID)
		})
	}
}

func TestGenerateSlots_OtherDateDoesNotCollide(t *testing.T) {
	in := baseInput()
	in.Roster = []models.User{ana}
	in.Appointments = []models.Appointment{
		{BarberID: uptr(ana.ID), Date: calendar(2024, 1, 9), Time: "10:00", Status: string(StatusConfirmed)},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)
	assert.True(t, slotAt(t, slots, "10:00").Available)
}

func TestGenerateSlots_AbsentBarberLeavesNoStaff(t *testing.T) {
	in := baseInput()
	in.Roster = []models.User{ana}
	in.Absences = []models.StaffAbsence{
		{BarberID: ana.ID, StartDate: calendar(2024, 1, 7), EndDate: calendar(2024, 1, 8), Type: models.AbsenceVacation},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	for _, s := range slots {
		assert.False(t, s.Available)
		assert.Equal(t, ReasonNoStaff, s.Reason)
	}
}

func TestGenerateSlots_BlockedRangeIsHalfOpen(t *testing.T) {
	in := baseInput()
	in.Blocked = []models.BlockedSlot{
		{
			BarberID: ana.ID,
			StartAt:  time.Date(2024, 1, 8, 10, 0, 0, 0, sp),
			EndAt:    time.Date(2024, 1, 8, 11, 0, 0, 0, sp),
		},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	assert.Equal(t, bruno.ID, *slotAt(t, slots, "10:00").BarberID)
	assert.Equal(t, bruno.ID, *slotAt(t, slots, "10:30").BarberID)
	assert.Equal(t, ana.ID, *slotAt(t, slots, "11:00").BarberID)
}

func TestGenerateSlots_ShiftsLimitBarbersThatHaveThem(t *testing.T) {
	in := baseInput()
	in.Roster = []models.User{ana}
	in.Shifts = []models.StaffShift{
		{BarberID: ana.ID, Weekday: int(time.Monday), StartTime: "13:00", EndTime: "18:00", Active: true},
	}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	assert.Equal(t, ReasonNoStaff, slotAt(t, slots, "09:00").Reason)
	assert.Equal(t, ReasonNoStaff, slotAt(t, slots, "12:30").Reason)
	assert.True(t, slotAt(t, slots, "13:00").Available)

	in.Roster = []models.User{ana, bruno}
	slots, err = GenerateSlots(in)
	require.NoError(t, err)
	assert.Equal(t, bruno.ID, *slotAt(t, slots, "09:00").BarberID)
	assert.Equal(t, ana.ID, *slotAt(t, slots, "13:00").BarberID)
}

func TestGenerateSlots_BusinessHours(t *testing.T) {
	in := baseInput()
	in.Hours = &models.BusinessHours{Weekday: int(time.Monday), OpenTime: "10:00", CloseTime: "12:00"}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)

	require.Len(t, slots, 4)
	assert.Equal(t, "10:00", slots[0].Time)
	assert.Equal(t, "11:30", slots[3].Time)
}

func TestGenerateSlots_ClosedDay(t *testing.T) {
	in := baseInput()
	in.Hours = &models.BusinessHours{Weekday: int(time.Monday), Closed: true}

	slots, err := GenerateSlots(in)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_CustomInterval(t *testing.T) {
	in := baseInput()
	in.Interval = 60 * time.Minute

	slots, err := GenerateSlots(in)
	require.NoError(t, err)
	assert.Len(t, slots, 9)
}

func TestGenerateSlots_InvalidDate(t *testing.T) {
	in := baseInput()
	in.Date = "08/01/2024"

	_, err := GenerateSlots(in)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValidClock(t *testing.T) {
	assert.True(t, ValidClock("09:30"))
	assert.False(t, ValidClock("9:30"))
	assert.False(t, ValidClock("25:00"))
}
