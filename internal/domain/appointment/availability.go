package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

var ErrInvalidDate = errors.New("appointment: invalid date")

const (
	DefaultSlotInterval = 30 * time.Minute
	DefaultOpenTime     = "09:00"
	DefaultCloseTime    = "18:00"
)

// Motivos exibidos ao cliente
const (
	ReasonNoStaff  = "Nenhum profissional disponível"
	ReasonAllBusy  = "Todos os profissionais ocupados"
	ReasonPastDate = "Data já passou"
)

// SlotInput is everything loaded for one tenant day. Roster order decides
// which barber gets a free slot.
type SlotInput struct {
	Date     string
	Location *time.Location
	Now      time.Time
	Interval time.Duration

	Roster       []models.User
	Appointments []models.Appointment
	Absences     []models.StaffAbsence
	Blocked      []models.BlockedSlot
	Shifts       []models.StaffShift
	Hours        *models.BusinessHours
}

type Slot struct {
	Time       string `json:"time"`
	Available  bool   `json:"available"`
	BarberID   *uint  `json:"barber_id,omitempty"`
	BarberName string `json:"barber_name,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// GenerateSlots lays the day out on a fixed grid and assigns each free slot
// to the first barber in roster order that can take it. Collisions are exact
// (barber, date, time) matches; service duration is not considered.
func GenerateSlots(in SlotInput) ([]Slot, error) {
	loc := in.Location
	if loc == nil {
		loc = timezone.Location(timezone.DefaultTimezone)
	}

	day, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.Date)
	}
	dateKey := timezone.DateKey(day)

	open, closeAt, closed := dayWindow(in.Hours)
	if closed {
		return []Slot{}, nil
	}

	step := int(in.Interval / time.Minute)
	if step <= 0 {
		step = int(DefaultSlotInterval / time.Minute)
	}

	past := false
	if !in.Now.IsZero() {
		past = dateKey < timezone.DateKey(in.Now.In(loc))
	}

	busy := busySlots(in.Appointments, dateKey)
	withShifts := barbersWithShifts(in.Shifts)
	weekday := int(day.Weekday())

	var slots []Slot
	for m := open; m < closeAt; m += step {
		clock := formatClock(m)
		at := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, loc)

		slot := Slot{Time: clock}

		if past {
			slot.Reason = ReasonPastDate
			slots = append(slots, slot)
			continue
		}

		eligible := 0
		for i := range in.Roster {
			barber := &in.Roster[i]

			if isAbsent(in.Absences, barber.ID, dateKey) ||
				isBlocked(in.Blocked, barber.ID, at) ||
				(withShifts[barber.ID] && !inShift(in.Shifts, barber.ID, weekday, m)) {
				continue
			}
			eligible++

			if busy[slotKey{barber.ID, clock}] {
				continue
			}

			id := barber.ID
			slot.Available = true
			slot.BarberID = &id
			slot.BarberName = barber.Name
			break
		}

		if !slot.Available {
			if eligible == 0 {
				slot.Reason = ReasonNoStaff
			} else {
				slot.Reason = ReasonAllBusy
			}
		}

		slots = append(slots, slot)
	}

	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}

// ------------------------------------------------------
// helpers
// ------------------------------------------------------

type slotKey struct {
	barberID uint
	clock    string
}

func busySlots(apps []models.Appointment, dateKey string) map[slotKey]bool {
	busy := make(map[slotKey]bool, len(apps))
	for _, ap := range apps {
		if ap.BarberID == nil || !Status(ap.Status).Blocks() {
			continue
		}
		if timezone.DateKey(ap.Date) != dateKey {
			continue
		}
		busy[slotKey{*ap.BarberID, ap.Time}] = true
	}
	return busy
}

func dayWindow(h *models.BusinessHours) (open, closeAt int, closed bool) {
	open, _ = parseClock(DefaultOpenTime)
	closeAt, _ = parseClock(DefaultCloseTime)

	if h == nil {
		return open, closeAt, false
	}
	if h.Closed {
		return 0, 0, true
	}

	if o, err := parseClock(h.OpenTime); err == nil {
		open = o
	}
	if c, err := parseClock(h.CloseTime); err == nil {
		closeAt = c
	}
	return open, closeAt, false
}

func isAbsent(absences []models.StaffAbsence, barberID uint, dateKey string) bool {
	for _, a := range absences {
		if a.BarberID != barberID {
			continue
		}
		if timezone.DateKey(a.StartDate) <= dateKey && dateKey <= timezone.DateKey(a.EndDate) {
			return true
		}
	}
	return false
}

func isBlocked(blocks []models.BlockedSlot, barberID uint, at time.Time) bool {
	for _, b := range blocks {
		if b.BarberID != barberID {
			continue
		}
		if !at.Before(b.StartAt) && at.Before(b.EndAt) {
			return true
		}
	}
	return false
}

func barbersWithShifts(shifts []models.StaffShift) map[uint]bool {
	out := make(map[uint]bool)
	for _, s := range shifts {
		if s.Active {
			out[s.BarberID] = true
		}
	}
	return out
}

func inShift(shifts []models.StaffShift, barberID uint, weekday, minute int) bool {
	for _, s := range shifts {
		if !s.Active || s.BarberID != barberID || s.Weekday != weekday {
			continue
		}
		start, err1 := parseClock(s.StartTime)
		end, err2 := parseClock(s.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// parseClock converts HH:MM into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(timezone.ClockLayout, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidClock reports whether s is a well formed HH:MM.
func ValidClock(s string) bool {
	_, err := parseClock(s)
	return err == nil && len(s) == 5
}
