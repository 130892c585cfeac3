package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

type Recurrence string

const (
	RecurrenceNone     Recurrence = ""
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// MaxOccurrences caps a single recurring request (two years of weekly visits).
const MaxOccurrences = 104

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// ExpandRecurrence lists the calendar dates of every occurrence, start
// included, up to and including until. Monthly steps are taken from start so
// the 31st normalises the way time.AddDate does and never drifts.
func ExpandRecurrence(start time.Time, r Recurrence, until time.Time) ([]time.Time, error) {
	if !r.Valid() {
		return nil, httperr.ErrBusiness("invalid_recurrence")
	}

	start = timezone.StartOfDay(start)
	if r == RecurrenceNone {
		return []time.Time{start}, nil
	}

	untilKey := timezone.DateKey(until)
	if untilKey < timezone.DateKey(start) {
		return nil, httperr.ErrBusiness("invalid_recurrence")
	}

	var out []time.Time
	for i := 0; i < MaxOccurrences; i++ {
		var next time.Time
		switch r {
		case RecurrenceWeekly:
			next = start.AddDate(0, 0, 7*i)
		case RecurrenceBiweekly:
			next = start.AddDate(0, 0, 14*i)
		case RecurrenceMonthly:
			next = start.AddDate(0, i, 0)
		}

		if timezone.DateKey(next) > untilKey {
			break
		}
		out = append(out, next)
	}

	return out, nil
}
