package dto

import (
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

type AppointmentListDTO struct {
	ID              uint     `json:"id"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	EndTime         string   `json:"end_time"`
	Status          string   `json:"status"`
	Source          string   `json:"source"`
	ClientID        uint     `json:"client_id"`
	ClientName      string   `json:"client_name"`
	ClientPhone     string   `json:"client_phone"`
	BarberID        *uint    `json:"barber_id"`
	BarberName      string   `json:"barber_name"`
	Services        []string `json:"services"`
	TotalPrice      float64  `json:"total_price"`
	DurationMin     int      `json:"total_duration_min"`
	RecurrenceGroup string   `json:"recurrence_group,omitempty"`
	ResultPhotoURL  string   `json:"result_photo_url,omitempty"`
}

func NewAppointmentListDTO(ap models.Appointment) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:              ap.ID,
		Date:            timezone.DateKey(ap.Date),
		Time:            ap.Time,
		EndTime:         endClock(ap.Time, ap.TotalDurationMin),
		Status:          ap.Status,
		Source:          ap.Source,
		ClientID:        ap.ClientID,
		ClientName:      ap.Client.Name,
		ClientPhone:     ap.Client.Phone,
		BarberID:        ap.BarberID,
		TotalPrice:      ap.TotalPrice,
		DurationMin:     ap.TotalDurationMin,
		RecurrenceGroup: ap.RecurrenceGroup,
		ResultPhotoURL:  ap.ResultPhotoURL,
		Services:        make([]string, 0, len(ap.Services)),
	}
	if ap.Barber != nil {
		out.BarberName = ap.Barber.Name
	}
	for _, s := range ap.Services {
		out.Services = append(out.Services, s.Name)
	}
	return out
}

func endClock(clock string, minutes int) string {
	t, err := time.Parse(timezone.ClockLayout, clock)
	if err != nil {
		return ""
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(timezone.ClockLayout)
}
