package models

import "time"

const (
	WaitlistWaiting   = "waiting"
	WaitlistNotified  = "notified"
	WaitlistBooked    = "booked"
	WaitlistCancelled = "cancelled"
)

type WaitlistEntry struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	BarbershopID uint  `gorm:"index" json:"barbershop_id"`
	ServiceID    *uint `json:"service_id"`
	BarberID     *uint `json:"barber_id"`

	ClientName    string    `gorm:"size:100;not null" json:"client_name"`
	ClientPhone   string    `gorm:"size:20;not null" json:"client_phone"`
	PreferredDate time.Time `gorm:"type:date;index" json:"preferred_date"`
	Notes         string    `gorm:"size:255" json:"notes"`
	Status        string    `gorm:"size:20;default:'waiting'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
