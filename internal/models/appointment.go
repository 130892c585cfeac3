package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	BarberID *uint `gorm:"index" json:"barber_id"`
	Barber   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barber,omitempty"`

	ClientID uint   `gorm:"index" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`

	Services []Service `gorm:"many2many:appointment_services;" json:"services"`

	Date time.Time `gorm:"type:date;index;not null" json:"date"`
	Time string    `gorm:"size:5;not null" json:"time"`

	Status string `gorm:"size:20;default:'pending';index" json:"status"`
	Source string `gorm:"size:20;default:'staff'" json:"source"`

	TotalPrice       float64 `gorm:"type:decimal(10,2)" json:"total_price"`
	TotalDurationMin int     `json:"total_duration_min"`
	Notes            string  `gorm:"type:text" json:"notes"`

	RecurrenceType    string     `gorm:"size:20" json:"recurrence_type,omitempty"`
	RecurrenceEndDate *time.Time `gorm:"type:date" json:"recurrence_end_date,omitempty"`
	RecurrenceGroup   string     `gorm:"size:36;index" json:"recurrence_group,omitempty"`

	ResultPhotoURL string `gorm:"size:512" json:"result_photo_url,omitempty"`

	NoShowFeeApplied bool    `json:"no_show_fee_applied"`
	NoShowFeeAmount  float64 `gorm:"type:decimal(10,2)" json:"no_show_fee_amount"`
	NoShowNote       string  `gorm:"size:255" json:"no_show_note,omitempty"`

	ConfirmedAt    *time.Time `json:"confirmed_at"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
