package models

import "time"

// Notification is an in-app message shown on the staff dashboard.
type Notification struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	BarbershopID  uint  `gorm:"index" json:"barbershop_id"`
	UserID        *uint `gorm:"index" json:"user_id"`
	AppointmentID *uint `json:"appointment_id"`

	Type    string     `gorm:"size:30" json:"type"`
	Title   string     `gorm:"size:120" json:"title"`
	Message string     `gorm:"type:text" json:"message"`
	ReadAt  *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

type Campaign struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	Name         string     `gorm:"size:100;not null" json:"name"`
	Channel      string     `gorm:"size:20;not null" json:"channel"`
	Segment      string     `gorm:"size:30;not null" json:"segment"`
	InactiveDays int        `json:"inactive_days"`
	Subject      string     `gorm:"size:150" json:"subject"`
	Template     string     `gorm:"type:text;not null" json:"template"`
	Status       string     `gorm:"size:20;default:'draft'" json:"status"`
	SentCount    int        `json:"sent_count"`
	FailedCount  int        `json:"failed_count"`
	SentAt       *time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CampaignDelivery struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`
	CampaignID   uint `gorm:"index" json:"campaign_id"`
	ClientID     uint `json:"client_id"`

	Channel   string `gorm:"size:20" json:"channel"`
	Recipient string `gorm:"size:150" json:"recipient"`
	Status    string `gorm:"size:20" json:"status"`
	Error     string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (CampaignDelivery) TableName() string {
	return "notification_deliveries"
}
