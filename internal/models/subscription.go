package models

import "time"

type PlatformSubscription struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BarbershopID uint       `gorm:"uniqueIndex" json:"barbershop_id"`
	Barbershop   Barbershop `gorm:"constraint:OnDelete:CASCADE;" json:"barbershop"`

	Plan              string     `gorm:"size:20;not null" json:"plan"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	Amount            float64    `gorm:"type:decimal(10,2)" json:"amount"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	ExternalReference string     `gorm:"size:64;index" json:"external_reference"`
	CheckoutURL       string     `gorm:"size:512" json:"checkout_url"`
	LastPaymentID     string     `gorm:"size:64" json:"last_payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
