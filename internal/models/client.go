package models

import "time"

// Cliente simples, sem login, vinculado à barbearia
type Client struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"uniqueIndex:ux_clients_phone;index" json:"barbershop_id"`

	Name          string     `gorm:"size:100;not null" json:"name"`
	Phone         string     `gorm:"size:20;uniqueIndex:ux_clients_phone" json:"phone"`
	Email         string     `gorm:"size:100" json:"email"`
	BirthDate     *time.Time `gorm:"type:date" json:"birth_date"`
	Notes         string     `gorm:"type:text" json:"notes"`
	LoyaltyPoints int        `gorm:"default:0" json:"loyalty_points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
