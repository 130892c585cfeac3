package models

import "time"

const (
	RoleOwner      = "owner"
	RoleBarber     = "barber"
	RoleSuperAdmin = "super_admin"
)

// User is a staff account. Barbers are users with a schedule.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BarbershopID uint       `gorm:"index" json:"barbershop_id"`
	Barbershop   Barbershop `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barbershop"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'owner'" json:"role"`

	Active            bool    `gorm:"default:true" json:"active"`
	SortOrder         int     `gorm:"default:0" json:"sort_order"`
	CommissionPercent float64 `gorm:"type:decimal(5,2);default:0" json:"commission_percent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
