package models

import "time"

// Barbershop is the tenant. Every other row is scoped to one.
type Barbershop struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	Name                string  `gorm:"size:100;not null" json:"name"`
	Slug                string  `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone               string  `gorm:"size:20" json:"phone"`
	Address             string  `gorm:"size:255" json:"address"`
	Timezone            string  `gorm:"size:64;default:'America/Sao_Paulo'" json:"timezone"`
	MinAdvanceMinutes   int     `gorm:"default:120" json:"min_advance_minutes"`
	SlotIntervalMinutes int     `gorm:"default:30" json:"slot_interval_minutes"`
	AutoConfirm         bool    `gorm:"default:false" json:"auto_confirm"`
	NoShowFeeEnabled    bool    `gorm:"default:false" json:"no_show_fee_enabled"`
	NoShowFeeAmount     float64 `gorm:"type:decimal(10,2);default:0" json:"no_show_fee_amount"`
	LoyaltyPointsPerBRL float64 `gorm:"type:decimal(6,2);default:1" json:"loyalty_points_per_real"`
	Active              bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
