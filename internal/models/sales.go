package models

import "time"

// Product is a retail item sold over the counter (pomade, shampoo...).
type Product struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`

	Name     string  `gorm:"size:100;not null" json:"name"`
	SKU      string  `gorm:"size:50" json:"sku"`
	Price    float64 `gorm:"type:decimal(10,2)" json:"price"`
	Cost     float64 `gorm:"type:decimal(10,2)" json:"cost"`
	Stock    int     `gorm:"default:0" json:"stock"`
	MinStock int     `gorm:"default:0" json:"min_stock"`
	Active   bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockMovement struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"index" json:"barbershop_id"`
	ProductID    uint `gorm:"index" json:"product_id"`
	SaleID       *uint `json:"sale_id"`
	UserID       *uint `json:"user_id"`

	Type          string `gorm:"size:20;not null" json:"type"`
	Quantity      int    `json:"quantity"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
	Reason        string `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}

type Coupon struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BarbershopID uint `gorm:"uniqueIndex:ux_coupons_code" json:"barbershop_id"`

	Code          string     `gorm:"size:40;uniqueIndex:ux_coupons_code;not null" json:"code"`
	DiscountType  string     `gorm:"size:10;not null" json:"discount_type"`
	DiscountValue float64    `gorm:"type:decimal(10,2)" json:"discount_value"`
	MinPurchase   float64    `gorm:"type:decimal(10,2);default:0" json:"min_purchase"`
	MaxUses       int        `gorm:"default:0" json:"max_uses"`
	UsedCount     int        `gorm:"default:0" json:"used_count"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Active        bool       `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Sale struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	BarbershopID  uint  `gorm:"index" json:"barbershop_id"`
	ClientID      *uint `gorm:"index" json:"client_id"`
	BarberID      *uint `gorm:"index" json:"barber_id"`
	AppointmentID *uint `json:"appointment_id"`
	CouponID      *uint `json:"coupon_id"`

	Subtotal         float64 `gorm:"type:decimal(10,2)" json:"subtotal"`
	Discount         float64 `gorm:"type:decimal(10,2)" json:"discount"`
	LoyaltyDiscount  float64 `gorm:"type:decimal(10,2)" json:"loyalty_discount"`
	Total            float64 `gorm:"type:decimal(10,2)" json:"total"`
	PaymentMethod    string  `gorm:"size:20" json:"payment_method"`
	CommissionAmount float64 `gorm:"type:decimal(10,2)" json:"commission_amount"`
	PointsEarned     int     `json:"points_earned"`
	PointsRedeemed   int     `json:"points_redeemed"`

	Items []SaleItem `json:"items"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	SaleItemService = "service"
	SaleItemProduct = "product"
)

type SaleItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SaleID    uint   `gorm:"index" json:"sale_id"`
	Kind      string `gorm:"size:10;not null" json:"kind"`
	RefID     uint   `json:"ref_id"`
	Name      string `gorm:"size:100" json:"name"`
	Quantity  int    `json:"quantity"`

	UnitPrice float64 `gorm:"type:decimal(10,2)" json:"unit_price"`
	Total     float64 `gorm:"type:decimal(10,2)" json:"total"`
}

type LoyaltyTransaction struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	BarbershopID uint  `gorm:"index" json:"barbershop_id"`
	ClientID     uint  `gorm:"index" json:"client_id"`
	SaleID       *uint `json:"sale_id"`

	Points int    `json:"points"`
	Type   string `gorm:"size:10" json:"type"`
	Note   string `gorm:"size:255" json:"note"`

	CreatedAt time.Time `json:"created_at"`
}
