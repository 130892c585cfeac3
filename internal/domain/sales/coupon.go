package sales

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// NormalizeCode makes coupon lookups case insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCoupon checks c against a cart total and returns the discount it grants.
func ValidateCoupon(c *models.Coupon, cartTotal float64, now time.Time) (float64, error) {
	if c == nil || !c.Active || !KnownDiscount(c.DiscountType) {
		return 0, httperr.ErrBusinessMsg("coupon_invalid", "Cupom inválido")
	}

	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return 0, httperr.ErrBusinessMsg("coupon_expired", "Cupom expirado")
	}

	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return 0, httperr.ErrBusinessMsg("coupon_exhausted", "Cupom esgotado")
	}

	if cartTotal < c.MinPurchase {
		return 0, httperr.ErrBusinessMsg(
			"coupon_min_purchase",
			fmt.Sprintf("Valor mínimo: R$ %.2f", c.MinPurchase),
		)
	}

	return Discount(c.DiscountType, c.DiscountValue, cartTotal), nil
}

func KnownDiscount(kind string) bool {
	return kind == DiscountPercent || kind == DiscountFixed
}

// Discount never exceeds the cart. An unknown kind grants nothing.
func Discount(kind string, value, cartTotal float64) float64 {
	var d float64
	switch kind {
	case DiscountPercent:
		d = RoundCents(cartTotal * value / 100)
	case DiscountFixed:
		d = math.Min(value, cartTotal)
	default:
		return 0
	}

	if d < 0 {
		return 0
	}
	if d > cartTotal {
		return cartTotal
	}
	return d
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
