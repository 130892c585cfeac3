package sales

import (
	"math"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
)

// PointValue is the discount, in reais, of one redeemed point.
const PointValue = 0.10

const (
	LoyaltyEarn   = "earn"
	LoyaltyRedeem = "redeem"
)

// PointsEarned rounds down: R$ 49,90 at 1 point per real earns 49.
func PointsEarned(total, pointsPerReal float64) int {
	if total <= 0 || pointsPerReal <= 0 {
		return 0
	}
	return int(math.Floor(total * pointsPerReal))
}

// RedeemPoints validates a redemption and returns the discount it grants.
func RedeemPoints(balance, points int) (float64, error) {
	if points < 0 {
		return 0, httperr.ErrBusiness("invalid_points")
	}
	if points > balance {
		return 0, httperr.ErrBusinessMsg("insufficient_points", "Pontos insuficientes")
	}
	return RoundCents(float64(points) * PointValue), nil
}

// Commission is the barber's share of the amount actually paid.
func Commission(total, percent float64) float64 {
	if percent <= 0 || total <= 0 {
		return 0
	}
	return RoundCents(total * percent / 100)
}
