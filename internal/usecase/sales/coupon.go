package sales

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
)

type CouponCheck struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// ValidateCoupon previews a coupon against a cart without consuming it.
type ValidateCoupon struct {
	repo domain.Repository
	now  func() time.Time
}

func NewValidateCoupon(repo domain.Repository) *ValidateCoupon {
	return &ValidateCoupon{repo: repo, now: time.Now}
}

func (uc *ValidateCoupon) Execute(ctx context.Context, barbershopID uint, code string, cartTotal float64) (*CouponCheck, error) {
	if domain.NormalizeCode(code) == "" {
		return nil, httperr.ErrBusinessMsg("coupon_invalid", "Cupom inválido")
	}

	c, err := uc.repo.FindCoupon(ctx, barbershopID, code)
	if err != nil {
		return nil, err
	}

	discount, err := domain.ValidateCoupon(c, cartTotal, uc.now())
	if err != nil {
		return nil, err
	}

	return &CouponCheck{
		Code:     c.Code,
		Discount: discount,
		Total:    domain.RoundCents(cartTotal - discount),
	}, nil
}
