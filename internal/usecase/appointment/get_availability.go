package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

type AvailabilityInput struct {
	BarbershopID uint
	BarberID     *uint
	Date         string
}

type GetAvailability struct {
	repo domain.Repository
	now  func() time.Time
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo, now: time.Now}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) ([]domain.Slot, error) {

	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	loc := timezone.Location(shop.Timezone)
	day, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data inválida")
	}

	slotIn, err := loadDay(ctx, uc.repo, shop, day)
	if err != nil {
		return nil, err
	}
	slotIn.Now = uc.now()

	if in.BarberID != nil {
		roster, ok := onlyBarber(slotIn.Roster, *in.BarberID)
		if !ok {
			return nil, httperr.ErrBusinessMsg("barber_not_found", "Profissional não encontrado")
		}
		slotIn.Roster = roster
	}

	slots, err := domain.GenerateSlots(slotIn)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data inválida")
	}
	return slots, nil
}
