package sales

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type StockMovementInput struct {
	BarbershopID uint
	ActorID      *uint
	ProductID    uint
	Type         string
	Quantity     int
	Reason       string
}

// MoveStock records a manual entry, exit or count adjustment.
type MoveStock struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewMoveStock(repo domain.Repository, audit *audit.Dispatcher) *MoveStock {
	return &MoveStock{repo: repo, audit: audit}
}

func (uc *MoveStock) Execute(ctx context.Context, in StockMovementInput) (*models.StockMovement, error) {
	var mv *models.StockMovement

	err := uc.repo.WithTx(ctx, in.BarbershopID, func(tx domain.Tx) error {
		products, err := tx.ListProductsForUpdate([]uint{in.ProductID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return httperr.ErrBusinessMsg("product_not_found", "Produto não encontrado")
		}
		p := products[0]

		next, err := domain.ApplyStockMovement(p.Stock, in.Type, in.Quantity)
		if err != nil {
			return err
		}
		if err := tx.SetProductStock(p.ID, next); err != nil {
			return err
		}

		mv = &models.StockMovement{
			ProductID:     p.ID,
			UserID:        in.ActorID,
			Type:          in.Type,
			Quantity:      in.Quantity,
			PreviousStock: p.Stock,
			NewStock:      next,
			Reason:        strings.TrimSpace(in.Reason),
		}
		return tx.CreateStockMovement(mv)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: in.BarbershopID,
		UserID:       in.ActorID,
		Action:       "stock_moved",
		Entity:       "product",
		EntityID:     &mv.ProductID,
		Metadata:     map[string]any{"type": mv.Type, "from": mv.PreviousStock, "to": mv.NewStock},
	})

	return mv, nil
}
