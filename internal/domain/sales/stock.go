package sales

import "github.com/BruksfildServices01/barber-saas/internal/httperr"

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

// ApplyStockMovement returns the stock level after the movement. Outgoing
// movements floor at zero instead of failing, so a sale is never blocked by
// stale stock counts.
func ApplyStockMovement(current int, kind string, qty int) (int, error) {
	switch kind {
	case MovementIn:
		if qty <= 0 {
			return current, httperr.ErrBusiness("invalid_quantity")
		}
		return current + qty, nil

	case MovementOut:
		if qty <= 0 {
			return current, httperr.ErrBusiness("invalid_quantity")
		}
		return max(0, current-qty), nil

	case MovementAdjustment:
		if qty < 0 {
			return current, httperr.ErrBusiness("invalid_quantity")
		}
		return qty, nil
	}

	return current, httperr.ErrBusiness("invalid_movement_type")
}

// LowStock reports whether a product should be flagged for restock.
func LowStock(stock, minStock int) bool {
	return minStock > 0 && stock <= minStock
}
