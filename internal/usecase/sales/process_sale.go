package sales

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// Formas de pagamento aceitas no caixa
const (
	PaymentCash   = "cash"
	PaymentPix    = "pix"
	PaymentCredit = "credit"
	PaymentDebit  = "debit"
)

func validPayment(m string) bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentCredit, PaymentDebit:
		return true
	}
	return false
}

type SaleItemInput struct {
	Kind     string `json:"kind" binding:"required,oneof=service product"`
	RefID    uint   `json:"ref_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type ProcessSaleInput struct {
	BarbershopID  uint
	ActorID       *uint
	ClientID      *uint
	BarberID      *uint
	AppointmentID *uint

	Items         []SaleItemInput
	CouponCode    string
	RedeemPoints  int
	PaymentMethod string
}

type ProcessSale struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
	now    func() time.Time
}

func NewProcessSale(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *ProcessSale {
	return &ProcessSale{repo: repo, audit: audit, events: events, now: time.Now}
}

// Execute runs the whole sale in one transaction: pricing, coupon, loyalty,
// stock and commission. Any error leaves nothing behind.
func (uc *ProcessSale) Execute(
	ctx context.Context,
	in ProcessSaleInput,
) (*models.Sale, error) {

	if len(in.Items) == 0 {
		return nil, httperr.ErrBusinessMsg("items_required", "Adicione ao menos um item")
	}
	if !validPayment(in.PaymentMethod) {
		return nil, httperr.ErrBusinessMsg("invalid_payment_method", "Forma de pagamento inválida")
	}
	if in.RedeemPoints < 0 {
		return nil, httperr.ErrBusiness("invalid_points")
	}

	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	now := uc.now()
	var sale *models.Sale

	err = uc.repo.WithTx(ctx, shop.ID, func(tx domain.Tx) error {
		s, products, err := priceItems(tx, in.Items)
		if err != nil {
			return err
		}
		s.ClientID = in.ClientID
		s.BarberID = in.BarberID
		s.AppointmentID = in.AppointmentID
		s.PaymentMethod = in.PaymentMethod

		// ---------------- coupon ----------------
		var coupon *models.Coupon
		if in.CouponCode != "" {
			coupon, err = tx.GetCouponForUpdate(in.CouponCode)
			if err != nil {
				return err
			}
			if s.Discount, err = domain.ValidateCoupon(coupon, s.Subtotal, now); err != nil {
				return err
			}
			s.CouponID = &coupon.ID
		}

		// ---------------- loyalty ----------------
		var client *models.Client
		if in.ClientID != nil {
			if client, err = tx.GetClientForUpdate(*in.ClientID); err != nil {
				return httperr.ErrBusinessMsg("client_not_found", "Cliente não encontrado")
			}
		}
		if in.RedeemPoints > 0 {
			if client == nil {
				return httperr.ErrBusinessMsg("client_required", "Informe o cliente para usar pontos")
			}
			value, err := domain.RedeemPoints(client.LoyaltyPoints, in.RedeemPoints)
			if err != nil {
				return err
			}
			s.LoyaltyDiscount = min(value, s.Subtotal-s.Discount)
			s.PointsRedeemed = in.RedeemPoints
		}

		s.Total = max(0, domain.RoundCents(s.Subtotal-s.Discount-s.LoyaltyDiscount))

		// ---------------- commission ----------------
		if in.BarberID != nil {
			barber, err := tx.GetBarber(*in.BarberID)
			if err != nil {
				return httperr.ErrBusinessMsg("barber_not_found", "Profissional não encontrado")
			}
			s.CommissionAmount = domain.Commission(s.Total, barber.CommissionPercent)
		}

		if client != nil {
			s.PointsEarned = domain.PointsEarned(s.Total, shop.LoyaltyPointsPerBRL)
		}

		if err := tx.CreateSale(s); err != nil {
			return err
		}

		// ---------------- stock ----------------
		for _, item := range s.Items {
			if item.Kind != models.SaleItemProduct {
				continue
			}
			p := products[item.RefID]
			next, err := domain.ApplyStockMovement(p.Stock, domain.MovementOut, item.Quantity)
			if err != nil {
				return err
			}
			if err := tx.SetProductStock(p.ID, next); err != nil {
				return err
			}
			if err := tx.CreateStockMovement(&models.StockMovement{
				ProductID:     p.ID,
				SaleID:        &s.ID,
				UserID:        in.ActorID,
				Type:          domain.MovementOut,
				Quantity:      item.Quantity,
				PreviousStock: p.Stock,
				NewStock:      next,
				Reason:        "Venda",
			}); err != nil {
				return err
			}
			p.Stock = next
		}

		if coupon != nil {
			if err := tx.IncrementCouponUsage(coupon.ID); err != nil {
				return err
			}
		}

		if client != nil {
			if err := applyLoyalty(tx, client.ID, s); err != nil {
				return err
			}
		}

		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SalesProcessed.Inc()

	zerolog.Ctx(ctx).Info().
		Uint("barbershop_id", shop.ID).
		Uint("sale_id", sale.ID).
		Float64("total", sale.Total).
		Msg("sale processed")

	uc.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		UserID:       in.ActorID,
		Action:       "sale_created",
		Entity:       "sale",
		EntityID:     &sale.ID,
		Metadata:     map[string]any{"total": sale.Total, "payment_method": sale.PaymentMethod},
	})
	realtime.Emit(ctx, uc.events, realtime.EventInsert, realtime.TableSales, shop.ID, sale.ID)
	if sale.ClientID != nil {
		realtime.Emit(ctx, uc.events, realtime.EventUpdate, realtime.TableClients, shop.ID, *sale.ClientID)
	}

	return sale, nil
}

// priceItems builds the sale lines from current catalogue prices. Products
// are returned locked, keyed by id.
func priceItems(tx domain.Tx, items []SaleItemInput) (*models.Sale, map[uint]*models.Product, error) {
	var serviceIDs, productIDs []uint
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, httperr.ErrBusiness("invalid_quantity")
		}
		switch it.Kind {
		case models.SaleItemService:
			serviceIDs = append(serviceIDs, it.RefID)
		case models.SaleItemProduct:
			productIDs = append(productIDs, it.RefID)
		default:
			return nil, nil, httperr.ErrBusinessMsg("invalid_item", "Item inválido")
		}
	}

	services, err := tx.ListServices(serviceIDs)
	if err != nil {
		return nil, nil, err
	}
	byService := make(map[uint]models.Service, len(services))
	for _, s := range services {
		byService[s.ID] = s
	}

	products, err := tx.ListProductsForUpdate(productIDs)
	if err != nil {
		return nil, nil, err
	}
	byProduct := make(map[uint]*models.Product, len(products))
	for i := range products {
		byProduct[products[i].ID] = &products[i]
	}

	sale := &models.Sale{}
	for _, it := range items {
		line := models.SaleItem{Kind: it.Kind, RefID: it.RefID, Quantity: it.Quantity}

		switch it.Kind {
		case models.SaleItemService:
			s, ok := byService[it.RefID]
			if !ok {
				return nil, nil, httperr.ErrBusinessMsg("item_not_found", "Serviço não encontrado")
			}
			line.Name, line.UnitPrice = s.Name, s.Price
		case models.SaleItemProduct:
			p, ok := byProduct[it.RefID]
			if !ok || !p.Active {
				return nil, nil, httperr.ErrBusinessMsg("item_not_found", "Produto não encontrado")
			}
			line.Name, line.UnitPrice = p.Name, p.Price
		}

		line.Total = domain.RoundCents(line.UnitPrice * float64(it.Quantity))
		sale.Subtotal += line.Total
		sale.Items = append(sale.Items, line)
	}
	sale.Subtotal = domain.RoundCents(sale.Subtotal)

	return sale, byProduct, nil
}

func applyLoyalty(tx domain.Tx, clientID uint, s *models.Sale) error {
	if s.PointsRedeemed > 0 {
		if err := tx.AddClientPoints(clientID, -s.PointsRedeemed); err != nil {
			return err
		}
		if err := tx.CreateLoyaltyTransaction(&models.LoyaltyTransaction{
			ClientID: clientID,
			SaleID:   &s.ID,
			Points:   -s.PointsRedeemed,
			Type:     domain.LoyaltyRedeem,
			Note:     "Resgate na venda",
		}); err != nil {
			return err
		}
	}

	if s.PointsEarned > 0 {
		if err := tx.AddClientPoints(clientID, s.PointsEarned); err != nil {
			return err
		}
		if err := tx.CreateLoyaltyTransaction(&models.LoyaltyTransaction{
			ClientID: clientID,
			SaleID:   &s.ID,
			Points:   s.PointsEarned,
			Type:     domain.LoyaltyEarn,
			Note:     "Pontos da venda",
		}); err != nil {
			return err
		}
	}
	return nil
}
