package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

const (
	PlanBasic = "basic"
	PlanPro   = "pro"
)

const (
	StatusTrial     = "trial"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// Mensalidade de cada plano, em reais
var PlanPrices = map[string]float64{
	PlanBasic: 49.90,
	PlanPro:   99.90,
}

const PaymentApproved = "approved"

type CheckoutRequest struct {
	Reference  string
	Title      string
	Amount     float64
	PayerEmail string
}

type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            float64
}

// Gateway is the payment provider.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type Repository interface {
	GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error)
	GetOwnerEmail(ctx context.Context, barbershopID uint) (string, error)
	// GetSubscription returns nil, nil when the tenant has none yet.
	GetSubscription(ctx context.Context, barbershopID uint) (*models.PlatformSubscription, error)
	FindByReference(ctx context.Context, reference string) (*models.PlatformSubscription, error)
	SaveSubscription(ctx context.Context, s *models.PlatformSubscription) error
}

// ======================================================
// Checkout
// ======================================================

type StartCheckout struct {
	repo    Repository
	gateway Gateway
	audit   *audit.Dispatcher
}

func NewStartCheckout(repo Repository, gateway Gateway, audit *audit.Dispatcher) *StartCheckout {
	return &StartCheckout{repo: repo, gateway: gateway, audit: audit}
}

func (uc *StartCheckout) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	plan string,
) (*models.PlatformSubscription, error) {

	price, ok := PlanPrices[plan]
	if !ok {
		return nil, httperr.ErrBusinessMsg("invalid_plan", "Plano inválido")
	}
	if uc.gateway == nil {
		return nil, httperr.ErrBusinessMsg("payments_unavailable", "Pagamentos indisponíveis")
	}

	shop, err := uc.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	sub, err := uc.repo.GetSubscription(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub = &models.PlatformSubscription{BarbershopID: barbershopID}
	}

	email, err := uc.repo.GetOwnerEmail(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	ref := fmt.Sprintf("sub-%d-%s", barbershopID, uuid.NewString())
	url, err := uc.gateway.CreateCheckout(ctx, CheckoutRequest{
		Reference:  ref,
		Title:      fmt.Sprintf("Assinatura %s - %s", plan, shop.Name),
		Amount:     price,
		PayerEmail: email,
	})
	if err != nil {
		return nil, fmt.Errorf("subscription: create checkout: %w", err)
	}

	sub.Plan = plan
	sub.Amount = price
	sub.ExternalReference = ref
	sub.CheckoutURL = url
	if sub.Status != StatusActive {
		sub.Status = StatusPending
	}

	if err := uc.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       "subscription_checkout",
		Entity:       "subscription",
		EntityID:     &sub.ID,
		Metadata:     map[string]any{"plan": plan},
	})

	return sub, nil
}

// ======================================================
// Webhook
// ======================================================

type HandlePayment struct {
	repo    Repository
	gateway Gateway
	now     func() time.Time
}

func NewHandlePayment(repo Repository, gateway Gateway) *HandlePayment {
	return &HandlePayment{repo: repo, gateway: gateway, now: time.Now}
}

// Execute fetches the payment from the provider, never trusting the
// notification body, and activates the subscription for one month when
// approved. Replaying the same payment is a no-op.
func (uc *HandlePayment) Execute(ctx context.Context, paymentID string) (*models.PlatformSubscription, error) {
	if uc.gateway == nil {
		return nil, httperr.ErrBusinessMsg("payments_unavailable", "Pagamentos indisponíveis")
	}

	p, err := uc.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("subscription: get payment: %w", err)
	}

	sub, err := uc.repo.FindByReference(ctx, p.ExternalReference)
	if err != nil || sub == nil {
		return nil, httperr.ErrBusinessMsg("subscription_not_found", "Assinatura não encontrada")
	}

	logger := zerolog.Ctx(ctx).With().
		Uint("barbershop_id", sub.BarbershopID).
		Str("payment_id", p.ID).
		Str("payment_status", p.Status).
		Logger()

	if p.Status != PaymentApproved {
		logger.Info().Msg("subscription payment not approved")
		return sub, nil
	}
	if sub.LastPaymentID == p.ID {
		return sub, nil
	}

	now := uc.now()
	start := now
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(now) {
		start = *sub.CurrentPeriodEnd
	}
	end := start.AddDate(0, 1, 0)

	sub.Status = StatusActive
	sub.CurrentPeriodEnd = &end
	sub.LastPaymentID = p.ID

	if err := uc.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	logger.Info().Time("period_end", end).Msg("subscription activated")
	return sub, nil
}

// Effective reports the status as of now: an active subscription whose
// period ended is past due.
func Effective(s *models.PlatformSubscription, now time.Time) string {
	if s == nil {
		return StatusTrial
	}
	if s.Status == StatusActive && s.CurrentPeriodEnd != nil && now.After(*s.CurrentPeriodEnd) {
		return StatusPastDue
	}
	return s.Status
}
