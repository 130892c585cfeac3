package payment

import (
	"context"
	"fmt"
	"strconv"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
)

// MercadoPago creates checkout preferences and reads payments.
type MercadoPago struct {
	preferences     preference.Client
	payments        payment.Client
	notificationURL string
	backURL         string
}

type MercadoPagoConfig struct {
	AccessToken     string
	NotificationURL string
	BackURL         string
}

// NewMercadoPago returns nil, nil when no access token is configured.
func NewMercadoPago(cfg MercadoPagoConfig) (*MercadoPago, error) {
	if cfg.AccessToken == "" {
		return nil, nil
	}

	mp, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("payment: mercadopago config: %w", err)
	}

	return &MercadoPago{
		preferences:     preference.NewClient(mp),
		payments:        payment.NewClient(mp),
		notificationURL: cfg.NotificationURL,
		backURL:         cfg.BackURL,
	}, nil
}

func (m *MercadoPago) CreateCheckout(ctx context.Context, req subscription.CheckoutRequest) (string, error) {
	request := preference.Request{
		ExternalReference: req.Reference,
		NotificationURL:   m.notificationURL,
		Items: []preference.ItemRequest{
			{
				ID:         req.Reference,
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  req.Amount,
				CurrencyID: "BRL",
			},
		},
	}
	if req.PayerEmail != "" {
		request.Payer = &preference.PayerRequest{Email: req.PayerEmail}
	}
	if m.backURL != "" {
		request.BackURLs = &preference.BackURLsRequest{
			Success: m.backURL,
			Pending: m.backURL,
			Failure: m.backURL,
		}
		request.AutoReturn = "approved"
	}

	res, err := m.preferences.Create(ctx, request)
	if err != nil {
		return "", fmt.Errorf("payment: create preference: %w", err)
	}
	return res.InitPoint, nil
}

func (m *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*subscription.Payment, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment: invalid payment id %q", paymentID)
	}

	res, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payment: get payment: %w", err)
	}

	return &subscription.Payment{
		ID:                strconv.Itoa(res.ID),
		Status:            res.Status,
		ExternalReference: res.ExternalReference,
		Amount:            res.TransactionAmount,
	}, nil
}

var _ subscription.Gateway = (*MercadoPago)(nil)
