package subscription

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type memRepo struct {
	subs map[uint]*models.PlatformSubscription
}

func (r *memRepo) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	return &models.Barbershop{ID: id, Name: "Barbearia Centro"}, nil
}

func (r *memRepo) GetOwnerEmail(context.Context, uint) (string, error) {
	return "dono@example.com", nil
}

func (r *memRepo) GetSubscription(_ context.Context, id uint) (*models.PlatformSubscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *memRepo) FindByReference(_ context.Context, ref string) (*models.PlatformSubscription, error) {
	for _, s := range r.subs {
		if s.ExternalReference == ref {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SaveSubscription(_ context.Context, s *models.PlatformSubscription) error {
	c := *s
	r.subs[s.BarbershopID] = &c
	return nil
}

type fakeGateway struct {
	last     CheckoutRequest
	payments map[string]*Payment
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (string, error) {
	g.last = req
	return "https://mp.example.com/checkout/" + req.Reference, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*Payment, error) {
	p, ok := g.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

func TestCheckoutThenApprovedPaymentActivates(t *testing.T) {
	repo := &memRepo{subs: map[uint]*models.PlatformSubscription{}}
	gw := &fakeGateway{payments: map[string]*Payment{}}
	ctx := context.Background()

	sub, err := NewStartCheckout(repo, gw, nil).Execute(ctx, 3, nil, PlanPro)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sub.Status)
	assert.Equal(t, 99.90, sub.Amount)
	assert.True(t, strings.HasPrefix(sub.ExternalReference, "sub-3-"))
	assert.Equal(t, "dono@example.com", gw.last.PayerEmail)
	assert.Contains(t, sub.CheckoutURL, sub.ExternalReference)

	gw.payments["p1"] = &Payment{ID: "p1", Status: "pending", ExternalReference: sub.ExternalReference}
	gw.payments["p2"] = &Payment{ID: "p2", Status: PaymentApproved, ExternalReference: sub.ExternalReference}

	now := time.Date(2030, 1, 31, 10, 0, 0, 0, time.UTC)
	hp := NewHandlePayment(repo, gw)
	hp.now = func() time.Time { return now }

	got, err := hp.Execute(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	got, err = hp.Execute(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	require.NotNil(t, got.CurrentPeriodEnd)
	assert.Equal(t, now.AddDate(0, 1, 0), *got.CurrentPeriodEnd)

	// Replayed notification does not extend the period again.
	got, err = hp.Execute(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 1, 0), *got.CurrentPeriodEnd)

	assert.Equal(t, StatusActive, Effective(got, now))
	assert.Equal(t, StatusPastDue, Effective(got, now.AddDate(0, 2, 0)))
	assert.Equal(t, StatusTrial, Effective(nil, now))
}

func TestCheckoutRejections(t *testing.T) {
	repo := &memRepo{subs: map[uint]*models.PlatformSubscription{}}

	_, err := NewStartCheckout(repo, &fakeGateway{}, nil).Execute(context.Background(), 1, nil, "gold")
	assert.True(t, httperr.IsBusiness(err, "invalid_plan"))

	_, err = NewStartCheckout(repo, nil, nil).Execute(context.Background(), 1, nil, PlanBasic)
	assert.True(t, httperr.IsBusiness(err, "payments_unavailable"))

	gw := &fakeGateway{payments: map[string]*Payment{
		"x": {ID: "x", Status: PaymentApproved, ExternalReference: "sub-unknown"},
	}}
	_, err = NewHandlePayment(repo, gw).Execute(context.Background(), "x")
	assert.True(t, httperr.IsBusiness(err, "subscription_not_found"))
}
