package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
)

type SubscriptionHandler struct {
	repo     subscription.Repository
	checkout *subscription.StartCheckout
	payments *subscription.HandlePayment
}

func NewSubscriptionHandler(
	repo subscription.Repository,
	checkout *subscription.StartCheckout,
	payments *subscription.HandlePayment,
) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo, checkout: checkout, payments: payments}
}

type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required,oneof=basic pro"`
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.repo.GetSubscription(c.Request.Context(), tenantID(c))
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"status":       subscription.Effective(sub, time.Now()),
		"plans":        subscription.PlanPrices,
	})
}

func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.checkout.Execute(c.Request.Context(), tenantID(c), actorID(c), req.Plan)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"checkout_url": sub.CheckoutURL,
	})
}

type mercadoPagoNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook accepts both notification styles: the id in
// ?data.id= / ?id= or in the JSON body. Anything that is not a payment
// is acknowledged and ignored.
func (h *SubscriptionHandler) MercadoPagoWebhook(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	kind := c.Query("type")
	if kind == "" {
		kind = c.Query("topic")
	}
	paymentID := c.Query("data.id")
	if paymentID == "" {
		paymentID = c.Query("id")
	}

	if paymentID == "" {
		var body mercadoPagoNotification
		if err := c.ShouldBindJSON(&body); err == nil {
			paymentID = body.Data.ID
			if kind == "" {
				kind = body.Type
			}
		}
	}

	if paymentID == "" || (kind != "" && kind != "payment") {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	sub, err := h.payments.Execute(c.Request.Context(), paymentID)
	if err != nil {
		if httperr.IsBusiness(err, "subscription_not_found") {
			logger.Warn().Str("payment_id", paymentID).Msg("payment without subscription")
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": sub.Status})
}
