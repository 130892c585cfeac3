package campaign

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/campaign"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/notify"
)

type Repository interface {
	GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error)
	GetCampaign(ctx context.Context, barbershopID, campaignID uint) (*models.Campaign, error)
	// ClaimCampaign moves a draft to sending. False means another run owns it.
	ClaimCampaign(ctx context.Context, barbershopID, campaignID uint) (bool, error)
	// ReleaseCampaign moves a sending campaign back to draft.
	ReleaseCampaign(ctx context.Context, barbershopID, campaignID uint) error
	ListClients(ctx context.Context, barbershopID uint) ([]models.Client, error)
	LastVisits(ctx context.Context, barbershopID uint) (map[uint]time.Time, error)
	CreateDelivery(ctx context.Context, d *models.CampaignDelivery) error
	FinishCampaign(ctx context.Context, c *models.Campaign) error
}

type SendCampaign struct {
	repo     Repository
	email    notify.EmailSender
	whatsapp notify.WhatsAppSender
	audit    *audit.Dispatcher
	now      func() time.Time
}

func NewSendCampaign(
	repo Repository,
	email notify.EmailSender,
	whatsapp notify.WhatsAppSender,
	audit *audit.Dispatcher,
) *SendCampaign {
	return &SendCampaign{
		repo:     repo,
		email:    email,
		whatsapp: whatsapp,
		audit:    audit,
		now:      time.Now,
	}
}

// Execute sends a draft campaign to its audience. Every targeted client gets
// a delivery row; a failed or skipped one never stops the run.
func (uc *SendCampaign) Execute(
	ctx context.Context,
	barbershopID uint,
	actorID *uint,
	campaignID uint,
) (*models.Campaign, error) {

	// the run outlives the request once deliveries start going out
	ctx = context.WithoutCancel(ctx)
	logger := zerolog.Ctx(ctx)

	shop, err := uc.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	c, err := uc.repo.GetCampaign(ctx, barbershopID, campaignID)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("campaign_not_found", "Campanha não encontrada")
	}
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if c.Channel == domain.ChannelEmail && uc.email == nil ||
		c.Channel == domain.ChannelWhatsApp && uc.whatsapp == nil {
		return nil, httperr.ErrBusinessMsg("channel_unavailable", "Canal não configurado")
	}
	if c.Status != domain.StatusDraft {
		return nil, httperr.ErrBusinessMsg("campaign_already_sent", "Campanha já enviada")
	}

	// audience is resolved before the claim so a read failure leaves a draft
	clients, err := uc.repo.ListClients(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	visits, err := uc.repo.LastVisits(ctx, barbershopID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	audience := domain.SelectAudience(clients, visits, c.Segment, c.InactiveDays, now)

	claimed, err := uc.repo.ClaimCampaign(ctx, barbershopID, campaignID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, httperr.ErrBusinessMsg("campaign_already_sent", "Campanha já enviada")
	}

	c.SentCount, c.FailedCount = 0, 0
	for _, client := range audience {
		d := uc.deliver(ctx, shop, c, client)
		if err := uc.repo.CreateDelivery(ctx, d); err != nil {
			logger.Error().Err(err).Uint("client_id", client.ID).Msg("campaign: delivery log failed")
		}

		switch d.Status {
		case domain.DeliverySent:
			c.SentCount++
		case domain.DeliveryFailed:
			c.FailedCount++
		}
		metrics.NotificationsSent.WithLabelValues(c.Channel, d.Status).Inc()
	}

	c.Status = domain.StatusSent
	c.SentAt = &now
	if err := uc.repo.FinishCampaign(ctx, c); err != nil {
		if len(audience) == 0 {
			uc.release(ctx, c)
		}
		return nil, err
	}

	logger.Info().
		Uint("campaign_id", c.ID).
		Int("audience", len(audience)).
		Int("sent", c.SentCount).
		Int("failed", c.FailedCount).
		Msg("campaign sent")

	uc.audit.Dispatch(audit.Event{
		BarbershopID: barbershopID,
		UserID:       actorID,
		Action:       "campaign_sent",
		Entity:       "campaign",
		EntityID:     &c.ID,
		Metadata:     map[string]any{"sent": c.SentCount, "failed": c.FailedCount},
	})

	return c, nil
}

// release hands a claimed campaign back as a draft so the owner can retry.
func (uc *SendCampaign) release(ctx context.Context, c *models.Campaign) {
	if err := uc.repo.ReleaseCampaign(ctx, c.BarbershopID, c.ID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("campaign_id", c.ID).Msg("campaign: release failed")
	}
	c.Status = domain.StatusDraft
	c.SentAt = nil
}

func (uc *SendCampaign) deliver(
	ctx context.Context,
	shop *models.Barbershop,
	c *models.Campaign,
	client models.Client,
) *models.CampaignDelivery {

	d := &models.CampaignDelivery{
		BarbershopID: shop.ID,
		CampaignID:   c.ID,
		ClientID:     client.ID,
		Channel:      c.Channel,
	}
	body := domain.Personalize(c.Template, client, shop.Name)

	var err error
	switch c.Channel {
	case domain.ChannelEmail:
		d.Recipient = strings.TrimSpace(client.Email)
		if d.Recipient == "" {
			d.Status = domain.DeliverySkipped
			d.Error = "cliente sem e-mail"
			return d
		}
		subject := c.Subject
		if subject == "" {
			subject = shop.Name
		}
		err = uc.email.Send(ctx, notify.EmailMessage{
			To:      d.Recipient,
			ToName:  client.Name,
			Subject: domain.Personalize(subject, client, shop.Name),
			Body:    body,
		})

	case domain.ChannelWhatsApp:
		d.Recipient = strings.TrimSpace(client.Phone)
		if d.Recipient == "" {
			d.Status = domain.DeliverySkipped
			d.Error = "cliente sem telefone"
			return d
		}
		err = uc.whatsapp.SendWhatsApp(ctx, d.Recipient, body)
	}

	if err != nil {
		d.Status = domain.DeliveryFailed
		d.Error = err.Error()
		return d
	}
	d.Status = domain.DeliverySent
	return d
}
