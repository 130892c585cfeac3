package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/campaign"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/notify"
)

type memRepo struct {
	campaign   models.Campaign
	clients    []models.Client
	visits     map[uint]time.Time
	deliveries []models.CampaignDelivery
	finished   *models.Campaign

	listErr   error
	finishErr error
}

func (r *memRepo) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	return &models.Barbershop{ID: id, Name: "Barbearia Centro"}, nil
}

func (r *memRepo) GetCampaign(_ context.Context, _ uint, id uint) (*models.Campaign, error) {
	if id != r.campaign.ID {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.campaign
	return &c, nil
}

func (r *memRepo) ClaimCampaign(context.Context, uint, uint) (bool, error) {
	if r.campaign.Status != domain.StatusDraft {
		return false, nil
	}
	r.campaign.Status = domain.StatusSending
	return true, nil
}

func (r *memRepo) ReleaseCampaign(context.Context, uint, uint) error {
	if r.campaign.Status == domain.StatusSending {
		r.campaign.Status = domain.StatusDraft
	}
	return nil
}

func (r *memRepo) ListClients(context.Context, uint) ([]models.Client, error) {
	if r.listErr != nil {
		err := r.listErr
		r.listErr = nil
		return nil, err
	}
	return r.clients, nil
}

func (r *memRepo) LastVisits(context.Context, uint) (map[uint]time.Time, error) {
	return r.visits, nil
}

func (r *memRepo) CreateDelivery(_ context.Context, d *models.CampaignDelivery) error {
	r.deliveries = append(r.deliveries, *d)
	return nil
}

func (r *memRepo) FinishCampaign(_ context.Context, c *models.Campaign) error {
	if r.finishErr != nil {
		err := r.finishErr
		r.finishErr = nil
		return err
	}
	r.campaign = *c
	r.finished = c
	return nil
}

type flakyWhatsApp struct {
	sent []string
}

func (f *flakyWhatsApp) SendWhatsApp(_ context.Context, to, body string) error {
	if to == "000" {
		return errors.New("twilio: invalid number")
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

func fixture(channel string) *memRepo {
	return &memRepo{
		campaign: models.Campaign{
			ID: 7, BarbershopID: 1, Name: "Volta", Channel: channel, Segment: domain.SegmentAll,
			Template: "Oi {primeiro_nome}, saudades na {barbearia}!", Status: domain.StatusDraft,
		},
		clients: []models.Client{
			{ID: 1, Name: "Ana Lima", Phone: "11999990000", Email: "ana@example.com"},
			{ID: 2, Name: "Bia", Phone: "000"},
			{ID: 3, Name: "Caio"},
		},
		visits: map[uint]time.Time{},
	}
}

func TestSendCampaignLogsEveryTargetedClient(t *testing.T) {
	repo := fixture(domain.ChannelWhatsApp)
	wa := &flakyWhatsApp{}
	uc := NewSendCampaign(repo, nil, wa, nil)

	c, err := uc.Execute(context.Background(), 1, nil, 7)
	require.NoError(t, err)

	require.Len(t, repo.deliveries, 3)
	statuses := map[uint]string{}
	for _, d := range repo.deliveries {
		statuses[d.ClientID] = d.Status
	}
	assert.Equal(t, map[uint]string{
		1: domain.DeliverySent,
		2: domain.DeliveryFailed,
		3: domain.DeliverySkipped,
	}, statuses)
	assert.Contains(t, repo.deliveries[1].Error, "invalid number")

	assert.Equal(t, []string{"11999990000|Oi Ana, saudades na Barbearia Centro!"}, wa.sent)
	assert.Equal(t, domain.StatusSent, c.Status)
	assert.Equal(t, 1, c.SentCount)
	assert.Equal(t, 1, c.FailedCount)
	assert.NotNil(t, c.SentAt)

	_, err = uc.Execute(context.Background(), 1, nil, 7)
	assert.True(t, httperr.IsBusiness(err, "campaign_already_sent"))
	assert.Len(t, repo.deliveries, 3)
}

func TestSendCampaignByEmail(t *testing.T) {
	repo := fixture(domain.ChannelEmail)
	repo.campaign.Subject = "{primeiro_nome}, temos novidades"
	mail := &notify.StubEmailSender{}

	c, err := NewSendCampaign(repo, mail, nil, nil).Execute(context.Background(), 1, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, c.SentCount)

	require.Len(t, mail.Sent, 1)
	assert.Equal(t, "ana@example.com", mail.Sent[0].To)
	assert.Equal(t, "Ana, temos novidades", mail.Sent[0].Subject)

	skipped := 0
	for _, d := range repo.deliveries {
		if d.Status == domain.DeliverySkipped {
			skipped++
		}
	}
	assert.Equal(t, 2, skipped)
}

func TestSendCampaignNeedsConfiguredChannel(t *testing.T) {
	repo := fixture(domain.ChannelWhatsApp)
	_, err := NewSendCampaign(repo, &notify.StubEmailSender{}, nil, nil).Execute(context.Background(), 1, nil, 7)
	assert.True(t, httperr.IsBusiness(err, "channel_unavailable"))
	assert.Equal(t, domain.StatusDraft, repo.campaign.Status)

	_, err = NewSendCampaign(repo, nil, &flakyWhatsApp{}, nil).Execute(context.Background(), 1, nil, 99)
	assert.True(t, httperr.IsBusiness(err, "campaign_not_found"))
}

func TestSendCampaignRetriesAfterAudienceLoadFails(t *testing.T) {
	repo := fixture(domain.ChannelWhatsApp)
	repo.listErr = errors.New("db: connection reset")
	wa := &flakyWhatsApp{}
	uc := NewSendCampaign(repo, nil, wa, nil)

	_, err := uc.Execute(context.Background(), 1, nil, 7)
	require.Error(t, err)
	assert.Equal(t, domain.StatusDraft, repo.campaign.Status)
	assert.Empty(t, repo.deliveries)

	c, err := uc.Execute(context.Background(), 1, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, c.Status)
	assert.Len(t, repo.deliveries, 3)
}

func TestSendCampaignReleasesEmptyRunWhenFinishFails(t *testing.T) {
	repo := fixture(domain.ChannelWhatsApp)
	repo.clients = nil
	repo.finishErr = errors.New("db: deadlock")
	uc := NewSendCampaign(repo, nil, &flakyWhatsApp{}, nil)

	_, err := uc.Execute(context.Background(), 1, nil, 7)
	require.Error(t, err)
	assert.Equal(t, domain.StatusDraft, repo.campaign.Status)

	c, err := uc.Execute(context.Background(), 1, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, c.Status)
}

// ctxEmail fails like a real client would on a cancelled context.
type ctxEmail struct {
	sent int
}

func (e *ctxEmail) Send(ctx context.Context, _ notify.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.sent++
	return nil
}

func TestSendCampaignSurvivesCancelledRequest(t *testing.T) {
	repo := fixture(domain.ChannelEmail)
	mail := &ctxEmail{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := NewSendCampaign(repo, mail, nil, nil).Execute(ctx, 1, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, c.Status)
	assert.Equal(t, 1, c.SentCount)
	assert.Equal(t, 1, mail.sent)
}
