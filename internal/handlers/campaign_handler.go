package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/campaign"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	ucCampaign "github.com/BruksfildServices01/barber-saas/internal/usecase/campaign"
)

type CampaignHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	send  *ucCampaign.SendCampaign
}

func NewCampaignHandler(db *gorm.DB, audit *audit.Dispatcher, send *ucCampaign.SendCampaign) *CampaignHandler {
	return &CampaignHandler{db: db, audit: audit, send: send}
}

type CampaignRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Channel      string `json:"channel" binding:"required,oneof=email whatsapp"`
	Segment      string `json:"segment" binding:"required"`
	InactiveDays int    `json:"inactive_days" binding:"min=0"`
	Subject      string `json:"subject" binding:"max=150"`
	Template     string `json:"template" binding:"required"`
}

func (r CampaignRequest) apply(c *models.Campaign) {
	c.Name = strings.TrimSpace(r.Name)
	c.Channel = r.Channel
	c.Segment = r.Segment
	c.InactiveDays = r.InactiveDays
	c.Subject = strings.TrimSpace(r.Subject)
	c.Template = r.Template

	if c.Segment == domain.SegmentInactive && c.InactiveDays == 0 {
		c.InactiveDays = domain.DefaultInactiveDays
	}
}

func (h *CampaignHandler) find(c *gin.Context) (*models.Campaign, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var campaign models.Campaign
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&campaign).Error; err != nil {
		notFoundOr(c, err, "campaign_not_found", "Campanha não encontrada.")
		return nil, false
	}
	return &campaign, true
}

func (h *CampaignHandler) List(c *gin.Context) {
	var campaigns []models.Campaign
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", tenantID(c)).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.List(c, campaigns)
}

func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) Create(c *gin.Context) {
	var req CampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	campaign := models.Campaign{
		BarbershopID: tenantID(c),
		Status:       domain.StatusDraft,
	}
	req.apply(&campaign)

	if err := domain.Validate(&campaign); err != nil {
		httperr.Render(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&campaign).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "campaign_created", "campaign", campaign.ID, map[string]any{
		"channel": campaign.Channel,
		"segment": campaign.Segment,
	})
	c.JSON(http.StatusCreated, campaign)
}

// Update only touches drafts.
func (h *CampaignHandler) Update(c *gin.Context) {
	campaign, ok := h.find(c)
	if !ok {
		return
	}
	if campaign.Status != domain.StatusDraft {
		httperr.Conflict(c, "campaign_already_sent", "Campanha já enviada.")
		return
	}

	var req CampaignRequest
	if !bindJSON(c, &req) {
		return
	}
	req.apply(campaign)

	if err := domain.Validate(campaign); err != nil {
		httperr.Render(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(campaign).
		Updates(map[string]any{
			"name":          campaign.Name,
			"channel":       campaign.Channel,
			"segment":       campaign.Segment,
			"inactive_days": campaign.InactiveDays,
			"subject":       campaign.Subject,
			"template":      campaign.Template,
		}).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "campaign_updated", "campaign", campaign.ID, nil)
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) Delete(c *gin.Context) {
	campaign, ok := h.find(c)
	if !ok {
		return
	}
	if campaign.Status != domain.StatusDraft {
		httperr.Conflict(c, "campaign_already_sent", "Campanha já enviada.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(campaign).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "campaign_deleted", "campaign", campaign.ID, nil)
	c.Status(http.StatusNoContent)
}

func (h *CampaignHandler) Send(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.send.Execute(c.Request.Context(), tenantID(c), actorID(c), id)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// Deliveries lists the per client log of a campaign. Accepts ?status=.
func (h *CampaignHandler) Deliveries(c *gin.Context) {
	campaign, ok := h.find(c)
	if !ok {
		return
	}
	page := httpresp.PageFromQuery(c, 50, 500)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.CampaignDelivery{}).
		Where("barbershop_id = ? AND campaign_id = ?", campaign.BarbershopID, campaign.ID)
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var deliveries []models.CampaignDelivery
	if err := q.Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&deliveries).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.Paged(c, deliveries, page, total)
}
