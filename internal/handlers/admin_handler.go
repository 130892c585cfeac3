package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/reminders"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
)

// AdminHandler is the platform console, reachable by super_admin only.
type AdminHandler struct {
	db        *gorm.DB
	audit     *audit.Dispatcher
	reminders *reminders.SendReminders
}

func NewAdminHandler(db *gorm.DB, audit *audit.Dispatcher, reminders *reminders.SendReminders) *AdminHandler {
	return &AdminHandler{db: db, audit: audit, reminders: reminders}
}

type tenantView struct {
	models.Barbershop
	Subscription       *models.PlatformSubscription `json:"subscription"`
	SubscriptionStatus string                       `json:"subscription_status"`
}

// ListTenants accepts ?query= (name or slug) and ?active=.
func (h *AdminHandler) ListTenants(c *gin.Context) {
	page := httpresp.PageFromQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Barbershop{})
	if s := c.Query("query"); s != "" {
		like := "%" + s + "%"
		q = q.Where("name ILIKE ? OR slug ILIKE ?", like, like)
	}
	switch c.Query("active") {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var shops []models.Barbershop
	if err := q.Order("id ASC").Limit(page.Limit).Offset(page.Offset()).Find(&shops).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	ids := make([]uint, 0, len(shops))
	for _, s := range shops {
		ids = append(ids, s.ID)
	}

	var subs []models.PlatformSubscription
	if len(ids) > 0 {
		if err := h.db.WithContext(c.Request.Context()).
			Where("barbershop_id IN ?", ids).
			Find(&subs).Error; err != nil {
			httperr.Render(c, err)
			return
		}
	}
	byShop := make(map[uint]*models.PlatformSubscription, len(subs))
	for i := range subs {
		byShop[subs[i].BarbershopID] = &subs[i]
	}

	now := time.Now()
	views := make([]tenantView, 0, len(shops))
	for _, s := range shops {
		sub := byShop[s.ID]
		views = append(views, tenantView{
			Barbershop:         s,
			Subscription:       sub,
			SubscriptionStatus: subscription.Effective(sub, now),
		})
	}

	httpresp.Paged(c, views, page, total)
}

type SetTenantActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *AdminHandler) SetTenantActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req SetTenantActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, id)
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(shop).
		Update("active", *req.Active).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		UserID:       actorID(c),
		Action:       "barbershop_active_changed",
		Entity:       "barbershop",
		EntityID:     &shop.ID,
		Metadata:     map[string]any{"active": *req.Active},
	})

	c.JSON(http.StatusOK, shop)
}

// RunReminders triggers the reminder job now, outside the cron schedule.
func (h *AdminHandler) RunReminders(c *gin.Context) {
	report, err := h.reminders.Execute(c.Request.Context())
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
