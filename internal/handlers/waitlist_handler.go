package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

type WaitlistHandler struct {
	db     *gorm.DB
	audit  *audit.Dispatcher
	events realtime.Publisher
}

func NewWaitlistHandler(db *gorm.DB, audit *audit.Dispatcher, events realtime.Publisher) *WaitlistHandler {
	return &WaitlistHandler{db: db, audit: audit, events: events}
}

type WaitlistRequest struct {
	ClientName    string `json:"client_name" binding:"required"`
	ClientPhone   string `json:"client_phone" binding:"required,phone"`
	ServiceID     *uint  `json:"service_id"`
	BarberID      *uint  `json:"barber_id"`
	PreferredDate string `json:"preferred_date" binding:"required"`
	Notes         string `json:"notes" binding:"max=255"`
}

type WaitlistStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=waiting notified booked cancelled"`
}

// createWaitlistEntry is shared by the staff and the public endpoints.
func createWaitlistEntry(
	ctx context.Context,
	db *gorm.DB,
	events realtime.Publisher,
	shop *models.Barbershop,
	req WaitlistRequest,
) (*models.WaitlistEntry, error) {

	day, err := parseDateInShop(shop, req.PreferredDate)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data inválida")
	}
	if req.PreferredDate < todayInShop(shop) {
		return nil, httperr.ErrBusinessMsg("past_time", "Data já passou")
	}

	if req.ServiceID != nil {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Service{}).
			Where("id = ? AND barbershop_id = ? AND active = ?", *req.ServiceID, shop.ID, true).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, httperr.ErrBusinessMsg("service_not_found", "Serviço não encontrado")
		}
	}

	if req.BarberID != nil {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND barbershop_id = ?", *req.BarberID, shop.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, httperr.ErrBusinessMsg("barber_not_found", "Profissional não encontrado")
		}
	}

	entry := models.WaitlistEntry{
		BarbershopID:  shop.ID,
		ServiceID:     req.ServiceID,
		BarberID:      req.BarberID,
		ClientName:    strings.TrimSpace(req.ClientName),
		ClientPhone:   validators.NormalizePhone(req.ClientPhone),
		PreferredDate: day,
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.WaitlistWaiting,
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}

	realtime.Emit(ctx, events, realtime.EventInsert, realtime.TableWaitlist, shop.ID, entry.ID)
	return &entry, nil
}

// List accepts ?date= and ?status= (default waiting).
func (h *WaitlistHandler) List(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", shop.ID)

	if status := c.DefaultQuery("status", models.WaitlistWaiting); status != "all" {
		q = q.Where("status = ?", status)
	}
	if s := c.Query("date"); s != "" {
		day, err := parseDateInShop(shop, s)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		q = q.Where("preferred_date = ?", day)
	}

	var entries []models.WaitlistEntry
	if err := q.Order("preferred_date ASC, created_at ASC").Find(&entries).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *WaitlistHandler) Create(c *gin.Context) {
	var req WaitlistRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	entry, err := createWaitlistEntry(c.Request.Context(), h.db, h.events, shop, req)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "waitlist_created", "waitlist", entry.ID, nil)
	c.JSON(http.StatusCreated, entry)
}

func (h *WaitlistHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req WaitlistStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	shopID := tenantID(c)
	res := h.db.WithContext(c.Request.Context()).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND barbershop_id = ?", id, shopID).
		Update("status", req.Status)
	if res.Error != nil {
		httperr.Render(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "waitlist_entry_not_found", "Registro da lista de espera não encontrado.")
		return
	}

	writeAudit(h.audit, c, "waitlist_status_changed", "waitlist", id, map[string]any{"status": req.Status})
	realtime.Emit(c.Request.Context(), h.events, realtime.EventUpdate, realtime.TableWaitlist, shopID, id)
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
