package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// ScheduleHandler manages the exceptions to the weekly shifts: absences
// (whole days) and blocked ranges (part of a day).
type ScheduleHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewScheduleHandler(db *gorm.DB, audit *audit.Dispatcher) *ScheduleHandler {
	return &ScheduleHandler{db: db, audit: audit}
}

type CreateAbsenceRequest struct {
	BarberID  uint   `json:"barber_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=vacation sick personal"`
	Reason    string `json:"reason"`
}

type CreateBlockedSlotRequest struct {
	BarberID  uint   `json:"barber_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Reason    string `json:"reason"`
}

func (h *ScheduleHandler) ensureBarber(c *gin.Context, barberID uint) bool {
	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ? AND barbershop_id = ?", barberID, tenantID(c)).
		Count(&count).Error; err != nil {
		httperr.Render(c, err)
		return false
	}
	if count == 0 {
		httperr.NotFound(c, "barber_not_found", "Profissional não encontrado.")
		return false
	}
	return true
}

// ======================================================
// ABSENCES
// ======================================================

// ListAbsences accepts ?from=&to= (YYYY-MM-DD) and ?barber_id=.
func (h *ScheduleHandler) ListAbsences(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}

	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", shop.ID)
	if barberID != nil {
		q = q.Where("barber_id = ?", *barberID)
	}
	if s := c.Query("from"); s != "" {
		from, err := parseDateInShop(shop, s)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		q = q.Where("end_date >= ?", from)
	}
	if s := c.Query("to"); s != "" {
		to, err := parseDateInShop(shop, s)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		q = q.Where("start_date <= ?", to)
	}

	var absences []models.StaffAbsence
	if err := q.Order("start_date ASC").Find(&absences).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, absences)
}

func (h *ScheduleHandler) CreateAbsence(c *gin.Context) {
	var req CreateAbsenceRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}
	if !h.ensureBarber(c, req.BarberID) {
		return
	}

	start, err1 := parseDateInShop(shop, req.StartDate)
	end, err2 := parseDateInShop(shop, req.EndDate)
	if err1 != nil || err2 != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}
	if end.Before(start) {
		httperr.BadRequest(c, "invalid_range", "Data final anterior à inicial.")
		return
	}

	absence := models.StaffAbsence{
		BarbershopID: shop.ID,
		BarberID:     req.BarberID,
		StartDate:    start,
		EndDate:      end,
		Type:         req.Type,
		Reason:       strings.TrimSpace(req.Reason),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&absence).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "absence_created", "absence", absence.ID, map[string]any{
		"barber_id": req.BarberID,
		"from":      req.StartDate,
		"to":        req.EndDate,
	})
	c.JSON(http.StatusCreated, absence)
}

func (h *ScheduleHandler) DeleteAbsence(c *gin.Context) {
	h.deleteScoped(c, &models.StaffAbsence{}, "absence", "absence_not_found", "Ausência não encontrada.")
}

// ======================================================
// BLOCKED SLOTS
// ======================================================

func (h *ScheduleHandler) ListBlockedSlots(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", shop.ID)

	if s := c.Query("date"); s != "" {
		day, err := parseDateTimeInShop(shop, s, "00:00")
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		q = q.Where("start_at < ? AND end_at > ?", day.AddDate(0, 0, 1), day)
	}

	var blocks []models.BlockedSlot
	if err := q.Order("start_at ASC").Find(&blocks).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, blocks)
}

func (h *ScheduleHandler) CreateBlockedSlot(c *gin.Context) {
	var req CreateBlockedSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}
	if !h.ensureBarber(c, req.BarberID) {
		return
	}

	if !validRange(req.StartTime, req.EndTime) {
		httperr.BadRequest(c, "invalid_range", "Intervalo de horário inválido.")
		return
	}

	start, err1 := parseDateTimeInShop(shop, req.Date, req.StartTime)
	end, err2 := parseDateTimeInShop(shop, req.Date, req.EndTime)
	if err1 != nil || err2 != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Data ou horário inválido.")
		return
	}

	block := models.BlockedSlot{
		BarbershopID: shop.ID,
		BarberID:     req.BarberID,
		StartAt:      start,
		EndAt:        end,
		Reason:       strings.TrimSpace(req.Reason),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&block).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "slot_blocked", "blocked_slot", block.ID, map[string]any{
		"barber_id": req.BarberID,
		"date":      req.Date,
	})
	c.JSON(http.StatusCreated, block)
}

func (h *ScheduleHandler) DeleteBlockedSlot(c *gin.Context) {
	h.deleteScoped(c, &models.BlockedSlot{}, "blocked_slot", "blocked_slot_not_found", "Bloqueio não encontrado.")
}

func (h *ScheduleHandler) deleteScoped(c *gin.Context, model any, entity, code, message string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		Delete(model)
	if res.Error != nil {
		httperr.Render(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, code, message)
		return
	}

	writeAudit(h.audit, c, entity+"_deleted", entity, id, nil)
	c.Status(http.StatusNoContent)
}
