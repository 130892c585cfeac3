package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

// WorkingHoursHandler edits the shop's business hours and each barber's
// weekly shifts. Both are replaced as a whole on PUT.
type WorkingHoursHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(db *gorm.DB, audit *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db, audit: audit}
}

type BusinessDayConfig struct {
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

type BusinessHoursUpdateRequest struct {
	Days []BusinessDayConfig `json:"days" binding:"required,dive"`
}

type ShiftConfig struct {
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Active    *bool  `json:"active"`
}

type ShiftsUpdateRequest struct {
	Shifts []ShiftConfig `json:"shifts" binding:"dive"`
}

// validRange checks two HH:MM clocks with start strictly before end.
func validRange(start, end string) bool {
	return domain.ValidClock(start) && domain.ValidClock(end) && start < end
}

// ======================================================
// BUSINESS HOURS
// ======================================================

func (h *WorkingHoursHandler) GetBusinessHours(c *gin.Context) {
	var hours []models.BusinessHours
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", tenantID(c)).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *WorkingHoursHandler) UpdateBusinessHours(c *gin.Context) {
	var req BusinessHoursUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	shopID := tenantID(c)
	seen := map[int]bool{}

	var toCreate []models.BusinessHours
	for _, d := range req.Days {
		if seen[*d.Weekday] {
			httperr.BadRequest(c, "duplicate_weekday", "Dia da semana repetido.")
			return
		}
		seen[*d.Weekday] = true

		if !d.Closed && !validRange(d.OpenTime, d.CloseTime) {
			httperr.BadRequest(c, "invalid_hours", "Horário de abertura e fechamento inválido.")
			return
		}

		toCreate = append(toCreate, models.BusinessHours{
			BarbershopID: shopID,
			Weekday:      *d.Weekday,
			Closed:       d.Closed,
			OpenTime:     d.OpenTime,
			CloseTime:    d.CloseTime,
		})
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("barbershop_id = ?", shopID).Delete(&models.BusinessHours{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		return tx.Create(&toCreate).Error
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "business_hours_updated", "barbershop", shopID, nil)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ======================================================
// SHIFTS
// ======================================================

func (h *WorkingHoursHandler) staffMember(c *gin.Context) (*models.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var barber models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&barber).Error; err != nil {
		notFoundOr(c, err, "barber_not_found", "Profissional não encontrado.")
		return nil, false
	}
	return &barber, true
}

func (h *WorkingHoursHandler) GetShifts(c *gin.Context) {
	barber, ok := h.staffMember(c)
	if !ok {
		return
	}

	var shifts []models.StaffShift
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND barber_id = ?", tenantID(c), barber.ID).
		Order("weekday ASC, start_time ASC").
		Find(&shifts).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, shifts)
}

func (h *WorkingHoursHandler) UpdateShifts(c *gin.Context) {
	barber, ok := h.staffMember(c)
	if !ok {
		return
	}

	var req ShiftsUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	shopID := tenantID(c)

	var toCreate []models.StaffShift
	for _, s := range req.Shifts {
		if !validRange(s.StartTime, s.EndTime) {
			httperr.BadRequest(c, "invalid_shift", "Turno com horário inválido.")
			return
		}
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		toCreate = append(toCreate, models.StaffShift{
			BarbershopID: shopID,
			BarberID:     barber.ID,
			Weekday:      *s.Weekday,
			StartTime:    s.StartTime,
			EndTime:      s.EndTime,
			Active:       active,
		})
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("barbershop_id = ? AND barber_id = ?", shopID, barber.ID).
			Delete(&models.StaffShift{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		if err := tx.Create(&toCreate).Error; err != nil {
			return err
		}

		// gorm skips false for a column with a default, so paused shifts
		// are written in a second pass
		var paused []uint
		for i := range toCreate {
			if !toCreate[i].Active {
				paused = append(paused, toCreate[i].ID)
			}
		}
		if len(paused) == 0 {
			return nil
		}
		return tx.Model(&models.StaffShift{}).Where("id IN ?", paused).Update("active", false).Error
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "shifts_updated", "user", barber.ID, map[string]any{"shifts": len(toCreate)})
	c.JSON(http.StatusOK, toCreate)
}
