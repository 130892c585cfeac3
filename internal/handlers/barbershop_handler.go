package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

type BarbershopHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewBarbershopHandler(db *gorm.DB, audit *audit.Dispatcher) *BarbershopHandler {
	return &BarbershopHandler{db: db, audit: audit}
}

type UpdateBarbershopConfigRequest struct {
	Name                *string  `json:"name"`
	Phone               *string  `json:"phone" binding:"omitempty,phone"`
	Address             *string  `json:"address"`
	Timezone            *string  `json:"timezone"`
	MinAdvanceMinutes   *int     `json:"min_advance_minutes"`
	SlotIntervalMinutes *int     `json:"slot_interval_minutes"`
	AutoConfirm         *bool    `json:"auto_confirm"`
	NoShowFeeEnabled    *bool    `json:"no_show_fee_enabled"`
	NoShowFeeAmount     *float64 `json:"no_show_fee_amount"`
	LoyaltyPointsPerBRL *float64 `json:"loyalty_points_per_real"`
}

func (h *BarbershopHandler) GetMeBarbershop(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	c.JSON(http.StatusOK, shop)
}

func (h *BarbershopHandler) UpdateMeBarbershop(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	var req UpdateBarbershopConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := map[string]any{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
			return
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = validators.NormalizePhone(*req.Phone)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return
		}
		updates["timezone"] = *req.Timezone
	}
	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			httperr.BadRequest(c, "invalid_min_advance", "Antecedência mínima deve ser zero ou positiva (em minutos).")
			return
		}
		updates["min_advance_minutes"] = *req.MinAdvanceMinutes
	}
	if req.SlotIntervalMinutes != nil {
		if v := *req.SlotIntervalMinutes; v < 5 || v > 240 {
			httperr.BadRequest(c, "invalid_slot_interval", "Intervalo deve estar entre 5 e 240 minutos.")
			return
		}
		updates["slot_interval_minutes"] = *req.SlotIntervalMinutes
	}
	if req.AutoConfirm != nil {
		updates["auto_confirm"] = *req.AutoConfirm
	}
	if req.NoShowFeeEnabled != nil {
		updates["no_show_fee_enabled"] = *req.NoShowFeeEnabled
	}
	if req.NoShowFeeAmount != nil {
		if *req.NoShowFeeAmount < 0 {
			httperr.BadRequest(c, "invalid_no_show_fee", "Taxa de não comparecimento inválida.")
			return
		}
		updates["no_show_fee_amount"] = *req.NoShowFeeAmount
	}
	if req.LoyaltyPointsPerBRL != nil {
		if *req.LoyaltyPointsPerBRL < 0 {
			httperr.BadRequest(c, "invalid_loyalty_rate", "Pontos por real inválido.")
			return
		}
		updates["loyalty_points_per_brl"] = *req.LoyaltyPointsPerBRL
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).
			Model(shop).
			Updates(updates).Error; err != nil {
			httperr.Render(c, err)
			return
		}
		writeAudit(h.audit, c, "barbershop_updated", "barbershop", shop.ID, updates)
	}

	shop, err = loadShop(c.Request.Context(), h.db, shop.ID)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, shop)
}
