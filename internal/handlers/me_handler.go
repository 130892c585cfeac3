package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

type meUser struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Role              string  `json:"role"`
	BarbershopID      uint    `json:"barbershop_id"`
	CommissionPercent float64 `json:"commission_percent"`
}

// GetMe returns the session user, their shop and the unread notification
// count the panel shows on its bell.
func (h *MeHandler) GetMe(c *gin.Context) {
	actor := actorID(c)
	if actor == nil {
		httperr.Unauthorized(c, "invalid_token_payload", "Sessão inválida.")
		return
	}
	ctx := c.Request.Context()
	shopID := tenantID(c)

	var user models.User
	if err := h.db.WithContext(ctx).
		Preload("Barbershop").
		Where("id = ? AND barbershop_id = ?", *actor, shopID).
		First(&user).Error; err != nil {
		notFoundOr(c, err, "user_not_found", "Usuário não encontrado.")
		return
	}

	var unread int64
	if err := h.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("barbershop_id = ? AND read_at IS NULL", shopID).
		Where("user_id IS NULL OR user_id = ?", *actor).
		Count(&unread).Error; err != nil {
		httperr.Internal(c, "failed_to_load_user", "Erro ao carregar usuário.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": meUser{
			ID:                user.ID,
			Name:              user.Name,
			Email:             user.Email,
			Phone:             user.Phone,
			Role:              user.Role,
			BarbershopID:      user.BarbershopID,
			CommissionPercent: user.CommissionPercent,
		},
		"barbershop":           user.Barbershop,
		"unread_notifications": unread,
	})
}
