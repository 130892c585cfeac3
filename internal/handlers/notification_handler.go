package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

type NotificationHandler struct {
	db     *gorm.DB
	events realtime.Publisher
}

func NewNotificationHandler(db *gorm.DB, events realtime.Publisher) *NotificationHandler {
	return &NotificationHandler{db: db, events: events}
}

// visible restricts to shop-wide notifications and the caller's own.
func (h *NotificationHandler) visible(c *gin.Context) *gorm.DB {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("barbershop_id = ?", tenantID(c))

	if uid := actorID(c); uid != nil {
		q = q.Where("user_id IS NULL OR user_id = ?", *uid)
	} else {
		q = q.Where("user_id IS NULL")
	}
	return q
}

// List accepts ?unread=true.
func (h *NotificationHandler) List(c *gin.Context) {
	q := h.visible(c)
	if c.Query("unread") == "true" {
		q = q.Where("read_at IS NULL")
	}

	var items []models.Notification
	if err := q.Order("created_at DESC").Limit(100).Find(&items).Error; err != nil {
		httperr.Render(c, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}

	var unread int64
	if err := h.visible(c).Where("read_at IS NULL").Count(&unread).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var n models.Notification
	if err := h.visible(c).Where("id = ?", id).First(&n).Error; err != nil {
		notFoundOr(c, err, "notification_not_found", "Notificação não encontrada.")
		return
	}

	if n.ReadAt == nil {
		now := time.Now().UTC()
		if err := h.db.WithContext(c.Request.Context()).
			Model(&n).
			Update("read_at", now).Error; err != nil {
			httperr.Render(c, err)
			return
		}
		realtime.Emit(c.Request.Context(), h.events, realtime.EventUpdate, realtime.TableNotifications, n.BarbershopID, n.ID)
	}

	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	res := h.visible(c).
		Where("read_at IS NULL").
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		httperr.Render(c, res.Error)
		return
	}

	if res.RowsAffected > 0 {
		realtime.Emit(c.Request.Context(), h.events, realtime.EventUpdate, realtime.TableNotifications, tenantID(c), 0)
	}

	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
