package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

type ClientHandler struct {
	db     *gorm.DB
	audit  *audit.Dispatcher
	events realtime.Publisher
}

func NewClientHandler(db *gorm.DB, audit *audit.Dispatcher, events realtime.Publisher) *ClientHandler {
	return &ClientHandler{db: db, audit: audit, events: events}
}

type ClientRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone" binding:"required,phone"`
	Email     string `json:"email" binding:"omitempty,email"`
	BirthDate string `json:"birth_date"`
	Notes     string `json:"notes"`
}

func (r ClientRequest) apply(client *models.Client) error {
	client.Name = strings.TrimSpace(r.Name)
	client.Phone = validators.NormalizePhone(r.Phone)
	client.Email = strings.ToLower(strings.TrimSpace(r.Email))
	client.Notes = r.Notes
	client.BirthDate = nil

	if r.BirthDate != "" {
		d, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			return httperr.ErrBusinessMsg("invalid_birth_date", "Data de nascimento inválida.")
		}
		client.BirthDate = &d
	}
	return nil
}

// ======================================================
// LIST CLIENTS (BARBEIRO)
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	page := httpresp.PageFromQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Client{}).
		Where("barbershop_id = ?", tenantID(c))

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var clients []models.Client
	if err := q.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&clients).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.Paged(c, clients, page, total)
}

func (h *ClientHandler) Get(c *gin.Context) {
	client, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client := models.Client{BarbershopID: tenantID(c)}
	if err := req.apply(&client); err != nil {
		httperr.Render(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
		h.renderWriteError(c, err)
		return
	}

	writeAudit(h.audit, c, "client_created", "client", client.ID, nil)
	realtime.Emit(c.Request.Context(), h.events, realtime.EventInsert, realtime.TableClients, client.BarbershopID, client.ID)
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	client, ok := h.load(c)
	if !ok {
		return
	}

	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.apply(client); err != nil {
		httperr.Render(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(client).
		Select("name", "phone", "email", "birth_date", "notes").
		Updates(client).Error; err != nil {
		h.renderWriteError(c, err)
		return
	}

	writeAudit(h.audit, c, "client_updated", "client", client.ID, nil)
	realtime.Emit(c.Request.Context(), h.events, realtime.EventUpdate, realtime.TableClients, client.BarbershopID, client.ID)
	c.JSON(http.StatusOK, client)
}

// Delete refuses clients with appointment or sale history.
func (h *ClientHandler) Delete(c *gin.Context) {
	client, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var refs int64
	if err := h.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("barbershop_id = ? AND client_id = ?", client.BarbershopID, client.ID).
		Count(&refs).Error; err != nil {
		httperr.Render(c, err)
		return
	}
	if refs == 0 {
		if err := h.db.WithContext(ctx).Model(&models.Sale{}).
			Where("barbershop_id = ? AND client_id = ?", client.BarbershopID, client.ID).
			Count(&refs).Error; err != nil {
			httperr.Render(c, err)
			return
		}
	}
	if refs > 0 {
		httperr.Conflict(c, "client_has_history", "Cliente possui histórico e não pode ser removido.")
		return
	}

	if err := h.db.WithContext(ctx).Delete(client).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "client_deleted", "client", client.ID, nil)
	realtime.Emit(ctx, h.events, realtime.EventDelete, realtime.TableClients, client.BarbershopID, client.ID)
	c.Status(http.StatusNoContent)
}

// History lists the client's appointments, newest first.
func (h *ClientHandler) History(c *gin.Context) {
	client, ok := h.load(c)
	if !ok {
		return
	}

	var appointments []models.Appointment
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Services").
		Preload("Barber").
		Where("barbershop_id = ? AND client_id = ?", client.BarbershopID, client.ID).
		Order("date DESC, time DESC").
		Limit(100).
		Find(&appointments).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.List(c, appointments)
}

func (h *ClientHandler) load(c *gin.Context) (*models.Client, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var client models.Client
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&client).Error; err != nil {
		notFoundOr(c, err, "client_not_found", "Cliente não encontrado.")
		return nil, false
	}
	return &client, true
}

func (h *ClientHandler) renderWriteError(c *gin.Context, err error) {
	if httperr.IsUniqueViolation(err, "ux_clients_phone") {
		httperr.Conflict(c, "phone_already_exists", "Já existe um cliente com este telefone.")
		return
	}
	httperr.Render(c, err)
}
