package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

// StaffHandler manages the team. Roster order (sort_order, id) decides who
// gets a free slot first.
type StaffHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewStaffHandler(db *gorm.DB, audit *audit.Dispatcher) *StaffHandler {
	return &StaffHandler{db: db, audit: audit}
}

type CreateStaffRequest struct {
	Name              string  `json:"name" binding:"required"`
	Email             string  `json:"email" binding:"required,email"`
	Password          string  `json:"password" binding:"required,min=6"`
	Phone             string  `json:"phone" binding:"omitempty,phone"`
	Role              string  `json:"role" binding:"omitempty,oneof=owner barber"`
	SortOrder         int     `json:"sort_order"`
	CommissionPercent float64 `json:"commission_percent" binding:"min=0,max=100"`
}

type UpdateStaffRequest struct {
	Name              *string  `json:"name"`
	Phone             *string  `json:"phone" binding:"omitempty,phone"`
	Role              *string  `json:"role" binding:"omitempty,oneof=owner barber"`
	Active            *bool    `json:"active"`
	SortOrder         *int     `json:"sort_order"`
	CommissionPercent *float64 `json:"commission_percent" binding:"omitempty,min=0,max=100"`
}

func (h *StaffHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND role IN ?", tenantID(c), []string{models.RoleOwner, models.RoleBarber})

	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var staff []models.User
	if err := q.Order("sort_order ASC, id ASC").Find(&staff).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) Create(c *gin.Context) {
	var req CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleBarber
	}

	user := models.User{
		BarbershopID:      tenantID(c),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      string(hashed),
		Phone:             validators.NormalizePhone(req.Phone),
		Role:              role,
		Active:            true,
		SortOrder:         req.SortOrder,
		CommissionPercent: req.CommissionPercent,
	}

	if err := h.db.WithContext(c.Request.Context()).Omit("Barbershop").Create(&user).Error; err != nil {
		if httperr.IsUniqueViolation(err, "") {
			httperr.Conflict(c, "email_already_exists", "E-mail já cadastrado.")
			return
		}
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "staff_created", "user", user.ID, map[string]any{"role": role})
	c.JSON(http.StatusCreated, user)
}

func (h *StaffHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&user).Error; err != nil {
		notFoundOr(c, err, "barber_not_found", "Profissional não encontrado.")
		return
	}

	var req UpdateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = validators.NormalizePhone(*req.Phone)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Active != nil {
		if !*req.Active && actorID(c) != nil && *actorID(c) == user.ID {
			httperr.BadRequest(c, "cannot_deactivate_self", "Você não pode desativar o próprio usuário.")
			return
		}
		updates["active"] = *req.Active
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.CommissionPercent != nil {
		updates["commission_percent"] = *req.CommissionPercent
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&user).Updates(updates).Error; err != nil {
			httperr.Render(c, err)
			return
		}
		writeAudit(h.audit, c, "staff_updated", "user", user.ID, updates)
	}

	c.JSON(http.StatusOK, user)
}
