package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/config"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/subscription"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

const (
	tokenTTL  = 24 * time.Hour
	trialDays = 14
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher

	// checkEmailDomain does a DNS lookup; replaced in tests.
	checkEmailDomain func(context.Context, string) bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, audit *audit.Dispatcher) *AuthHandler {
	return &AuthHandler{
		db:               db,
		config:           cfg,
		audit:            audit,
		checkEmailDomain: validators.EmailDomainResolves,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	BarbershopName    string `json:"barbershop_name" binding:"required"`
	BarbershopSlug    string `json:"barbershop_slug" binding:"required"`
	BarbershopPhone   string `json:"barbershop_phone" binding:"omitempty,phone"`
	BarbershopAddress string `json:"barbershop_address"`
	Timezone          string `json:"timezone"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.BarbershopSlug))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !h.checkEmailDomain(c.Request.Context(), email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	shop := models.Barbershop{
		Name:     strings.TrimSpace(req.BarbershopName),
		Slug:     slug,
		Phone:    validators.NormalizePhone(req.BarbershopPhone),
		Address:  req.BarbershopAddress,
		Timezone: tz,
		Active:   true,
	}
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        validators.NormalizePhone(req.Phone),
		Role:         models.RoleOwner,
		Active:       true,
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Barbershop{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusinessMsg("slug_already_exists", "Endereço da barbearia já está em uso.")
		}

		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusinessMsg("email_already_exists", "E-mail já cadastrado.")
		}

		if err := tx.Create(&shop).Error; err != nil {
			return err
		}

		user.BarbershopID = shop.ID
		if err := tx.Omit("Barbershop").Create(&user).Error; err != nil {
			return err
		}

		trialEnd := time.Now().AddDate(0, 0, trialDays)
		return tx.Omit("Barbershop").Create(&models.PlatformSubscription{
			BarbershopID:     shop.ID,
			Plan:             subscription.PlanBasic,
			Status:           subscription.StatusTrial,
			CurrentPeriodEnd: &trialEnd,
		}).Error
	})
	if err != nil {
		if httperr.IsUniqueViolation(err, "") {
			httperr.Conflict(c, "slug_already_exists", "Barbearia ou e-mail já cadastrado.")
			return
		}
		httperr.Render(c, err)
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	uid := user.ID
	h.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		UserID:       &uid,
		Action:       "barbershop_registered",
		Entity:       "barbershop",
		EntityID:     &shop.ID,
	})

	zerolog.Ctx(c.Request.Context()).Info().
		Uint("barbershop_id", shop.ID).
		Str("slug", shop.Slug).
		Msg("barbershop registered")

	c.JSON(http.StatusCreated, authResponse(&user, &shop, token))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Barbershop").
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		httperr.Render(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}

	if !user.Active {
		httperr.Forbidden(c, "user_inactive", "Usuário desativado.")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(&user, &user.Barbershop, token))
}

func authResponse(user *models.User, shop *models.Barbershop, token string) gin.H {
	return gin.H{
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"phone":         user.Phone,
			"role":          user.Role,
			"barbershop_id": user.BarbershopID,
		},
		"barbershop": gin.H{
			"id":       shop.ID,
			"name":     shop.Name,
			"slug":     shop.Slug,
			"phone":    shop.Phone,
			"address":  shop.Address,
			"timezone": shop.Timezone,
		},
		"token": token,
	}
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	return signToken(h.config.JWTSecret, user, time.Now())
}

func signToken(secret string, user *models.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID,
		"barbershopId": user.BarbershopID,
		"role":         user.Role,
		"exp":          now.Add(tokenTTL).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
