package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	ucSales "github.com/BruksfildServices01/barber-saas/internal/usecase/sales"
)

// SalesHandler is the point of sale: coupons, sales and loyalty.
type SalesHandler struct {
	db       *gorm.DB
	audit    *audit.Dispatcher
	process  *ucSales.ProcessSale
	validate *ucSales.ValidateCoupon
}

func NewSalesHandler(
	db *gorm.DB,
	audit *audit.Dispatcher,
	process *ucSales.ProcessSale,
	validate *ucSales.ValidateCoupon,
) *SalesHandler {
	return &SalesHandler{db: db, audit: audit, process: process, validate: validate}
}

// --------- Requests ---------

type CreateSaleRequest struct {
	ClientID      *uint                   `json:"client_id"`
	BarberID      *uint                   `json:"barber_id"`
	AppointmentID *uint                   `json:"appointment_id"`
	Items         []ucSales.SaleItemInput `json:"items" binding:"required,min=1,dive"`
	CouponCode    string                  `json:"coupon_code"`
	RedeemPoints  int                     `json:"redeem_points" binding:"min=0"`
	PaymentMethod string                  `json:"payment_method" binding:"required"`
}

type CouponRequest struct {
	Code          string  `json:"code" binding:"required,max=40"`
	DiscountType  string  `json:"discount_type" binding:"required,oneof=percent fixed"`
	DiscountValue float64 `json:"discount_value" binding:"gt=0"`
	MinPurchase   float64 `json:"min_purchase" binding:"min=0"`
	MaxUses       int     `json:"max_uses" binding:"min=0"`
	ExpiresAt     string  `json:"expires_at"`
}

type UpdateCouponRequest struct {
	DiscountValue *float64 `json:"discount_value" binding:"omitempty,gt=0"`
	MinPurchase   *float64 `json:"min_purchase" binding:"omitempty,min=0"`
	MaxUses       *int     `json:"max_uses" binding:"omitempty,min=0"`
	ExpiresAt     *string  `json:"expires_at"`
	Active        *bool    `json:"active"`
}

type ValidateCouponRequest struct {
	Code      string  `json:"code" binding:"required"`
	CartTotal float64 `json:"cart_total" binding:"min=0"`
}

// parseExpiry reads YYYY-MM-DD as the end of that day in loc.
func parseExpiry(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data de validade inválida.")
	}
	end := d.AddDate(0, 0, 1).Add(-time.Second)
	return &end, nil
}

// ======================================================
// SALES
// ======================================================

func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.process.Execute(c.Request.Context(), ucSales.ProcessSaleInput{
		BarbershopID:  tenantID(c),
		ActorID:       actorID(c),
		ClientID:      req.ClientID,
		BarberID:      req.BarberID,
		AppointmentID: req.AppointmentID,
		Items:         req.Items,
		CouponCode:    req.CouponCode,
		RedeemPoints:  req.RedeemPoints,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// ListSales accepts ?from=&to= (YYYY-MM-DD, shop timezone) and ?barber_id=.
func (h *SalesHandler) ListSales(c *gin.Context) {
	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}
	page := httpresp.PageFromQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Sale{}).
		Where("barbershop_id = ?", shop.ID)

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}
	if barberID != nil {
		q = q.Where("barber_id = ?", *barberID)
	}
	if s := c.Query("from"); s != "" {
		from, err := parseDateTimeInShop(shop, s, "00:00")
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inicial inválida.")
			return
		}
		q = q.Where("created_at >= ?", from)
	}
	if s := c.Query("to"); s != "" {
		to, err := parseDateTimeInShop(shop, s, "00:00")
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data final inválida.")
			return
		}
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var sales []models.Sale
	if err := q.Preload("Items").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&sales).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.Paged(c, sales, page, total)
}

func (h *SalesHandler) GetSale(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var sale models.Sale
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Items").
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&sale).Error; err != nil {
		notFoundOr(c, err, "sale_not_found", "Venda não encontrada.")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// ======================================================
// COUPONS
// ======================================================

func (h *SalesHandler) ListCoupons(c *gin.Context) {
	var coupons []models.Coupon
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", tenantID(c)).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, coupons)
}

func (h *SalesHandler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	if req.DiscountType == domain.DiscountPercent && req.DiscountValue > 100 {
		httperr.BadRequest(c, "invalid_discount", "Desconto percentual acima de 100%.")
		return
	}

	expires, err := parseExpiry(req.ExpiresAt, locationFromShop(shop))
	if err != nil {
		httperr.Render(c, err)
		return
	}

	coupon := models.Coupon{
		BarbershopID:  shop.ID,
		Code:          domain.NormalizeCode(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxUses:       req.MaxUses,
		ExpiresAt:     expires,
		Active:        true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&coupon).Error; err != nil {
		if httperr.IsUniqueViolation(err, "") {
			httperr.Conflict(c, "code_already_exists", "Já existe um cupom com este código.")
			return
		}
		httperr.Render(c, err)
		return
	}

	writeAudit(h.audit, c, "coupon_created", "coupon", coupon.ID, map[string]any{"code": coupon.Code})
	c.JSON(http.StatusCreated, coupon)
}

func (h *SalesHandler) UpdateCoupon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	shop, err := loadShop(c.Request.Context(), h.db, tenantID(c))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return
	}

	var coupon models.Coupon
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, shop.ID).
		First(&coupon).Error; err != nil {
		notFoundOr(c, err, "coupon_not_found", "Cupom não encontrado.")
		return
	}

	var req UpdateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := map[string]any{}
	if req.DiscountValue != nil {
		if coupon.DiscountType == domain.DiscountPercent && *req.DiscountValue > 100 {
			httperr.BadRequest(c, "invalid_discount", "Desconto percentual acima de 100%.")
			return
		}
		updates["discount_value"] = *req.DiscountValue
	}
	if req.MinPurchase != nil {
		updates["min_purchase"] = *req.MinPurchase
	}
	if req.MaxUses != nil {
		updates["max_uses"] = *req.MaxUses
	}
	if req.ExpiresAt != nil {
		expires, err := parseExpiry(*req.ExpiresAt, locationFromShop(shop))
		if err != nil {
			httperr.Render(c, err)
			return
		}
		updates["expires_at"] = expires
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&coupon).Updates(updates).Error; err != nil {
			httperr.Render(c, err)
			return
		}
		writeAudit(h.audit, c, "coupon_updated", "coupon", coupon.ID, nil)
	}

	c.JSON(http.StatusOK, coupon)
}

func (h *SalesHandler) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	check, err := h.validate.Execute(c.Request.Context(), tenantID(c), req.Code, req.CartTotal)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

// ======================================================
// LOYALTY
// ======================================================

// Loyalty returns the client's balance and latest point movements.
func (h *SalesHandler) Loyalty(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shopID := tenantID(c)

	var client models.Client
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, shopID).
		First(&client).Error; err != nil {
		notFoundOr(c, err, "client_not_found", "Cliente não encontrado.")
		return
	}

	var txs []models.LoyaltyTransaction
	if err := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND client_id = ?", shopID, client.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&txs).Error; err != nil {
		httperr.Render(c, err)
		return
	}
	if txs == nil {
		txs = []models.LoyaltyTransaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":    client.ID,
		"points":       client.LoyaltyPoints,
		"points_value": domain.RoundCents(float64(client.LoyaltyPoints) * domain.PointValue),
		"transactions": txs,
	})
}
