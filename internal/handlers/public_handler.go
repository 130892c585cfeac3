package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-saas/internal/usecase/appointment"
)

const qrCodeSize = 512

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the self-service booking link. ":shop" is the
// tenant id or its slug.
type PublicHandler struct {
	db            *gorm.DB
	create        *ucAppointment.CreateAppointment
	availability  *ucAppointment.GetAvailability
	events        realtime.Publisher
	publicBaseURL string
}

func NewPublicHandler(
	db *gorm.DB,
	create *ucAppointment.CreateAppointment,
	availability *ucAppointment.GetAvailability,
	events realtime.Publisher,
	publicBaseURL string,
) *PublicHandler {
	return &PublicHandler{
		db:            db,
		create:        create,
		availability:  availability,
		events:        events,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateAppointmentRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone" binding:"required,phone"`
	ClientEmail string `json:"client_email" binding:"omitempty,email"`
	BarberID    *uint  `json:"barber_id"`
	ServiceIDs  []uint `json:"service_ids" binding:"required,min=1"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Time        string `json:"time" binding:"required"` // HH:mm
	Notes       string `json:"notes" binding:"max=500"`
}

type publicStaff struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// shop loads the active tenant named in the path.
func (h *PublicHandler) shop(c *gin.Context) (*models.Barbershop, bool) {
	shop, err := findShop(c.Request.Context(), h.db, c.Param("shop"))
	if err != nil {
		notFoundOr(c, err, "barbershop_not_found", "Barbearia não encontrada.")
		return nil, false
	}
	if !shop.Active {
		httperr.NotFound(c, "barbershop_not_found", "Barbearia não encontrada.")
		return nil, false
	}
	return shop, true
}

// BookingURL is the link printed in the QR code.
func (h *PublicHandler) BookingURL(shopID uint) string {
	return fmt.Sprintf("%s/public-booking/%d", h.publicBaseURL, shopID)
}

////////////////////////////////////////////////////////
// COMPANY PREVIEW
////////////////////////////////////////////////////////

func (h *PublicHandler) Company(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var services []models.Service
	if err := h.db.WithContext(ctx).
		Where("barbershop_id = ? AND active = ?", shop.ID, true).
		Order("name ASC").
		Find(&services).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var hours []models.BusinessHours
	if err := h.db.WithContext(ctx).
		Where("barbershop_id = ?", shop.ID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var staff []publicStaff
	if err := h.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name").
		Where("barbershop_id = ? AND active = ? AND role IN ?", shop.ID, true,
			[]string{models.RoleOwner, models.RoleBarber}).
		Order("sort_order ASC, id ASC").
		Scan(&staff).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barbershop": gin.H{
			"id":       shop.ID,
			"name":     shop.Name,
			"slug":     shop.Slug,
			"phone":    shop.Phone,
			"address":  shop.Address,
			"timezone": shop.Timezone,
		},
		"services":       services,
		"business_hours": hours,
		"staff":          staff,
		"booking_url":    h.BookingURL(shop.ID),
	})
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	q := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ? AND active = true", shop.ID)

	q, ok = filterServices(c, q)
	if !ok {
		return
	}

	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barbershop": gin.H{"id": shop.ID, "name": shop.Name, "slug": shop.Slug},
		"services":   services,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY (REUSO TOTAL DO USE CASE)
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), ucAppointment.AvailabilityInput{
		BarbershopID: shop.ID,
		BarberID:     barberID,
		Date:         date,
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": publicSlots(slots),
	})
}

// publicSlots hides who was assigned; the public only sees free or busy.
func publicSlots(slots []domain.Slot) []domain.Slot {
	out := make([]domain.Slot, len(slots))
	for i, s := range slots {
		out[i] = domain.Slot{Time: s.Time, Available: s.Available, Reason: s.Reason}
	}
	return out
}

////////////////////////////////////////////////////////
// CREATE APPOINTMENT (PUBLIC → MESMO USE CASE)
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	var req PublicCreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		BarbershopID: shop.ID,
		Source:       ucAppointment.SourcePublic,
		BarberID:     req.BarberID,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		ClientEmail:  req.ClientEmail,
		ServiceIDs:   req.ServiceIDs,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	ap := res.Appointments[0]
	barberName := ""
	if ap.Barber != nil {
		barberName = ap.Barber.Name
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          ap.ID,
		"date":        req.Date,
		"time":        ap.Time,
		"status":      ap.Status,
		"barber_name": barberName,
		"total_price": ap.TotalPrice,
	})
}

////////////////////////////////////////////////////////
// WAITLIST
////////////////////////////////////////////////////////

func (h *PublicHandler) JoinWaitlist(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	var req WaitlistRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := createWaitlistEntry(c.Request.Context(), h.db, h.events, shop, req)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             entry.ID,
		"preferred_date": req.PreferredDate,
		"status":         entry.Status,
	})
}

////////////////////////////////////////////////////////
// QR CODE
////////////////////////////////////////////////////////

func (h *PublicHandler) QRCode(c *gin.Context) {
	shop, ok := h.shop(c)
	if !ok {
		return
	}

	png, err := qrcode.Encode(h.BookingURL(shop.ID), qrcode.Medium, qrCodeSize)
	if err != nil {
		httperr.Render(c, fmt.Errorf("qrcode: encode: %w", err))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
