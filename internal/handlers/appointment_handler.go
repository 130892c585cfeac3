package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/dto"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/infra/storage"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-saas/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentUseCases struct {
	Create       *ucAppointment.CreateAppointment
	Availability *ucAppointment.GetAvailability
	Confirm      *ucAppointment.ConfirmAppointment
	Cancel       *ucAppointment.CancelAppointment
	Complete     *ucAppointment.CompleteAppointment
	NoShow       *ucAppointment.MarkNoShow
	Reschedule   *ucAppointment.RescheduleAppointment
	Notes        *ucAppointment.UpdateNotes
	Photo        *ucAppointment.UpdateResultPhoto
	Delete       *ucAppointment.DeleteAppointment
	ListByDate   *ucAppointment.ListAppointmentsByDate
	ListByMonth  *ucAppointment.ListAppointmentsByMonth
}

type AppointmentHandler struct {
	uc AppointmentUseCases
}

func NewAppointmentHandler(uc AppointmentUseCases) *AppointmentHandler {
	return &AppointmentHandler{uc: uc}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	ClientID    *uint  `json:"client_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone" binding:"omitempty,phone"`
	ClientEmail string `json:"client_email" binding:"omitempty,email"`

	BarberID   *uint  `json:"barber_id"`
	ServiceIDs []uint `json:"service_ids" binding:"required,min=1"`
	Date       string `json:"date" binding:"required"` // YYYY-MM-DD
	Time       string `json:"time" binding:"required"` // HH:mm
	Notes      string `json:"notes"`
	Confirm    bool   `json:"confirm"`

	RecurrenceType    string `json:"recurrence_type" binding:"omitempty,oneof=weekly biweekly monthly"`
	RecurrenceEndDate string `json:"recurrence_end_date"`
}

type RescheduleRequest struct {
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	BarberID *uint  `json:"barber_id"`
}

type NoShowRequest struct {
	ApplyFee bool   `json:"apply_fee"`
	Note     string `json:"note" binding:"max=255"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// ======================================================
// HELPERS
// ======================================================

// renderTransition answers a state change. When it was refused the body also
// carries the stored appointment so the client can resync.
func renderTransition(c *gin.Context, ap *models.Appointment, err error) {
	if err == nil {
		c.JSON(http.StatusOK, ap)
		return
	}

	be, ok := httperr.AsBusiness(err)
	if !ok || ap == nil {
		httperr.Render(c, err)
		return
	}

	msg := be.Message
	if msg == "" {
		msg = "Operação não permitida para o status atual."
	}
	c.JSON(httperr.StatusFor(be.Code), gin.H{
		"error_code":  be.Code,
		"message":     msg,
		"appointment": ap,
	})
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.uc.Create.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		BarbershopID:  tenantID(c),
		ActorID:       actorID(c),
		Source:        ucAppointment.SourceStaff,
		BarberID:      req.BarberID,
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		ClientEmail:   req.ClientEmail,
		ServiceIDs:    req.ServiceIDs,
		Date:          req.Date,
		Time:          req.Time,
		Notes:         req.Notes,
		Confirm:       req.Confirm,
		Recurrence:    domain.Recurrence(req.RecurrenceType),
		RecurrenceEnd: req.RecurrenceEndDate,
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *AppointmentHandler) Availability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}

	slots, err := h.uc.Availability.Execute(c.Request.Context(), ucAppointment.AvailabilityInput{
		BarbershopID: tenantID(c),
		BarberID:     barberID,
		Date:         date,
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
	})
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}

	list, err := h.uc.ListByDate.Execute(c.Request.Context(), tenantID(c), barberID, date)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.List[dto.AppointmentListDTO](c, list)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	barberID, ok := optionalQueryID(c, "barber_id")
	if !ok {
		return
	}

	list, err := h.uc.ListByMonth.Execute(c.Request.Context(), tenantID(c), barberID, year, month)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	if list == nil {
		list = []dto.AppointmentListDTO{}
	}
	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": list,
	})
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ap, err := h.uc.Confirm.Execute(c.Request.Context(), tenantID(c), actorID(c), id)
	renderTransition(c, ap, err)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ap, err := h.uc.Cancel.Execute(c.Request.Context(), tenantID(c), actorID(c), id)
	renderTransition(c, ap, err)
}

// Complete accepts an optional multipart "photo" with the result picture.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var photo io.Reader
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		f, ok := formPhoto(c)
		if !ok {
			return
		}
		if f != nil {
			defer f.Close()
			photo = f
		}
	}

	ap, err := h.uc.Complete.Execute(c.Request.Context(), tenantID(c), actorID(c), id, photo)
	renderTransition(c, ap, err)
}

// UpdatePhoto attaches or replaces the result photo in any status. Expects a
// multipart "photo" field.
func (h *AppointmentHandler) UpdatePhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	f, ok := formPhoto(c)
	if !ok {
		return
	}
	if f == nil {
		httperr.BadRequest(c, "photo_required", "Envie a foto do resultado.")
		return
	}
	defer f.Close()

	ap, err := h.uc.Photo.Execute(c.Request.Context(), tenantID(c), actorID(c), id, f)
	if err != nil {
		httperr.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, ap)
}

// formPhoto opens the multipart "photo" file. A nil file with ok=true means
// the field was absent; ok=false means the error response was written.
func formPhoto(c *gin.Context) (multipart.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, true
	case err != nil:
		httperr.BadRequest(c, "invalid_photo", "Foto inválida ou muito grande.")
		return nil, false
	}
	if fh.Size > storage.MaxUploadBytes {
		httperr.BadRequest(c, "photo_too_large", "Foto muito grande (máximo 10 MB).")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_photo", "Foto inválida.")
		return nil, false
	}
	return f, true
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req NoShowRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	ap, err := h.uc.NoShow.Execute(c.Request.Context(), tenantID(c), actorID(c), id, domain.NoShowDecision{
		ApplyFee: req.ApplyFee,
		Note:     req.Note,
	})
	renderTransition(c, ap, err)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	ap, err := h.uc.Reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleInput{
		BarbershopID:  tenantID(c),
		ActorID:       actorID(c),
		AppointmentID: id,
		Date:          req.Date,
		Time:          req.Time,
		BarberID:      req.BarberID,
	})
	renderTransition(c, ap, err)
}

// ======================================================
// NOTES / DELETE
// ======================================================

func (h *AppointmentHandler) UpdateNotes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req NotesRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.uc.Notes.Execute(c.Request.Context(), tenantID(c), actorID(c), id, req.Notes); err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "notes": req.Notes})
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), tenantID(c), actorID(c), id); err != nil {
		httperr.Render(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
