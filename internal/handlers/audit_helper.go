package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/middleware"
	"github.com/BruksfildServices01/barber-saas/internal/validators"
)

// writeAudit queues an audit row for changes made straight through gorm.
func writeAudit(
	d *audit.Dispatcher,
	c *gin.Context,
	action string,
	entity string,
	entityID uint,
	meta any,
) {
	id := entityID
	d.Dispatch(audit.Event{
		BarbershopID: tenantID(c),
		UserID:       actorID(c),
		Action:       action,
		Entity:       entity,
		EntityID:     &id,
		Metadata:     meta,
	})
}

func tenantID(c *gin.Context) uint {
	return c.MustGet(middleware.ContextBarbershopID).(uint)
}

func actorID(c *gin.Context) *uint {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return nil
	}
	id := v.(uint)
	return &id
}

// paramID parses a positive numeric path parameter and answers 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}

func optionalQueryID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Identificador inválido.")
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// bindJSON answers 400 naming the first invalid field.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if field, tag, ok := validators.FirstInvalidField(err); ok {
			msg := "Campo inválido: " + field + "."
			if tag == "required" {
				msg = "Campo obrigatório: " + field + "."
			}
			httperr.BadRequest(c, "invalid_request", msg)
			return false
		}
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return false
	}
	return true
}

// notFoundOr renders gorm.ErrRecordNotFound as a 404 with code, anything else
// through httperr.Render.
func notFoundOr(c *gin.Context, err error, code, message string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, code, message)
		return
	}
	httperr.Render(c, err)
}
