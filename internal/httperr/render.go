package httperr

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var conflictCodes = map[string]bool{
	"time_conflict":         true,
	"campaign_already_sent": true,
	"slug_already_exists":   true,
	"email_already_exists":  true,
	"phone_already_exists":  true,
	"code_already_exists":   true,
}

var unavailableCodes = map[string]bool{
	"payments_unavailable":   true,
	"channel_unavailable":    true,
	"photo_storage_disabled": true,
}

// Mensagens padrão para códigos levantados sem texto
var defaultMessages = map[string]string{
	"time_conflict":         "Conflito de horário.",
	"invalid_state":         "Operação não permitida para o status atual.",
	"barbershop_not_found":  "Barbearia não encontrada.",
	"invalid_quantity":      "Quantidade inválida.",
	"invalid_points":        "Quantidade de pontos inválida.",
	"invalid_recurrence":    "Recorrência inválida.",
	"invalid_movement_type": "Tipo de movimentação inválido.",
}

// StatusFor maps a business error code to its HTTP status.
func StatusFor(code string) int {
	switch {
	case strings.HasSuffix(code, "_not_found"):
		return http.StatusNotFound
	case conflictCodes[code]:
		return http.StatusConflict
	case unavailableCodes[code]:
		return http.StatusServiceUnavailable
	case code == "photo_upload_failed":
		return http.StatusBadGateway
	case code == "forbidden":
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// Render writes err as the JSON error body. Business errors keep their code,
// anything else is logged and answered with a generic 500.
func Render(c *gin.Context, err error) {
	if be, ok := AsBusiness(err); ok {
		msg := be.Message
		if msg == "" {
			msg = defaultMessages[be.Code]
		}
		if msg == "" {
			msg = "Requisição inválida."
		}
		Write(c, StatusFor(be.Code), be.Code, msg)
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("route", c.FullPath()).
		Msg("request failed")
	Internal(c, "internal_error", "Erro interno.")
}
