package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusinessThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create: %w", ErrBusinessMsg("coupon_expired", "Cupom expirado"))

	assert.True(t, IsBusiness(err, "coupon_expired"))
	assert.False(t, IsBusiness(err, "coupon_invalid"))
	assert.False(t, IsBusiness(errors.New("boom"), "coupon_expired"))

	be, ok := AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, "Cupom expirado", be.Message)
	assert.Equal(t, "coupon_expired: Cupom expirado", be.Error())
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_appointments_active_slot"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "ux_appointments_active_slot"))
	assert.False(t, IsUniqueViolation(err, "ux_clients_phone"))
	assert.False(t, IsUniqueViolation(errors.New("x"), ""))
	assert.True(t, IsExclusionConflict(&pgconn.PgError{Code: "23P01"}))
}

func TestWriteBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, "time_conflict", "Conflito de horário.")

	assert.Equal(t, http.StatusConflict, w.Code)
	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "time_conflict", body.Code)
	assert.Equal(t, "Conflito de horário.", body.Message)
}

func TestRenderMapsCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{ErrBusinessMsg("client_not_found", "Cliente não encontrado"), http.StatusNotFound, "client_not_found", "Cliente não encontrado"},
		{ErrBusiness("time_conflict"), http.StatusConflict, "time_conflict", "Conflito de horário."},
		{ErrBusiness("payments_unavailable"), http.StatusServiceUnavailable, "payments_unavailable", "Requisição inválida."},
		{fmt.Errorf("wrap: %w", ErrBusiness("invalid_state")), http.StatusBadRequest, "invalid_state", "Operação não permitida para o status atual."},
		{errors.New("db down"), http.StatusInternalServerError, "internal_error", "Erro interno."},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		Render(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.code)
		var body HTTPError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.msg, body.Message)
	}
}
