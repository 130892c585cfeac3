package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
)

const sseHeartbeat = 25 * time.Second

// Subscriber is the read side of the change feed.
type Subscriber interface {
	Subscribe(ctx context.Context, tenantID uint, tables ...string) (<-chan realtime.ChangeEvent, error)
}

type RealtimeHandler struct {
	feed Subscriber
}

func NewRealtimeHandler(feed Subscriber) *RealtimeHandler {
	return &RealtimeHandler{feed: feed}
}

// Stream pushes the tenant's change events as Server-Sent Events until the
// client goes away. Accepts ?tables=appointments,clients.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.feed == nil {
		httperr.Write(c, http.StatusServiceUnavailable, "realtime_unavailable", "Atualizações em tempo real indisponíveis.")
		return
	}

	var tables []string
	if s := c.Query("tables"); s != "" {
		for _, t := range strings.Split(s, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
	}

	ctx := c.Request.Context()
	events, err := h.feed.Subscribe(ctx, tenantID(c), tables...)
	if err != nil {
		httperr.Render(c, err)
		return
	}

	zerolog.Ctx(ctx).Debug().Uint("barbershop_id", tenantID(c)).Msg("realtime stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}
