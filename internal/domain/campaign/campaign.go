package campaign

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

const (
	SegmentAll           = "all"
	SegmentBirthdayMonth = "birthday_month"
	SegmentInactive      = "inactive"
	SegmentWithEmail     = "with_email"
)

const (
	StatusDraft   = "draft"
	StatusSending = "sending"
	StatusSent    = "sent"
)

const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

const DefaultInactiveDays = 60

func ValidChannel(c string) bool {
	return c == ChannelEmail || c == ChannelWhatsApp
}

func ValidSegment(s string) bool {
	switch s {
	case SegmentAll, SegmentBirthdayMonth, SegmentInactive, SegmentWithEmail:
		return true
	}
	return false
}

// Validate checks a campaign before it is stored.
func Validate(c *models.Campaign) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Template) == "" {
		return httperr.ErrBusinessMsg("invalid_campaign", "Nome e mensagem são obrigatórios")
	}
	if !ValidChannel(c.Channel) {
		return httperr.ErrBusinessMsg("invalid_channel", "Canal inválido")
	}
	if !ValidSegment(c.Segment) {
		return httperr.ErrBusinessMsg("invalid_segment", "Segmento inválido")
	}
	if c.InactiveDays < 0 {
		return httperr.ErrBusinessMsg("invalid_segment", "Segmento inválido")
	}
	return nil
}

// SelectAudience filters clients by segment. lastVisit maps client id to
// the date of their latest appointment; clients missing from it never came.
func SelectAudience(
	clients []models.Client,
	lastVisit map[uint]time.Time,
	segment string,
	inactiveDays int,
	now time.Time,
) []models.Client {

	if inactiveDays <= 0 {
		inactiveDays = DefaultInactiveDays
	}
	cutoff := now.AddDate(0, 0, -inactiveDays)

	out := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		switch segment {
		case SegmentBirthdayMonth:
			if c.BirthDate == nil || c.BirthDate.Month() != now.Month() {
				continue
			}
		case SegmentInactive:
			if last, ok := lastVisit[c.ID]; ok && !last.Before(cutoff) {
				continue
			}
		case SegmentWithEmail:
			if strings.TrimSpace(c.Email) == "" {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Personalize fills {nome}, {primeiro_nome} and {barbearia}.
func Personalize(template string, client models.Client, shopName string) string {
	first := client.Name
	if f := strings.Fields(client.Name); len(f) > 0 {
		first = f[0]
	}
	return strings.NewReplacer(
		"{nome}", client.Name,
		"{primeiro_nome}", first,
		"{barbearia}", shopName,
	).Replace(template)
}
