package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSelectAudience(t *testing.T) {
	now := date(2030, 3, 15)
	march := date(1990, 3, 2)
	june := date(1985, 6, 9)

	clients := []models.Client{
		{ID: 1, Name: "Ana", Email: "ana@example.com", BirthDate: &march},
		{ID: 2, Name: "Bia", BirthDate: &june},
		{ID: 3, Name: "Caio", Email: " "},
		{ID: 4, Name: "Duda", Email: "duda@example.com"},
	}
	visits := map[uint]time.Time{
		1: date(2030, 3, 1),
		2: date(2029, 12, 1),
		4: date(2030, 1, 14),
	}

	ids := func(cs []models.Client) []uint {
		var out []uint
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []uint{1, 2, 3, 4}, ids(SelectAudience(clients, visits, SegmentAll, 0, now)))
	assert.Equal(t, []uint{1}, ids(SelectAudience(clients, visits, SegmentBirthdayMonth, 0, now)))
	assert.Equal(t, []uint{1, 4}, ids(SelectAudience(clients, visits, SegmentWithEmail, 0, now)))
	// default 60 days: cutoff 2030-01-14, so Duda's visit that day still counts
	assert.Equal(t, []uint{2, 3}, ids(SelectAudience(clients, visits, SegmentInactive, 0, now)))
	assert.Equal(t, []uint{2, 3, 4}, ids(SelectAudience(clients, visits, SegmentInactive, 30, now)))
}

func TestPersonalize(t *testing.T) {
	msg := Personalize("Oi {primeiro_nome}! {nome}, a {barbearia} sente sua falta.",
		models.Client{Name: "Carlos Souza"}, "Barbearia Centro")
	assert.Equal(t, "Oi Carlos! Carlos Souza, a Barbearia Centro sente sua falta.", msg)
}

func TestValidate(t *testing.T) {
	ok := &models.Campaign{Name: "Volta", Template: "Oi {nome}", Channel: ChannelWhatsApp, Segment: SegmentInactive}
	assert.NoError(t, Validate(ok))

	bad := *ok
	bad.Channel = "sms"
	assert.True(t, httperr.IsBusiness(Validate(&bad), "invalid_channel"))

	bad = *ok
	bad.Segment = "vip"
	assert.True(t, httperr.IsBusiness(Validate(&bad), "invalid_segment"))

	bad = *ok
	bad.Template = "  "
	assert.True(t, httperr.IsBusiness(Validate(&bad), "invalid_campaign"))
}
