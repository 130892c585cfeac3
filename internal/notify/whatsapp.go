package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var ErrInvalidPhone = errors.New("notify: invalid phone number")

type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// MessageCreator is the Twilio call used to send a message.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioWhatsApp struct {
	api  MessageCreator
	from string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// NewTwilioWhatsApp returns nil when Twilio is not configured.
func NewTwilioWhatsApp(cfg TwilioConfig) *TwilioWhatsApp {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewTwilioWhatsAppWith(client.Api, cfg.FromNumber)
}

func NewTwilioWhatsAppWith(api MessageCreator, from string) *TwilioWhatsApp {
	return &TwilioWhatsApp{api: api, from: from}
}

// SendWhatsApp has no context aware variant in the Twilio SDK; ctx is only
// checked before the call.
func (s *TwilioWhatsApp) SendWhatsApp(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	phone, err := NormalizePhoneBR(to)
	if err != nil {
		return err
	}
	from, err := NormalizePhoneBR(s.from)
	if err != nil {
		return fmt.Errorf("notify: sender number: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("notify: twilio send: %w", err)
	}

	ev := log.Info().Str("to", phone)
	if resp != nil && resp.Sid != nil {
		ev = ev.Str("sid", *resp.Sid)
	}
	ev.Msg("whatsapp sent via twilio")
	return nil
}

// NormalizePhoneBR returns an E.164 number. Numbers without a country code
// are taken as Brazilian (DDD + number).
func NormalizePhoneBR(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	hasPlus := strings.HasPrefix(raw, "+")

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	switch {
	case hasPlus && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	case !hasPlus && (len(digits) == 10 || len(digits) == 11):
		return "+55" + digits, nil
	case !hasPlus && strings.HasPrefix(digits, "55") && (len(digits) == 12 || len(digits) == 13):
		return "+" + digits, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
}

var _ WhatsAppSender = (*TwilioWhatsApp)(nil)
