package notify

import (
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/barber-saas/internal/config"
)

// NewEmailSenderFromConfig picks the provider named by EMAIL_PROVIDER and
// falls back to the stub when it is missing its credentials.
func NewEmailSenderFromConfig(cfg *config.Config) EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}); s != nil {
			return s
		}
		log.Warn().Msg("SENDGRID_API_KEY missing, using stub email sender")

	case "ses":
		sesCfg := SESConfig{
			Region:    cfg.SESRegion,
			AccessKey: cfg.SESAccessKey,
			SecretKey: cfg.SESSecretKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}
		return NewSESSender(NewSESClient(sesCfg), sesCfg)
	}

	return &StubEmailSender{}
}

// NewWhatsAppFromConfig returns nil when Twilio is not configured.
func NewWhatsAppFromConfig(cfg *config.Config) WhatsAppSender {
	s := NewTwilioWhatsApp(TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioWhatsAppNum,
	})
	if s == nil {
		return nil
	}
	return s
}
