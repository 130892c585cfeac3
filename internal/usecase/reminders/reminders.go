package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/notify"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

const NotificationReminder = "reminder"

type Repository interface {
	ListActiveBarbershops(ctx context.Context) ([]models.Barbershop, error)
	// ListDueReminders returns pending/confirmed appointments dated in
	// [from, to] whose reminder was not sent yet, with client and barber.
	ListDueReminders(ctx context.Context, barbershopID uint, from, to time.Time) ([]models.Appointment, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	// MarkReminderSent stamps the appointment if nobody did yet. False means
	// another run already owns the reminder.
	MarkReminderSent(ctx context.Context, appointmentID uint, at time.Time) (bool, error)
	// ClearReminderSent drops the stamp so the next run retries.
	ClearReminderSent(ctx context.Context, appointmentID uint) error
}

type Report struct {
	Tenants     int `json:"tenants"`
	Reminded    int `json:"reminded"`
	Emailed     int `json:"emailed"`
	EmailFailed int `json:"email_failed"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
}

// SendReminders notifies today's and tomorrow's appointments once.
type SendReminders struct {
	repo   Repository
	email  notify.EmailSender
	events realtime.Publisher
	now    func() time.Time
}

func NewSendReminders(repo Repository, email notify.EmailSender, events realtime.Publisher) *SendReminders {
	return &SendReminders{repo: repo, email: email, events: events, now: time.Now}
}

func (uc *SendReminders) Execute(ctx context.Context) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	shops, err := uc.repo.ListActiveBarbershops(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminders: list barbershops: %w", err)
	}

	rep := &Report{}
	for i := range shops {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Tenants++
		uc.runTenant(ctx, &shops[i], rep)
	}

	logger.Info().
		Int("tenants", rep.Tenants).
		Int("reminded", rep.Reminded).
		Int("emailed", rep.Emailed).
		Int("email_failed", rep.EmailFailed).
		Int("skipped", rep.Skipped).
		Msg("reminders sent")

	return rep, nil
}

func (uc *SendReminders) runTenant(ctx context.Context, shop *models.Barbershop, rep *Report) {
	logger := zerolog.Ctx(ctx).With().Uint("barbershop_id", shop.ID).Logger()

	today := timezone.StartOfDay(uc.now().In(timezone.Location(shop.Timezone)))
	tomorrow := today.AddDate(0, 0, 1)

	apps, err := uc.repo.ListDueReminders(ctx, shop.ID, today, tomorrow)
	if err != nil {
		logger.Error().Err(err).Msg("reminders: list due appointments failed")
		rep.Failed++
		return
	}

	for i := range apps {
		ap := &apps[i]

		// the stamp is the claim: only the run that sets it sends anything
		claimed, err := uc.repo.MarkReminderSent(ctx, ap.ID, uc.now())
		if err != nil {
			logger.Error().Err(err).Uint("appointment_id", ap.ID).Msg("reminders: claim failed")
			rep.Failed++
			continue
		}
		if !claimed {
			rep.Skipped++
			continue
		}

		apID := ap.ID
		n := &models.Notification{
			BarbershopID:  shop.ID,
			UserID:        ap.BarberID,
			AppointmentID: &apID,
			Type:          NotificationReminder,
			Title:         "Lembrete de agendamento",
			Message:       reminderText(shop, ap),
		}
		if err := uc.repo.CreateNotification(ctx, n); err != nil {
			logger.Error().Err(err).Uint("appointment_id", ap.ID).Msg("reminders: notification failed")
			rep.Failed++
			if err := uc.repo.ClearReminderSent(ctx, ap.ID); err != nil {
				logger.Error().Err(err).Uint("appointment_id", ap.ID).Msg("reminders: release failed")
			}
			continue
		}
		realtime.Emit(ctx, uc.events, realtime.EventInsert, realtime.TableNotifications, shop.ID, n.ID)

		uc.sendEmail(ctx, logger, shop, ap, rep)
		rep.Reminded++
	}
}

// sendEmail is best effort: a failure is counted and logged only.
func (uc *SendReminders) sendEmail(
	ctx context.Context,
	logger zerolog.Logger,
	shop *models.Barbershop,
	ap *models.Appointment,
	rep *Report,
) {
	if uc.email == nil || strings.TrimSpace(ap.Client.Email) == "" {
		return
	}

	err := uc.email.Send(ctx, notify.EmailMessage{
		To:      ap.Client.Email,
		ToName:  ap.Client.Name,
		Subject: fmt.Sprintf("Lembrete: %s", shop.Name),
		Body:    reminderText(shop, ap),
	})
	if err != nil {
		rep.EmailFailed++
		metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
		logger.Warn().Err(err).Uint("appointment_id", ap.ID).Msg("reminders: email failed")
		return
	}
	rep.Emailed++
	metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
}

func reminderText(shop *models.Barbershop, ap *models.Appointment) string {
	who := ""
	if ap.Barber != nil {
		who = " com " + ap.Barber.Name
	}
	return fmt.Sprintf(
		"Olá %s, lembrete do seu horário na %s em %s às %s%s.",
		firstName(ap.Client.Name), shop.Name, ap.Date.Format("02/01/2006"), ap.Time, who,
	)
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return full
}
