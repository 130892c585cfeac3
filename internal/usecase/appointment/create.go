package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

const (
	SourceStaff  = "staff"
	SourcePublic = "public"
)

const defaultMinAdvance = 120 * time.Minute

type CreateAppointmentInput struct {
	BarbershopID uint
	ActorID      *uint
	Source       string

	BarberID *uint

	ClientID    *uint
	ClientName  string
	ClientPhone string
	ClientEmail string

	ServiceIDs []uint
	Date       string
	Time       string
	Notes      string

	// Confirm is honoured for staff bookings only.
	Confirm bool

	Recurrence    domain.Recurrence
	RecurrenceEnd string
}

// SkippedOccurrence is a recurring date that could not be booked.
type SkippedOccurrence struct {
	Date    string `json:"date"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

type CreateAppointmentResult struct {
	Appointments    []models.Appointment `json:"appointments"`
	Skipped         []SkippedOccurrence  `json:"skipped"`
	RecurrenceGroup string               `json:"recurrence_group,omitempty"`
}

type CreateAppointment struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	events realtime.Publisher
	now    func() time.Time
}

func NewCreateAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	events realtime.Publisher,
) *CreateAppointment {
	return &CreateAppointment{
		repo:   repo,
		audit:  audit,
		events: events,
		now:    time.Now,
	}
}

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*CreateAppointmentResult, error) {

	if in.Source == "" {
		in.Source = SourceStaff
	}

	// ======================================================
	// Barbershop
	// ======================================================
	shop, err := uc.repo.GetBarbershopByID(ctx, in.BarbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}
	if !shop.Active {
		return nil, httperr.ErrBusinessMsg("barbershop_inactive", "Barbearia indisponível")
	}

	loc := timezone.Location(shop.Timezone)

	// ======================================================
	// Date / time
	// ======================================================
	if !domain.ValidClock(in.Time) {
		return nil, httperr.ErrBusinessMsg("invalid_date_or_time", "Data ou horário inválido")
	}
	start, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date_or_time", "Data ou horário inválido")
	}

	dates := []time.Time{start}
	if in.Recurrence != domain.RecurrenceNone {
		until, err := timezone.ParseDate(in.RecurrenceEnd, loc)
		if err != nil {
			return nil, httperr.ErrBusinessMsg("invalid_recurrence", "Recorrência inválida")
		}
		if dates, err = domain.ExpandRecurrence(start, in.Recurrence, until); err != nil {
			return nil, err
		}
	}

	// ======================================================
	// Services
	// ======================================================
	services, err := uc.loadServices(ctx, shop.ID, in.ServiceIDs)
	if err != nil {
		return nil, err
	}

	// ======================================================
	// Client
	// ======================================================
	client, err := uc.resolveClient(ctx, shop.ID, in)
	if err != nil {
		return nil, err
	}

	// ======================================================
	// Occurrences
	// ======================================================
	status := domain.InitialStatus(
		(in.Source == SourceStaff && in.Confirm) ||
			(in.Source == SourcePublic && shop.AutoConfirm),
	)

	res := &CreateAppointmentResult{
		Appointments: []models.Appointment{},
		Skipped:      []SkippedOccurrence{},
	}
	if len(dates) > 1 {
		res.RecurrenceGroup = uuid.NewString()
	}

	now := uc.now()
	for _, day := range dates {
		ap, err := uc.book(ctx, shop, day, in, client, services, status, res.RecurrenceGroup, now)
		if err == nil {
			res.Appointments = append(res.Appointments, *ap)
			continue
		}

		be, ok := httperr.AsBusiness(err)
		if !ok || len(dates) == 1 {
			return nil, err
		}
		res.Skipped = append(res.Skipped, SkippedOccurrence{
			Date:    timezone.DateKey(day),
			Code:    be.Code,
			Message: be.Message,
		})
	}

	if len(res.Appointments) == 0 {
		metrics.BookingConflicts.Inc()
		return nil, httperr.ErrBusinessMsg("time_conflict", "Nenhuma ocorrência disponível")
	}

	zerolog.Ctx(ctx).Info().
		Uint("barbershop_id", shop.ID).
		Int("created", len(res.Appointments)).
		Int("skipped", len(res.Skipped)).
		Str("source", in.Source).
		Msg("appointments created")

	return res, nil
}

// book creates one occurrence. Every error it returns for a bad slot is a
// business error so recurring requests can skip it.
func (uc *CreateAppointment) book(
	ctx context.Context,
	shop *models.Barbershop,
	day time.Time,
	in CreateAppointmentInput,
	client *models.Client,
	services []models.Service,
	status domain.Status,
	group string,
	now time.Time,
) (*models.Appointment, error) {

	at, err := timezone.ParseDateTime(timezone.DateKey(day), in.Time, day.Location())
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date_or_time", "Data ou horário inválido")
	}
	if at.Before(now) {
		return nil, httperr.ErrBusinessMsg("past_time", "Horário já passou")
	}
	if in.Source == SourcePublic {
		advance := time.Duration(shop.MinAdvanceMinutes) * time.Minute
		if advance <= 0 {
			advance = defaultMinAdvance
		}
		if at.Before(now.Add(advance)) {
			return nil, httperr.ErrBusinessMsg("too_soon", "Antecedência mínima não respeitada")
		}
	}

	barber, err := resolveBarber(ctx, uc.repo, shop, day, in.Time, in.BarberID, 0)
	if err != nil {
		return nil, err
	}

	barberID := barber.ID
	ap := &models.Appointment{
		BarbershopID:    shop.ID,
		BarberID:        &barberID,
		ClientID:        client.ID,
		Services:        services,
		Date:            timezone.CalendarDate(day),
		Time:            in.Time,
		Status:          string(status),
		Source:          in.Source,
		Notes:           strings.TrimSpace(in.Notes),
		RecurrenceType:  string(in.Recurrence),
		RecurrenceGroup: group,
	}
	for _, s := range services {
		ap.TotalPrice += s.Price
		ap.TotalDurationMin += s.DurationMin
	}
	if status == domain.StatusConfirmed {
		confirmedAt := now
		ap.ConfirmedAt = &confirmedAt
	}
	if in.Recurrence != domain.RecurrenceNone {
		if until, err := timezone.ParseDate(in.RecurrenceEnd, day.Location()); err == nil {
			end := timezone.CalendarDate(until)
			ap.RecurrenceEndDate = &end
		}
	}

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		if httperr.IsBusiness(err, "time_conflict") {
			metrics.BookingConflicts.Inc()
			return nil, httperr.ErrBusinessMsg("time_conflict", "Horário já reservado")
		}
		return nil, err
	}
	ap.Client = *client
	ap.Barber = barber

	metrics.AppointmentsCreated.WithLabelValues(in.Source).Inc()

	uc.audit.Dispatch(audit.Event{
		BarbershopID: shop.ID,
		UserID:       in.ActorID,
		Action:       "appointment_created",
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata: map[string]any{
			"date":   timezone.DateKey(day),
			"time":   ap.Time,
			"source": ap.Source,
		},
	})
	realtime.Emit(ctx, uc.events, realtime.EventInsert, realtime.TableAppointments, shop.ID, ap.ID)

	return ap, nil
}

func (uc *CreateAppointment) loadServices(
	ctx context.Context,
	barbershopID uint,
	ids []uint,
) ([]models.Service, error) {

	if len(ids) == 0 {
		return nil, httperr.ErrBusinessMsg("service_required", "Selecione ao menos um serviço")
	}

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	services, err := uc.repo.ListServicesByIDs(ctx, barbershopID, unique)
	if err != nil {
		return nil, err
	}
	if len(services) != len(unique) {
		return nil, httperr.ErrBusinessMsg("service_not_found", "Serviço não encontrado")
	}
	return services, nil
}

func (uc *CreateAppointment) resolveClient(
	ctx context.Context,
	barbershopID uint,
	in CreateAppointmentInput,
) (*models.Client, error) {

	if in.ClientID != nil {
		client, err := uc.repo.GetClient(ctx, barbershopID, *in.ClientID)
		if err != nil {
			return nil, httperr.ErrBusinessMsg("client_not_found", "Cliente não encontrado")
		}
		return client, nil
	}

	name := strings.TrimSpace(in.ClientName)
	phone := strings.TrimSpace(in.ClientPhone)
	if name == "" || phone == "" {
		return nil, httperr.ErrBusinessMsg("client_required", "Informe nome e telefone do cliente")
	}

	client, err := uc.repo.GetOrCreateClient(ctx, barbershopID, name, phone, strings.TrimSpace(in.ClientEmail))
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, uc.events, realtime.EventInsert, realtime.TableClients, barbershopID, client.ID)
	return client, nil
}
