package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/barber-saas/internal/dto"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/metrics"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

const (
	DefaultTTL     = 5 * time.Minute
	nextAppsLimit  = 5
	cacheKeyPrefix = "dash:"
)

type Repository interface {
	GetBarbershopByID(ctx context.Context, id uint) (*models.Barbershop, error)
	CountAppointmentsByStatus(ctx context.Context, barbershopID uint, day time.Time) (map[string]int, error)
	SumAppointmentRevenue(ctx context.Context, barbershopID uint, day time.Time, statuses []string) (float64, error)
	SumSales(ctx context.Context, barbershopID uint, start, end time.Time) (float64, error)
	CountNewClients(ctx context.Context, barbershopID uint, start, end time.Time) (int64, error)
	ListNextAppointments(ctx context.Context, barbershopID uint, day time.Time, fromClock string, limit int) ([]models.Appointment, error)
}

type Stats struct {
	Date             string                   `json:"date"`
	ByStatus         map[string]int           `json:"appointments_by_status"`
	ExpectedRevenue  float64                  `json:"expected_revenue"`
	CompletedRevenue float64                  `json:"completed_revenue"`
	SalesTotal       float64                  `json:"sales_total"`
	NewClients       int64                    `json:"new_clients"`
	Next             []dto.AppointmentListDTO `json:"next_appointments"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// Service serves per tenant, per day stats from a short lived cache. Change
// events drop the tenant's entries so the next read reloads them.
type Service struct {
	repo  Repository
	cache *cache.Cache
	now   func() time.Time
}

func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

func tenantPrefix(barbershopID uint) string {
	return fmt.Sprintf("%s%d:", cacheKeyPrefix, barbershopID)
}

func (s *Service) Stats(ctx context.Context, barbershopID uint, date string) (*Stats, error) {
	shop, err := s.repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, httperr.ErrBusiness("barbershop_not_found")
	}

	loc := timezone.Location(shop.Timezone)
	now := s.now().In(loc)
	if date == "" {
		date = timezone.DateKey(now)
	}
	day, err := timezone.ParseDate(date, loc)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("invalid_date", "Data inválida")
	}

	key := tenantPrefix(barbershopID) + date
	if v, ok := s.cache.Get(key); ok {
		metrics.DashboardCache.WithLabelValues("hit").Inc()
		return v.(*Stats), nil
	}
	metrics.DashboardCache.WithLabelValues("miss").Inc()

	stats, err := s.load(ctx, barbershopID, day, now)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, stats)
	return stats, nil
}

func (s *Service) load(ctx context.Context, barbershopID uint, day, now time.Time) (*Stats, error) {
	st := &Stats{Date: timezone.DateKey(day), GeneratedAt: now}
	var err error

	if st.ByStatus, err = s.repo.CountAppointmentsByStatus(ctx, barbershopID, day); err != nil {
		return nil, err
	}
	if st.ExpectedRevenue, err = s.repo.SumAppointmentRevenue(ctx, barbershopID, day,
		[]string{"pending", "confirmed", "completed"}); err != nil {
		return nil, err
	}
	if st.CompletedRevenue, err = s.repo.SumAppointmentRevenue(ctx, barbershopID, day,
		[]string{"completed"}); err != nil {
		return nil, err
	}

	end := day.AddDate(0, 0, 1)
	if st.SalesTotal, err = s.repo.SumSales(ctx, barbershopID, day, end); err != nil {
		return nil, err
	}
	if st.NewClients, err = s.repo.CountNewClients(ctx, barbershopID, day, end); err != nil {
		return nil, err
	}

	// Future days list from the opening; today lists from now.
	from := "00:00"
	if timezone.DateKey(day) == timezone.DateKey(now) {
		from = now.Format(timezone.ClockLayout)
	} else if day.Before(now) {
		from = "24:00"
	}
	next, err := s.repo.ListNextAppointments(ctx, barbershopID, day, from, nextAppsLimit)
	if err != nil {
		return nil, err
	}
	st.Next = make([]dto.AppointmentListDTO, 0, len(next))
	for _, ap := range next {
		st.Next = append(st.Next, dto.NewAppointmentListDTO(ap))
	}

	return st, nil
}

// Invalidate drops every cached day of one tenant.
func (s *Service) Invalidate(barbershopID uint) {
	prefix := tenantPrefix(barbershopID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

// Listen invalidates on every change event until events closes.
func (s *Service) Listen(events <-chan realtime.ChangeEvent) {
	for ev := range events {
		s.Invalidate(ev.TenantID)
		log.Debug().
			Uint("tenant_id", ev.TenantID).
			Str("table", ev.Table).
			Msg("dashboard cache invalidated")
	}
}
