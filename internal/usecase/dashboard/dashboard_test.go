package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

type countingRepo struct {
	mu    sync.Mutex
	loads map[uint]int
	from  string
}

func (r *countingRepo) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	return &models.Barbershop{ID: id, Timezone: timezone.DefaultTimezone}, nil
}

func (r *countingRepo) CountAppointmentsByStatus(_ context.Context, id uint, _ time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads[id]++
	return map[string]int{"confirmed": 2, "pending": 1}, nil
}

func (r *countingRepo) SumAppointmentRevenue(_ context.Context, _ uint, _ time.Time, statuses []string) (float64, error) {
	if len(statuses) == 1 {
		return 50, nil
	}
	return 150, nil
}

func (r *countingRepo) SumSales(context.Context, uint, time.Time, time.Time) (float64, error) {
	return 35, nil
}

func (r *countingRepo) CountNewClients(context.Context, uint, time.Time, time.Time) (int64, error) {
	return 1, nil
}

func (r *countingRepo) ListNextAppointments(_ context.Context, _ uint, _ time.Time, from string, _ int) ([]models.Appointment, error) {
	r.mu.Lock()
	r.from = from
	r.mu.Unlock()
	return []models.Appointment{{ID: 9, Time: "15:00", Status: "confirmed"}}, nil
}

func (r *countingRepo) loadsOf(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[id]
}

func newService(repo *countingRepo) *Service {
	s := NewService(repo, time.Minute)
	s.now = func() time.Time {
		return time.Date(2030, 1, 7, 14, 30, 0, 0, timezone.Location(timezone.DefaultTimezone))
	}
	return s
}

func TestStatsAreCachedPerTenantAndDay(t *testing.T) {
	repo := &countingRepo{loads: map[uint]int{}}
	svc := newService(repo)
	ctx := context.Background()

	st, err := svc.Stats(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", st.Date)
	assert.Equal(t, 150.0, st.ExpectedRevenue)
	assert.Equal(t, 50.0, st.CompletedRevenue)
	assert.Equal(t, 35.0, st.SalesTotal)
	assert.Equal(t, int64(1), st.NewClients)
	require.Len(t, st.Next, 1)
	assert.Equal(t, "14:30", repo.from)

	_, err = svc.Stats(ctx, 1, "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loadsOf(1))

	_, err = svc.Stats(ctx, 1, "2030-01-08")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loadsOf(1))
	assert.Equal(t, "00:00", repo.from)

	_, err = svc.Stats(ctx, 1, "07-01-2030")
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))
}

func TestInvalidateOnlyTouchesOneTenant(t *testing.T) {
	repo := &countingRepo{loads: map[uint]int{}}
	svc := newService(repo)
	ctx := context.Background()

	_, _ = svc.Stats(ctx, 1, "2030-01-07")
	_, _ = svc.Stats(ctx, 1, "2030-01-08")
	_, _ = svc.Stats(ctx, 11, "2030-01-07")

	svc.Invalidate(1)

	_, _ = svc.Stats(ctx, 1, "2030-01-07")
	_, _ = svc.Stats(ctx, 1, "2030-01-08")
	_, _ = svc.Stats(ctx, 11, "2030-01-07")

	assert.Equal(t, 4, repo.loadsOf(1))
	assert.Equal(t, 1, repo.loadsOf(11))
}

func TestChangeFeedInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	broker := realtime.NewBroker(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := broker.SubscribeAll(ctx)
	require.NoError(t, err)

	repo := &countingRepo{loads: map[uint]int{}}
	svc := newService(repo)
	go svc.Listen(events)

	_, err = svc.Stats(ctx, 1, "2030-01-07")
	require.NoError(t, err)

	// Another tenant's write leaves our entry alone.
	require.NoError(t, broker.Publish(ctx, realtime.ChangeEvent{
		Type: realtime.EventInsert, Table: realtime.TableSales, TenantID: 2, RecordID: 1,
	}))
	time.Sleep(100 * time.Millisecond)
	_, _ = svc.Stats(ctx, 1, "2030-01-07")
	assert.Equal(t, 1, repo.loadsOf(1))

	require.NoError(t, broker.Publish(ctx, realtime.ChangeEvent{
		Type: realtime.EventInsert, Table: realtime.TableAppointments, TenantID: 1, RecordID: 2,
	}))
	assert.Eventually(t, func() bool {
		_, ok := svc.cache.Get(tenantPrefix(1) + "2030-01-07")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	_, _ = svc.Stats(ctx, 1, "2030-01-07")
	assert.Equal(t, 2, repo.loadsOf(1))
}
