package appointment

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

// memRepo keeps one tenant day model in memory and enforces the same
// (barber, date, time) uniqueness as the partial index.
type memRepo struct {
	mu sync.Mutex

	shop     models.Barbershop
	services []models.Service
	clients  []models.Client
	roster   []models.User
	shifts   []models.StaffShift
	absences []models.StaffAbsence
	blocked  []models.BlockedSlot
	hours    map[int]*models.BusinessHours
	apps     []models.Appointment
	waitlist []models.WaitlistEntry
	notes    []models.Notification

	nextID uint

	failListAppointments error
	beforeStatusUpdate   func(r *memRepo)
}

func newMemRepo() *memRepo {
	return &memRepo{
		shop: models.Barbershop{
			ID:                  1,
			Name:                "Barbearia Centro",
			Timezone:            timezone.DefaultTimezone,
			MinAdvanceMinutes:   120,
			SlotIntervalMinutes: 30,
			Active:              true,
		},
		services: []models.Service{
			{ID: 10, BarbershopID: 1, Name: "Corte", DurationMin: 30, Price: 50, Active: true},
			{ID: 11, BarbershopID: 1, Name: "Barba", DurationMin: 20, Price: 30, Active: true},
		},
		clients: []models.Client{{ID: 100, BarbershopID: 1, Name: "Carlos", Phone: "11999990000"}},
		roster: []models.User{
			{ID: 1, BarbershopID: 1, Name: "Ana", Role: models.RoleOwner, Active: true},
			{ID: 2, BarbershopID: 1, Name: "Bruno", Role: models.RoleBarber, Active: true},
		},
		hours:  map[int]*models.BusinessHours{},
		nextID: 1000,
	}
}

func (r *memRepo) GetBarbershopByID(_ context.Context, id uint) (*models.Barbershop, error) {
	if id != r.shop.ID {
		return nil, gorm.ErrRecordNotFound
	}
	s := r.shop
	return &s, nil
}

func (r *memRepo) ListServicesByIDs(_ context.Context, _ uint, ids []uint) ([]models.Service, error) {
	var out []models.Service
	for _, s := range r.services {
		for _, id := range ids {
			if s.ID == id && s.Active {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *memRepo) GetClient(_ context.Context, _ uint, id uint) (*models.Client, error) {
	for _, c := range r.clients {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) GetOrCreateClient(_ context.Context, shopID uint, name, phone, email string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.Phone == phone {
			return &c, nil
		}
	}
	r.nextID++
	c := models.Client{ID: r.nextID, BarbershopID: shopID, Name: name, Phone: phone, Email: email}
	r.clients = append(r.clients, c)
	return &c, nil
}

func (r *memRepo) ListRoster(context.Context, uint) ([]models.User, error) {
	return append([]models.User(nil), r.roster...), nil
}

func (r *memRepo) ListShifts(context.Context, uint) ([]models.StaffShift, error) {
	return r.shifts, nil
}

func (r *memRepo) GetBusinessHours(_ context.Context, _ uint, weekday int) (*models.BusinessHours, error) {
	return r.hours[weekday], nil
}

func (r *memRepo) ListAbsencesOn(context.Context, uint, time.Time) ([]models.StaffAbsence, error) {
	return r.absences, nil
}

func (r *memRepo) ListBlockedSlotsBetween(context.Context, uint, time.Time, time.Time) ([]models.BlockedSlot, error) {
	return r.blocked, nil
}

func (r *memRepo) ListAppointmentsOn(_ context.Context, _ uint, date time.Time) ([]models.Appointment, error) {
	if r.failListAppointments != nil {
		return nil, r.failListAppointments
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.apps {
		if timezone.DateKey(ap.Date) == timezone.DateKey(date) {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *memRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ap.BarberID != nil &&
		domain.FindConflict(r.apps, *ap.BarberID, timezone.DateKey(ap.Date), ap.Time, 0) != nil {
		return httperr.ErrBusiness("time_conflict")
	}
	r.nextID++
	ap.ID = r.nextID
	r.apps = append(r.apps, *ap)
	return nil
}

func (r *memRepo) GetAppointment(_ context.Context, _ uint, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ap := range r.apps {
		if ap.ID == id {
			return &ap, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) UpdateAppointmentStatus(_ context.Context, ap *models.Appointment, from domain.Status) error {
	if r.beforeStatusUpdate != nil {
		r.beforeStatusUpdate(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.apps {
		if r.apps[i].ID == ap.ID {
			if r.apps[i].Status != string(from) {
				return httperr.ErrBusiness("invalid_state")
			}
			r.apps[i] = *ap
			return nil
		}
	}
	return httperr.ErrBusiness("invalid_state")
}

func (r *memRepo) RescheduleAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if domain.FindConflict(r.apps, *ap.BarberID, timezone.DateKey(ap.Date), ap.Time, ap.ID) != nil {
		return httperr.ErrBusiness("time_conflict")
	}
	for i := range r.apps {
		if r.apps[i].ID == ap.ID {
			r.apps[i] = *ap
			return nil
		}
	}
	return httperr.ErrBusiness("invalid_state")
}

func (r *memRepo) UpdateAppointmentNotes(_ context.Context, _ uint, id uint, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.apps {
		if r.apps[i].ID == id {
			r.apps[i].Notes = notes
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memRepo) UpdateResultPhoto(_ context.Context, _ uint, id uint, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.apps {
		if r.apps[i].ID == id {
			r.apps[i].ResultPhotoURL = url
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memRepo) DeleteAppointment(_ context.Context, _ uint, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.apps {
		if r.apps[i].ID == id {
			r.apps = append(r.apps[:i], r.apps[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memRepo) ListAppointmentsForPeriod(_ context.Context, _ uint, barberID *uint, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.apps {
		key := timezone.DateKey(ap.Date)
		if key < timezone.DateKey(start) || key >= timezone.DateKey(end) {
			continue
		}
		if barberID != nil && (ap.BarberID == nil || *ap.BarberID != *barberID) {
			continue
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *memRepo) ListWaitlistOn(_ context.Context, _ uint, date time.Time) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range r.waitlist {
		if timezone.DateKey(e.PreferredDate) == timezone.DateKey(date) && e.Status == models.WaitlistWaiting {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	r.nextID++
	n.ID = r.nextID
	r.notes = append(r.notes, *n)
	return nil
}

func (r *memRepo) find(id uint) models.Appointment {
	for _, ap := range r.apps {
		if ap.ID == id {
			return ap
		}
	}
	return models.Appointment{}
}

// seed stores an appointment directly, bypassing the use cases.
func (r *memRepo) seed(barberID uint, date, clock string, status domain.Status) models.Appointment {
	day, _ := time.Parse(timezone.DateLayout, date)
	r.nextID++
	ap := models.Appointment{
		ID:           r.nextID,
		BarbershopID: r.shop.ID,
		BarberID:     &barberID,
		ClientID:     100,
		Date:         timezone.CalendarDate(day),
		Time:         clock,
		Status:       string(status),
	}
	r.apps = append(r.apps, ap)
	return ap
}

var _ domain.Repository = (*memRepo)(nil)

// ------------------------------------------------------
// collaborators
// ------------------------------------------------------

type recorder struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (p *recorder) Publish(_ context.Context, ev realtime.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type fakePhotos struct {
	uploads int
	err     error
}

func (f *fakePhotos) Enabled() bool { return true }

func (f *fakePhotos) UploadResultPhoto(_ context.Context, _, _ uint, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.uploads++
	return "https://cdn.example.com/results/1/photo.webp", nil
}

var errBoom = errors.New("boom")
