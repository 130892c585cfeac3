package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/BruksfildServices01/barber-saas/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func newAppointment() *models.Appointment {
	barber := uint(1)
	return &models.Appointment{
		BarbershopID: 1,
		BarberID:     &barber,
		ClientID:     100,
		Date:         time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		Time:         "10:00",
		Status:       string(domain.StatusPending),
	}
}

func TestCreateAppointmentRejectsHeldSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "appointments" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barber_id", "date", "time", "status"}).
			AddRow(7, 1, time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC), "10:00", "confirmed"))
	mock.ExpectRollback()

	err := repo.CreateAppointment(context.Background(), newAppointment())
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "appointments" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: ActiveSlotIndex})
	mock.ExpectRollback()

	err := repo.CreateAppointment(context.Background(), newAppointment())
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentWrapsOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CreateAppointment(context.Background(), newAppointment())
	require.Error(t, err)
	_, isBusiness := httperr.AsBusiness(err)
	assert.False(t, isBusiness)
	assert.Contains(t, err.Error(), "repository: appointment write")
}

func TestUpdateStatusIsCompareAndSwap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentGormRepository(db)

	ap := newAppointment()
	ap.ID = 9
	ap.Status = string(domain.StatusConfirmed)

	mock.ExpectExec(`UPDATE "appointments" SET .* WHERE .*status = \$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAppointmentStatus(context.Background(), ap, domain.StatusPending)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	mock.ExpectExec(`UPDATE "appointments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateAppointmentStatus(context.Background(), ap, domain.StatusPending))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalesTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSalesGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sales"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), 1, func(tx sales.Tx) error {
		if err := tx.CreateSale(&models.Sale{Total: 50, PaymentMethod: "cash"}); err != nil {
			return err
		}
		return httperr.ErrBusinessMsg("insufficient_points", "Pontos insuficientes")
	})

	assert.True(t, httperr.IsBusiness(err, "insufficient_points"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCouponMissingIsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSalesGormRepository(db)

	mock.ExpectQuery(`SELECT .* FROM "coupons"`).
		WithArgs(uint(1), "DEZ", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, err := repo.FindCoupon(context.Background(), 1, " dez ")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSentIsCompareAndSwap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReminderGormRepository(db)
	at := time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "appointments" SET "reminder_sent_at"=.* WHERE id = .* AND reminder_sent_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "appointments" SET "reminder_sent_at"=.* WHERE id = .* AND reminder_sent_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkReminderSent(context.Background(), 10, at)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkReminderSent(context.Background(), 10, at)
	require.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleServicesExcludeDeactivated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSalesGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "services" WHERE barbershop_id = \$1 AND id IN \(\$2\) AND active = \$3`).
		WithArgs(uint(1), uint(10), true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := repo.WithTx(context.Background(), 1, func(tx sales.Tx) error {
		services, err := tx.ListServices([]uint{10})
		if err != nil {
			return err
		}
		assert.Empty(t, services)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
