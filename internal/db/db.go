package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/barber-saas/internal/config"
	"github.com/BruksfildServices01/barber-saas/internal/infra/repository"
	"github.com/BruksfildServices01/barber-saas/internal/models"
)

func NewDB(cfg *config.Config) *gorm.DB {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormLogger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	return db
}

// Migrate creates the schema plus the indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Barbershop{},
		&models.User{},
		&models.Service{},
		&models.BusinessHours{},
		&models.StaffShift{},
		&models.StaffAbsence{},
		&models.BlockedSlot{},
		&models.Client{},
		&models.Appointment{},
		&models.WaitlistEntry{},
		&models.Notification{},
		&models.Campaign{},
		&models.CampaignDelivery{},
		&models.Product{},
		&models.StockMovement{},
		&models.Coupon{},
		&models.Sale{},
		&models.SaleItem{},
		&models.LoyaltyTransaction{},
		&models.PlatformSubscription{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("db: automigrate: %w", err)
	}

	// one active appointment per (barber, date, time)
	if err := db.Exec(fmt.Sprintf(`
        CREATE UNIQUE INDEX IF NOT EXISTS %s
        ON appointments (barber_id, date, time)
        WHERE status IN ('pending', 'confirmed', 'completed') AND barber_id IS NOT NULL
    `, repository.ActiveSlotIndex)).Error; err != nil {
		return fmt.Errorf("db: active slot index: %w", err)
	}

	if err := db.Exec(`
        UPDATE barbershops
        SET timezone = 'America/Sao_Paulo'
        WHERE timezone IS NULL OR timezone = ''
    `).Error; err != nil {
		return fmt.Errorf("db: default timezone: %w", err)
	}

	return nil
}
