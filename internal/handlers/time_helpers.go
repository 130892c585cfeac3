package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/models"
	"github.com/BruksfildServices01/barber-saas/internal/timezone"
)

func loadShop(ctx context.Context, db *gorm.DB, id uint) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// findShop resolves the public ":shop" segment, a numeric id or a slug.
func findShop(ctx context.Context, db *gorm.DB, ref string) (*models.Barbershop, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))

	q := db.WithContext(ctx)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", ref)
	}

	var shop models.Barbershop
	if err := q.First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func locationFromShop(shop *models.Barbershop) *time.Location {
	if shop == nil {
		return timezone.Location(timezone.DefaultTimezone)
	}
	return timezone.Location(shop.Timezone)
}

func todayInShop(shop *models.Barbershop) string {
	return timezone.DateKey(time.Now().In(locationFromShop(shop)))
}

// parseDateInShop returns the calendar date stored in date columns.
func parseDateInShop(shop *models.Barbershop, dateStr string) (time.Time, error) {
	d, err := timezone.ParseDate(dateStr, locationFromShop(shop))
	if err != nil {
		return time.Time{}, err
	}
	return timezone.CalendarDate(d), nil
}

func parseDateTimeInShop(shop *models.Barbershop, dateStr, clock string) (time.Time, error) {
	return timezone.ParseDateTime(dateStr, clock, locationFromShop(shop))
}
