package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-saas/internal/models"
)

func TestFindConflict(t *testing.T) {
	existing := models.Appointment{
		ID:       7,
		BarberID: uptr(1),
		Date:     calendar(2024, 1, 8),
		Time:     "10:00",
		Status:   string(StatusConfirmed),
	}
	apps := []models.Appointment{existing}

	got := FindConflict(apps, 1, "2024-01-08", "10:00", 0)
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.ID)

	assert.Nil(t, FindConflict(apps, 2, "2024-01-08", "10:00", 0), "other barber")
	assert.Nil(t, FindConflict(apps, 1, "2024-01-08", "10:30", 0), "other time")
	assert.Nil(t, FindConflict(apps, 1, "2024-01-08", "10:00", 7), "rescheduling itself")

	apps[0].Status = string(StatusCancelled)
	assert.Nil(t, FindConflict(apps, 1, "2024-01-08", "10:00", 0))
}

func TestBlocksSlotIgnoresUnassigned(t *testing.T) {
	ap := models.Appointment{Date: calendar(2024, 1, 8), Time: "10:00", Status: string(StatusPending)}
	assert.False(t, BlocksSlot(ap, 1, "2024-01-08", "10:00"))
}
