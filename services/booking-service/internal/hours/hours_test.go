package hours

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

func weekday(open, close string) model.BusinessHours {
	return model.BusinessHours{DayOfWeek: 1, IsOpen: true, OpenTime: open, CloseTime: close}
}

func TestIsOpen(t *testing.T) {
	assert.False(t, IsOpen(model.BusinessHours{}, false), "absent row is closed")
	assert.False(t, IsOpen(model.BusinessHours{IsOpen: false}, true))
	assert.True(t, IsOpen(weekday("09:00", "17:00"), true))
}

func TestContains(t *testing.T) {
	h := weekday("09:00", "17:00")
	day := func(hh, mm int) time.Time { return time.Date(2026, 3, 2, hh, mm, 0, 0, time.UTC) }

	assert.True(t, Contains(h, day(9, 0), day(10, 0), time.UTC))
	assert.True(t, Contains(h, day(16, 0), day(17, 0), time.UTC), "ending exactly at close is allowed")
	assert.False(t, Contains(h, day(8, 30), day(9, 30), time.UTC))
	assert.False(t, Contains(h, day(16, 30), day(17, 30), time.UTC))

	late := weekday("20:00", "23:59")
	assert.False(t, Contains(late, day(23, 30), day(23, 30).Add(time.Hour), time.UTC), "end on next date is outside")
}

func TestWindowAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	h := model.BusinessHours{DayOfWeek: 0, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}

	sat := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	sun := time.Date(2026, 3, 8, 12, 0, 0, 0, ny)

	w, err := Window(h, sat, ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC), w.Start.UTC(), "EST is UTC-5")

	w, err = Window(h, sun, ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 8, 13, 0, 0, 0, time.UTC), w.Start.UTC(), "EDT is UTC-4")
	assert.Equal(t, 8*time.Hour, w.End.Sub(w.Start))

	assert.Equal(t, 0, Weekday(sun, ny))
	// 02:30 UTC on Monday is still Sunday evening in New York.
	assert.Equal(t, 0, Weekday(time.Date(2026, 3, 9, 2, 30, 0, 0, time.UTC), ny))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(weekday("09:00", "17:00")))
	assert.NoError(t, Validate(model.BusinessHours{DayOfWeek: 6, IsOpen: false}))
	assert.ErrorIs(t, Validate(model.BusinessHours{DayOfWeek: 7}), ErrInvalidDay)
	assert.ErrorIs(t, Validate(weekday("9:00", "17:00")), ErrInvalidTime)
	assert.ErrorIs(t, Validate(weekday("17:00", "09:00")), ErrInvalidRange)
	assert.ErrorIs(t, Validate(weekday("09:00", "09:00")), ErrInvalidRange)
}

func TestDefaultWeek(t *testing.T) {
	week := DefaultWeek("org-1")
	require.Len(t, week, 7)
	for _, h := range week {
		assert.Equal(t, "org-1", h.OrganizationID)
		weekend := h.DayOfWeek == 0 || h.DayOfWeek == 6
		assert.Equal(t, !weekend, h.IsOpen, "day %d", h.DayOfWeek)
		assert.NoError(t, Validate(h))
	}
}
