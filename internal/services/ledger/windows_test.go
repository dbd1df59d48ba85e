package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowBounds_Day(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	from, to := WindowDay.Bounds(now)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), to)
}

func TestWindowBounds_WeekStartsMonday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "wednesday belongs to its monday",
			now:  time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday starts its own week",
			now:  time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday belongs to the week that started last monday",
			now:  time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := WindowWeek.Bounds(tt.now)
			assert.Equal(t, tt.want, from)
			assert.Equal(t, tt.want.AddDate(0, 0, 7), to)
		})
	}
}

func TestWindowBounds_Month(t *testing.T) {
	now := time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC)
	from, to := WindowMonth.Bounds(now)

	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestWindowBounds_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 08:00 on the 2nd in UTC+9 is 23:00 on the 1st in UTC.
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, loc)

	from, _ := WindowDay.Bounds(now)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), from)
}
