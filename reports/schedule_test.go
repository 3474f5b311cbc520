package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/reports"
)

func scheduled(freq string) domain.Report {
	return domain.Report{Title: "Attendance", IsScheduled: true, ScheduleFrequency: &freq}
}

func TestMarkRun_Frequencies(t *testing.T) {
	now := time.Date(2023, time.December, 28, 14, 30, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"daily":   time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC),
		"Weekly":  time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC),
		"MONTHLY": time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for freq, want := range cases {
		got := reports.MarkRun(scheduled(freq), now)

		require.NotNil(t, got.LastRun, freq)
		assert.True(t, got.LastRun.Equal(now), freq)
		require.NotNil(t, got.NextRun, freq)
		assert.True(t, got.NextRun.Equal(want), "%s: got %s want %s", freq, got.NextRun, want)
	}
}

func TestMarkRun_Daily_EndOfMonth(t *testing.T) {
	now := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)

	got := reports.MarkRun(scheduled("daily"), now)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), *got.NextRun)
}

func TestMarkRun_Unscheduled_OnlyLastRun(t *testing.T) {
	// GIVEN: an unscheduled report with a stale next_run
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r := scheduled("daily")
	r.IsScheduled = false
	r.NextRun = &stale
	now := time.Date(2023, 10, 5, 10, 0, 0, 0, time.UTC)

	// WHEN
	got := reports.MarkRun(r, now)

	// THEN: next_run untouched
	assert.True(t, got.LastRun.Equal(now))
	assert.True(t, got.NextRun.Equal(stale))
}

func TestMarkRun_UnknownFrequency(t *testing.T) {
	got := reports.MarkRun(scheduled("fortnightly"), time.Now())

	assert.NotNil(t, got.LastRun)
	assert.Nil(t, got.NextRun)
}

func TestIsDue(t *testing.T) {
	now := time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC)
	r := scheduled("monthly")

	assert.False(t, reports.IsDue(r, now))

	r.NextRun = &now
	assert.True(t, reports.IsDue(r, now))

	later := now.Add(time.Hour)
	r.NextRun = &later
	assert.False(t, reports.IsDue(r, now))

	r.NextRun = &now
	r.IsScheduled = false
	assert.False(t, reports.IsDue(r, now))
}

func TestParseFrequency(t *testing.T) {
	f, ok := reports.ParseFrequency(" Daily ")
	assert.True(t, ok)
	assert.Equal(t, reports.Daily, f)

	_, ok = reports.ParseFrequency("yearly")
	assert.False(t, ok)
}
