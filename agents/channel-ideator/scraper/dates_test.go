package scraper

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRelativeAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		phrase string
		want   time.Time
	}{
		{"Hours", "5 hours ago", now.Add(-5 * time.Hour)},
		{"SingleDay", "1 day ago", now.AddDate(0, 0, -1)},
		{"Days", "3 days ago", now.AddDate(0, 0, -3)},
		{"Weeks", "2 weeks ago", now.AddDate(0, 0, -14)},
		{"Months", "2 months ago", now.AddDate(0, 0, -60)},
		{"Years", "1 year ago", now.AddDate(0, 0, -365)},
		{"MixedCase", "3 Weeks Ago", now.AddDate(0, 0, -21)},
		{"StreamedPrefix", "streamed 4 days ago", now.AddDate(0, 0, -4)},
		{"NoDigits", "yesterday", now},
		{"NoUnit", "12 minutes ago", now},
		{"Unknown", "Unknown", now},
		{"Empty", "", now},
		{"CappedMagnitude", "99999999999999999999 days ago", now.AddDate(0, 0, -maxAgeMagnitude)},
		{"NonASCIIDigits", "٣ days ago", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRelativeAge(tt.phrase, now))
		})
	}
}

func TestParseRelativeAgeIsMonotone(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	for _, unit := range []string{"hours", "days", "weeks", "months", "years"} {
		prev := now
		for n := 1; n <= 12; n++ {
			got := ParseRelativeAge(strconv.Itoa(n)+" "+unit+" ago", now)
			assert.True(t, got.Before(prev), "%d %s should be older than %d %s", n, unit, n-1, unit)
			prev = got
		}
	}
}

func TestThreshold(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -60), Threshold(now, 2))
	assert.Equal(t, now.AddDate(0, 0, -30), Threshold(now, 1))
	assert.Equal(t, now.AddDate(0, 0, -60), Threshold(now, 0), "non-positive windows fall back to the default")
}
