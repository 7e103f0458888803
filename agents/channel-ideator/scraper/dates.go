package scraper

import (
	"strconv"
	"strings"
	"time"
)

// maxAgeMagnitude caps absurd magnitudes so date arithmetic cannot overflow.
const maxAgeMagnitude = 100000

type ageUnit struct {
	name string
	days int
	hrs  int
}

// Checked in order; the first unit found in the phrase wins.
var ageUnits = []ageUnit{
	{name: "year", days: 365},
	{name: "month", days: 30},
	{name: "week", days: 7},
	{name: "day", days: 1},
	{name: "hour", hrs: 1},
}

// ParseRelativeAge turns phrases like "3 weeks ago" into an absolute time relative
// to now. Unparseable input (no digits, or no known unit) yields now, so a bad
// phrase never ends pagination early.
func ParseRelativeAge(phrase string, now time.Time) time.Time {
	var digits strings.Builder
	for _, r := range phrase {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return now
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil || n > maxAgeMagnitude {
		n = maxAgeMagnitude
	}

	lower := strings.ToLower(phrase)
	for _, u := range ageUnits {
		if !strings.Contains(lower, u.name) {
			continue
		}
		if u.hrs > 0 {
			return now.Add(-time.Duration(n*u.hrs) * time.Hour)
		}
		return now.AddDate(0, 0, -n*u.days)
	}
	return now
}
