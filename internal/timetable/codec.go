package timetable

import (
	"fmt"
	"math"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

const (
	millisPerDay = 24 * 60 * 60 * 1000
	// LastSecondOfDay is the largest seconds-of-day value a meeting may carry.
	LastSecondOfDay = 24*60*60 - 1
)

var dayByIndex = map[int]models.Day{
	1: models.DayMonday,
	2: models.DayTuesday,
	3: models.DayWednesday,
	4: models.DayThursday,
	5: models.DayFriday,
	6: models.DaySaturday,
	7: models.DaySunday,
}

var dayNames = map[models.Day]string{
	models.DayMonday:    "monday",
	models.DayTuesday:   "tuesday",
	models.DayWednesday: "wednesday",
	models.DayThursday:  "thursday",
	models.DayFriday:    "friday",
	models.DaySaturday:  "saturday",
	models.DaySunday:    "sunday",
}

// ResolveDay maps an upstream weekday index (1 = Monday ... 7 = Sunday) to a
// day code. Missing, fractional, or out of range indices do not resolve.
func ResolveDay(index ttb.FlexNumber) (models.Day, bool) {
	if !index.Valid || index.Value != math.Trunc(index.Value) {
		return "", false
	}
	day, ok := dayByIndex[int(index.Value)]
	return day, ok
}

// ToSeconds converts a millisecond-of-day offset to whole seconds, rounding
// half up. Missing, non-finite, or out of day values do not convert.
func ToSeconds(millis ttb.FlexNumber) (int, bool) {
	if !millis.Valid || math.IsNaN(millis.Value) || math.IsInf(millis.Value, 0) {
		return 0, false
	}
	if millis.Value < 0 || millis.Value >= millisPerDay {
		return 0, false
	}
	seconds := int(math.Floor(millis.Value/1000 + 0.5))
	if seconds > LastSecondOfDay {
		seconds = LastSecondOfDay
	}
	return seconds, true
}

// DayIndex is the inverse of ResolveDay. Unknown codes return 0.
func DayIndex(day models.Day) int {
	for i, d := range models.Weekdays {
		if d == day {
			return i + 1
		}
	}
	return 0
}

// DayName expands a day code to its lowercase English name. Unknown codes are
// returned unchanged.
func DayName(day models.Day) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return string(day)
}

// FormatClock renders seconds of day as a zero padded HH:MM string,
// truncating seconds.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
