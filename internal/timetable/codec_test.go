package timetable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

func TestResolveDayCoversWeek(t *testing.T) {
	for i, want := range models.Weekdays {
		got, ok := ResolveDay(ttb.Num(float64(i + 1)))
		assert.True(t, ok)
		assert.Equal(t, want, got)
		assert.Equal(t, i+1, DayIndex(got))
	}
}

func TestResolveDayRejectsOutOfRange(t *testing.T) {
	for _, raw := range []ttb.FlexNumber{ttb.Num(0), ttb.Num(8), ttb.Num(-1), ttb.Num(2.5), {}} {
		_, ok := ResolveDay(raw)
		assert.False(t, ok, "index %+v should not resolve", raw)
	}
}

func TestToSeconds(t *testing.T) {
	cases := []struct {
		name   string
		in     ttb.FlexNumber
		want   int
		wantOK bool
	}{
		{name: "ten am", in: ttb.Num(36000000), want: 36000, wantOK: true},
		{name: "rounds half up", in: ttb.Num(1500), want: 2, wantOK: true},
		{name: "rounds down", in: ttb.Num(1499), want: 1, wantOK: true},
		{name: "midnight", in: ttb.Num(0), want: 0, wantOK: true},
		{name: "last millisecond clamps", in: ttb.Num(86399999), want: LastSecondOfDay, wantOK: true},
		{name: "missing", in: ttb.FlexNumber{}},
		{name: "nan", in: ttb.Num(math.NaN())},
		{name: "negative", in: ttb.Num(-1)},
		{name: "next day", in: ttb.Num(86400000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToSeconds(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestFormatClockIsInverseOfToSeconds(t *testing.T) {
	seconds, ok := ToSeconds(ttb.Num(13*hour + 30*60*1000))
	assert.True(t, ok)
	assert.Equal(t, "13:30", FormatClock(seconds))
	assert.Equal(t, "09:05", FormatClock(9*3600+5*60+59))
	assert.Equal(t, "00:00", FormatClock(-5))
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "tuesday", DayName(models.DayTuesday))
	assert.Equal(t, "sunday", DayName(models.DaySunday))
	assert.Equal(t, "xyz", DayName(models.Day("xyz")))
	assert.Equal(t, 0, DayIndex(models.Day("xyz")))
}
