package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const (
	icsLocalLayout  = "20060102T150405"
	defaultTermWeek = 13
)

// WeeklyEvent is one meeting that repeats every week of the term.
type WeeklyEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Weekday     time.Weekday
	// StartSecond and EndSecond are seconds since local midnight.
	StartSecond int
	EndSecond   int
}

// ICSExporter renders weekly meetings as recurring VEVENTs bounded by a term.
type ICSExporter struct {
	location  *time.Location
	termStart time.Time
	termEnd   time.Time
}

// NewICSExporter builds an exporter for the given IANA timezone. A zero term
// start means "today"; a zero term end means thirteen weeks after the start.
func NewICSExporter(timezone string, termStart, termEnd time.Time) (*ICSExporter, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load export timezone %q: %w", timezone, err)
	}
	return &ICSExporter{location: loc, termStart: termStart, termEnd: termEnd}, nil
}

// Timezone returns the exporter's IANA zone name.
func (e *ICSExporter) Timezone() string {
	return e.location.String()
}

// Render produces an iCalendar document. Events with no occurrence inside the
// term are left out.
func (e *ICSExporter) Render(name string, events []WeeklyEvent, now time.Time) ([]byte, error) {
	start, end := e.window(now)
	if !end.After(start) {
		return nil, fmt.Errorf("export term ends before it starts")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ttb-planner//selection export//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(e.location.String())
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{e.location.String()}}

	for _, ev := range events {
		if ev.EndSecond <= ev.StartSecond {
			continue
		}
		first, ok := firstOccurrence(ev, start, end)
		if !ok {
			continue
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   first,
			Until:     end,
			Byweekday: []rrule.Weekday{toRRuleWeekday(ev.Weekday)},
		})
		if err != nil {
			return nil, fmt.Errorf("build recurrence for %s: %w", ev.UID, err)
		}

		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(now.UTC())
		vevent.SetSummary(ev.Summary)
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		duration := time.Duration(ev.EndSecond-ev.StartSecond) * time.Second
		vevent.SetProperty(ics.ComponentPropertyDtStart, first.Format(icsLocalLayout), tzid)
		vevent.SetProperty(ics.ComponentPropertyDtEnd, first.Add(duration).Format(icsLocalLayout), tzid)
		vevent.AddRrule(rule.OrigOptions.RRuleString())
	}

	return []byte(cal.Serialize()), nil
}

func (e *ICSExporter) window(now time.Time) (time.Time, time.Time) {
	start := e.termStart
	if start.IsZero() {
		start = now
	}
	start = midnight(start, e.location)

	end := e.termEnd
	if end.IsZero() {
		end = start.AddDate(0, 0, 7*defaultTermWeek)
	} else {
		// inclusive of the last term day
		end = midnight(end, e.location).AddDate(0, 0, 1).Add(-time.Second)
	}
	return start, end
}

func firstOccurrence(ev WeeklyEvent, start, end time.Time) (time.Time, bool) {
	offset := (int(ev.Weekday) - int(start.Weekday()) + 7) % 7
	day := start.AddDate(0, 0, offset)
	first := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, ev.StartSecond, 0, start.Location())
	if first.After(end) {
		return time.Time{}, false
	}
	return first, true
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		// bare dates from config denote a calendar day, not an instant
		local = t
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func toRRuleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
