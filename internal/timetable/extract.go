package timetable

import (
	"strconv"
	"strings"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

// ExtractOptions scopes ExtractMeetings.
type ExtractOptions struct {
	// TargetSession keeps only meetings tagged with this session. Untagged
	// meetings always pass. Empty disables the filter.
	TargetSession string
	// FallbackSectionNumber seeds the section tag when the raw section number
	// is not numeric: FallbackSectionNumber*100 + meeting index.
	FallbackSectionNumber int
}

// ExtractMeetings returns the usable meetings of a section in upstream order.
func ExtractMeetings(section ttb.RawSection, opts ExtractOptions) []models.Meeting {
	instructor := FormatInstructor(section.Instructors)

	candidates := make([]ttb.RawMeetingTime, 0, len(section.MeetingTimes))
	for _, mt := range section.MeetingTimes {
		if mt.Start == nil || mt.End == nil {
			continue
		}
		if opts.TargetSession != "" && mt.SessionCode != "" && string(mt.SessionCode) != opts.TargetSession {
			continue
		}
		candidates = append(candidates, mt)
	}

	meetings := make([]models.Meeting, 0, len(candidates))
	for i, mt := range candidates {
		day, ok := ResolveDay(mt.Start.Day)
		if !ok {
			continue
		}
		start, ok := ToSeconds(mt.Start.MillisOfDay)
		if !ok {
			continue
		}
		end, ok := ToSeconds(mt.End.MillisOfDay)
		if !ok || start >= end {
			continue
		}
		meetings = append(meetings, models.Meeting{
			Section:    ParseSectionNumber(string(section.SectionNumber), opts.FallbackSectionNumber*100+i),
			Day:        day,
			Start:      start,
			End:        end,
			Location:   FormatLocation(mt.Building),
			Instructor: instructor,
		})
	}
	return meetings
}

// ParseSectionNumber reads the leading base-10 integer of raw, ignoring
// leading whitespace. Labels without one (e.g. "LEC0101") yield fallback.
func ParseSectionNumber(raw string, fallback int) int {
	s := strings.TrimLeft(raw, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	return n
}
