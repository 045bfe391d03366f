package timetable

import (
	"strings"

	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

// Placeholder is shown when a location or instructor is unknown.
const Placeholder = "TBA"

// FormatLocation renders "<building> <room><suffix>", skipping empty parts.
func FormatLocation(building *ttb.RawBuilding) string {
	if building == nil {
		return Placeholder
	}
	parts := make([]string, 0, 2)
	if code := strings.TrimSpace(string(building.BuildingCode)); code != "" {
		parts = append(parts, code)
	}
	room := strings.TrimSpace(string(building.BuildingRoomNumber) + string(building.BuildingRoomSuffix))
	if room != "" {
		parts = append(parts, room)
	}
	if len(parts) == 0 {
		return Placeholder
	}
	return strings.Join(parts, " ")
}

// FormatInstructor joins "first last" names with ", ".
func FormatInstructor(instructors []ttb.RawInstructor) string {
	names := make([]string, 0, len(instructors))
	for _, person := range instructors {
		parts := make([]string, 0, 2)
		if first := strings.TrimSpace(string(person.FirstName)); first != "" {
			parts = append(parts, first)
		}
		if last := strings.TrimSpace(string(person.LastName)); last != "" {
			parts = append(parts, last)
		}
		if len(parts) > 0 {
			names = append(names, strings.Join(parts, " "))
		}
	}
	if len(names) == 0 {
		return Placeholder
	}
	return strings.Join(names, ", ")
}
