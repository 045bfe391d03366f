package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "BA 1170", FormatLocation(&ttb.RawBuilding{BuildingCode: " BA ", BuildingRoomNumber: "1170"}))
	assert.Equal(t, "SS 2102A", FormatLocation(&ttb.RawBuilding{BuildingCode: "SS", BuildingRoomNumber: "2102", BuildingRoomSuffix: "A"}))
	assert.Equal(t, "MP", FormatLocation(&ttb.RawBuilding{BuildingCode: "MP"}))
	assert.Equal(t, "203", FormatLocation(&ttb.RawBuilding{BuildingRoomNumber: " 203 "}))
	assert.Equal(t, Placeholder, FormatLocation(&ttb.RawBuilding{}))
	assert.Equal(t, Placeholder, FormatLocation(nil))
}

func TestFormatInstructorFallbacks(t *testing.T) {
	assert.Equal(t, Placeholder, FormatInstructor(nil))
	assert.Equal(t, Placeholder, FormatInstructor([]ttb.RawInstructor{}))
	assert.Equal(t, Placeholder, FormatInstructor([]ttb.RawInstructor{{FirstName: "", LastName: ""}}))
	assert.Equal(t, Placeholder, FormatInstructor([]ttb.RawInstructor{{FirstName: "  ", LastName: " "}}))
}

func TestFormatInstructorJoinsNames(t *testing.T) {
	got := FormatInstructor([]ttb.RawInstructor{
		{FirstName: " Jane ", LastName: "Doe"},
		{FirstName: "", LastName: ""},
		{LastName: "Smith"},
	})
	assert.Equal(t, "Jane Doe, Smith", got)
}
