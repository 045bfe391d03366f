package ttb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawSectionToleratesMalformedFields(t *testing.T) {
	raw := `{
		"sectionNumber": 101,
		"teachMethod": "LEC",
		"cancelInd": null,
		"meetingTimes": [null, "bogus", {"start":{"day":"2","millisofday":36000000},"end":{"day":2,"millisofday":"x"}}],
		"instructors": "TBA",
		"linkedMeetingSections": {"not":"a list"}
	}`
	var section RawSection
	require.NoError(t, json.Unmarshal([]byte(raw), &section))

	assert.Equal(t, FlexString("101"), section.SectionNumber)
	assert.True(t, section.IsLecture())
	assert.False(t, section.Cancelled())
	require.Len(t, section.MeetingTimes, 1)
	assert.False(t, section.MeetingTimes[0].Start.Day.Valid)
	assert.True(t, section.MeetingTimes[0].Start.MillisOfDay.Valid)
	assert.False(t, section.MeetingTimes[0].End.MillisOfDay.Valid)
	assert.Empty(t, section.Instructors)
	assert.Empty(t, section.LinkedMeetingSections)
}

func TestFlexNumberMarshal(t *testing.T) {
	raw, err := json.Marshal(struct {
		A FlexNumber `json:"a"`
		B FlexNumber `json:"b"`
	}{A: Num(36000000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":36000000,"b":null}`, string(raw))
}
