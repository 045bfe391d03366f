package timetable

import "github.com/noah-isme/ttb-planner-api/pkg/ttb"

const hour = 3600 * 1000

func rawMeeting(day, startMillis, endMillis float64) ttb.RawMeetingTime {
	return ttb.RawMeetingTime{
		Start: &ttb.RawTimePoint{Day: ttb.Num(day), MillisOfDay: ttb.Num(startMillis)},
		End:   &ttb.RawTimePoint{Day: ttb.Num(day), MillisOfDay: ttb.Num(endMillis)},
	}
}

func lecture(number string, meetings ...ttb.RawMeetingTime) ttb.RawSection {
	return ttb.RawSection{
		SectionNumber: ttb.FlexString(number),
		TeachMethod:   ttb.TeachMethodLecture,
		MeetingTimes:  ttb.List[ttb.RawMeetingTime](meetings),
	}
}

func attachment(method, number, lectureNumber string, meetings ...ttb.RawMeetingTime) ttb.RawSection {
	return ttb.RawSection{
		SectionNumber: ttb.FlexString(number),
		TeachMethod:   ttb.FlexString(method),
		MeetingTimes:  ttb.List[ttb.RawMeetingTime](meetings),
		LinkedMeetingSections: ttb.List[ttb.RawLinkedSection]{
			{TeachMethod: ttb.TeachMethodLecture, SectionNumber: ttb.FlexString(lectureNumber)},
		},
	}
}
