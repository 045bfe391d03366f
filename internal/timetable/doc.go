// Package timetable reduces raw timetable payloads to calendar-renderable
// courses: course -> option -> meeting.
//
// Raw upstream data is inconsistently populated, so nothing in this package
// returns an error. Meetings with unusable timing are dropped, sections that
// end up with no meetings contribute no option, and courses with no options
// are skipped. Display fields fall back to "TBA".
package timetable
