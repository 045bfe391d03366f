package timetable

import (
	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

type lectureEntry struct {
	meetings    []models.Meeting
	attachments []models.Meeting
}

// lectureRegistry is an insertion ordered map from raw section number to the
// lecture accumulated under it. Re-registering a key replaces the entry but
// keeps its original position.
type lectureRegistry struct {
	index   map[string]int
	entries []*lectureEntry
}

func newLectureRegistry() *lectureRegistry {
	return &lectureRegistry{index: make(map[string]int)}
}

func (r *lectureRegistry) size() int {
	return len(r.entries)
}

func (r *lectureRegistry) register(key string, entry *lectureEntry) {
	if i, ok := r.index[key]; ok {
		r.entries[i] = entry
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, entry)
}

func (r *lectureRegistry) lookup(key string) (*lectureEntry, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.entries[i], true
}

// MergeSections groups a course's sections into options. Every non-cancelled
// lecture anchors one option; tutorials and practicals join the lectures they
// link to. Lectures are registered in a first pass because attachments may
// reference a lecture listed after them.
func MergeSections(sections []ttb.RawSection, targetSession string) []models.Option {
	lectures := newLectureRegistry()

	for _, section := range sections {
		if section.Cancelled() || !section.IsLecture() {
			continue
		}
		lectures.register(string(section.SectionNumber), &lectureEntry{
			meetings: ExtractMeetings(section, ExtractOptions{
				TargetSession:         targetSession,
				FallbackSectionNumber: lectures.size(),
			}),
		})
	}

	for _, section := range sections {
		if section.Cancelled() || section.IsLecture() {
			continue
		}
		for _, link := range section.LinkedMeetingSections {
			if string(link.TeachMethod) != ttb.TeachMethodLecture {
				continue
			}
			lecture, ok := lectures.lookup(string(link.SectionNumber))
			if !ok {
				continue
			}
			attached := ExtractMeetings(section, ExtractOptions{
				TargetSession:         targetSession,
				FallbackSectionNumber: len(lecture.meetings) + len(lecture.attachments),
			})
			lecture.attachments = append(lecture.attachments, attached...)
		}
	}

	options := make([]models.Option, 0, lectures.size())
	for _, lecture := range lectures.entries {
		combined := make([]models.Meeting, 0, len(lecture.meetings)+len(lecture.attachments))
		combined = append(combined, lecture.meetings...)
		combined = append(combined, lecture.attachments...)
		if len(combined) == 0 {
			continue
		}
		options = append(options, models.Option{
			Number:   len(options),
			Lectures: combined,
		})
	}
	return options
}
