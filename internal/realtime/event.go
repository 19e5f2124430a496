package realtime

type EventType string

const (
	EventLessonCreated    EventType = "lesson.created"
	EventLessonUpdated    EventType = "lesson.updated"
	EventLessonDeleted    EventType = "lesson.deleted"
	EventLessonDuplicated EventType = "lesson.duplicated"
	EventSectionCreated   EventType = "section.created"
	EventSectionUpdated   EventType = "section.updated"
	EventSectionDeleted   EventType = "section.deleted"
	EventGeneratorUpdated EventType = "exercise.generator.updated"
)

// Event is the JSON payload broadcast to live subscribers of an account.
type Event struct {
	Type       EventType `json:"type"`
	LessonID   string    `json:"lessonId,omitempty"`
	SectionKey string    `json:"sectionKey,omitempty"`
	Version    int       `json:"version,omitempty"`
}

func LessonEvent(eventType EventType, lessonID string) Event {
	return Event{Type: eventType, LessonID: lessonID}
}

func SectionEvent(eventType EventType, lessonID, sectionKey string) Event {
	return Event{Type: eventType, LessonID: lessonID, SectionKey: sectionKey}
}

func GeneratorEvent(lessonID string, version int) Event {
	return Event{Type: EventGeneratorUpdated, LessonID: lessonID, Version: version}
}
