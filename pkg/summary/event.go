package summary

import "encoding/json"

// EventType discriminates the summary-stream event vocabulary.
type EventType string

const (
	EventTest       EventType = "test"
	EventLevelStart EventType = "level_start"
	EventContent    EventType = "content"
	EventSummaries  EventType = "summaries"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

// Event is one decoded summary-stream message. Only the fields relevant to
// Type are populated.
type Event struct {
	Type EventType `json:"type"`

	// Message carries the payload of test and error events.
	Message string `json:"message,omitempty"`

	// Level and Text carry content payloads; Level alone carries level_start.
	Level Level  `json:"level,omitempty"`
	Text  string `json:"text,omitempty"`

	// Data is the authoritative five-level snapshot of a summaries event.
	Data *Snapshot `json:"data,omitempty"`
}

// ParseEvent decodes one frame payload into a summary event. Malformed
// payloads and unrecognized tags yield false; the stream keeps going.
func ParseEvent(data string) (Event, bool) {
	var ev Event
	ev.Level = -1
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return Event{}, false
	}

	switch ev.Type {
	case EventTest, EventLevelStart, EventContent, EventSummaries, EventComplete, EventError:
		return ev, true
	default:
		return Event{}, false
	}
}

// Snapshot is a complete set of five summaries indexed by level.
type Snapshot [NumLevels]string

// UnmarshalJSON accepts both wire shapes: a 5-element array, or an object
// keyed by level digits ("0".."4") as the producer's buffer map serializes.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		for i := 0; i < NumLevels && i < len(arr); i++ {
			s[i] = arr[i]
		}
		return nil
	}

	var obj map[Level]string
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	for l, text := range obj {
		if l.Valid() {
			s[l] = text
		}
	}
	return nil
}
