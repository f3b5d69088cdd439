package domain

import "math"

// EventType represents the type of progress event emitted during conversion.
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is one progress event on a conversion stream. Log, done and error
// events carry a message; progress events carry a percentage value.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Value   int       `json:"value,omitempty"`
}

// LogEvent reports a human-readable processing step.
func LogEvent(message string) Event {
	return Event{Type: EventLog, Message: message}
}

// ProgressEvent reports completion of page i of n.
func ProgressEvent(i, n int) Event {
	return Event{Type: EventProgress, Value: ProgressValue(i, n)}
}

// DoneEvent is the terminal event of a successful conversion.
func DoneEvent(message string) Event {
	return Event{Type: EventDone, Message: message}
}

// ErrorEvent is the terminal event of a failed conversion.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// ProgressValue maps page i of n to a whole percentage. Values are clamped
// to at least 1 so the reported sequence starts above zero even for very
// large documents, and reach exactly 100 on the final page.
func ProgressValue(i, n int) int {
	if n <= 0 {
		return 100
	}
	v := int(math.Round(float64(i) / float64(n) * 100))
	if v < 1 {
		v = 1
	}
	return v
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
