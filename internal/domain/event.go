package domain

// Event types written to the output stream.
const (
	EventLog      = "log"
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is one record of the NDJSON output protocol.
type Event interface {
	EventType() string
}

// LogEvent is a human-readable status line with a Unix timestamp in seconds.
type LogEvent struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// ProgressEvent announces the case about to run. Current is 1-based.
type ProgressEvent struct {
	Type        string `json:"type"`
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	Description string `json:"description"`
}

// CompleteEvent carries every case result in execution order.
type CompleteEvent struct {
	Type    string       `json:"type"`
	Results []CaseResult `json:"results"`
}

// ErrorEvent reports a run-level failure.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (LogEvent) EventType() string      { return EventLog }
func (ProgressEvent) EventType() string { return EventProgress }
func (CompleteEvent) EventType() string { return EventComplete }
func (ErrorEvent) EventType() string    { return EventError }

// NewLog builds a log event.
func NewLog(message string, timestamp float64) LogEvent {
	return LogEvent{Type: EventLog, Message: message, Timestamp: timestamp}
}

// NewProgress builds a progress event.
func NewProgress(current, total int, description string) ProgressEvent {
	return ProgressEvent{Type: EventProgress, Current: current, Total: total, Description: description}
}

// NewComplete builds a complete event. A nil slice is written as [].
func NewComplete(results []CaseResult) CompleteEvent {
	if results == nil {
		results = []CaseResult{}
	}
	return CompleteEvent{Type: EventComplete, Results: results}
}

// NewError builds an error event.
func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}
