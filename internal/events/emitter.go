package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"fuzzworker/internal/domain"
)

// Emitter is the single sink for protocol events.
type Emitter interface {
	Emit(ev domain.Event) error
}

// JSONLines writes each event as one JSON object per line and flushes
// after every write so readers can consume the stream incrementally.
type JSONLines struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLines creates an emitter writing to w
func NewJSONLines(w io.Writer) *JSONLines {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLines{w: bw, enc: enc}
}

// Emit encodes ev followed by a newline and flushes it.
func (j *JSONLines) Emit(ev domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(ev); err != nil {
		return fmt.Errorf("encode %s event: %w", ev.EventType(), err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush %s event: %w", ev.EventType(), err)
	}
	return nil
}
