package events

import (
	"sync"

	"fuzzworker/internal/domain"
)

// Memory keeps emitted events in order. Used by tests and callers that
// want to inspect a run after the fact.
type Memory struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewMemory creates an empty in-memory emitter
func NewMemory() *Memory {
	return &Memory{}
}

// Emit appends ev.
func (m *Memory) Emit(ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of everything emitted so far.
func (m *Memory) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the emitted events whose type tag equals typ.
func (m *Memory) OfType(typ string) []domain.Event {
	var out []domain.Event
	for _, ev := range m.Events() {
		if ev.EventType() == typ {
			out = append(out, ev)
		}
	}
	return out
}
