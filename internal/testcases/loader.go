package testcases

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"fuzzworker/internal/domain"
)

// Loader reads test-case files
type Loader struct{}

// NewLoader creates a new Loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads path and decodes it as a JSON array of objects.
// Objects are passed through without schema validation.
func (l *Loader) Load(path string) ([]domain.TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return l.Parse(content)
}

// Parse decodes raw test-case JSON
func (l *Loader) Parse(content []byte) ([]domain.TestCase, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("invalid test case JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid test case JSON: expected an array, got null")
	}

	cases := make([]domain.TestCase, 0, len(raw))
	for i, msg := range raw {
		var tc domain.TestCase
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&tc); err != nil || tc == nil {
			return nil, fmt.Errorf("test case %d is not a JSON object", i)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}
