package domain

import (
	"encoding/json"
	"time"
)

// CaseResult is the recorded outcome of one test case.
// Exactly one of Result or Error is meaningful, selected by Success.
type CaseResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded builds the result of a case whose agent call returned normally.
func Succeeded(index int, result string) CaseResult {
	return CaseResult{Index: index, Success: true, Result: result}
}

// Failed builds the result of a case whose agent call failed.
func Failed(index int, err error) CaseResult {
	return CaseResult{Index: index, Success: false, Error: err.Error()}
}

// MarshalJSON always writes "result" for a success and "error" for a failure,
// even when the string is empty.
func (r CaseResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Index   int    `json:"index"`
			Success bool   `json:"success"`
			Result  string `json:"result"`
		}{r.Index, true, r.Result})
	}
	return json.Marshal(struct {
		Index   int    `json:"index"`
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{r.Index, false, r.Error})
}

// RunRecord is the persisted summary of a finished run
type RunRecord struct {
	RunID      string       `json:"run_id"`
	TaskID     string       `json:"task_id"`
	TargetApp  string       `json:"target_app"`
	DeviceID   string       `json:"device_id"`
	Model      string       `json:"model"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Total      int          `json:"total"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Cases      []TestCase   `json:"cases"`
	Results    []CaseResult `json:"results"`
}

// Duration returns how long the case loop ran.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Tally recomputes Total, Passed and Failed from Results.
func (r *RunRecord) Tally() {
	r.Total = len(r.Results)
	r.Passed, r.Failed = 0, 0
	for _, res := range r.Results {
		if res.Success {
			r.Passed++
		} else {
			r.Failed++
		}
	}
}
