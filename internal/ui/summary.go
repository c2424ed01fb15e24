package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"fuzzworker/internal/domain"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// Summary prints run records and device lists as coloured tables
type Summary struct {
	w io.Writer
}

// NewSummary creates a Summary writing to w
func NewSummary(w io.Writer) *Summary {
	return &Summary{w: w}
}

// PrintRun prints the statistics of a run followed by its failed cases
func (s *Summary) PrintRun(record *domain.RunRecord) {
	fmt.Fprint(s.w, "\n")
	cyan.Fprintln(s.w, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(s.w, "║                    Fuzz Run Statistics                        ║")
	cyan.Fprintln(s.w, "╚═══════════════════════════════════════════════════════════════╝")

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Task", record.TaskID, white},
		{"Target App", record.TargetApp, white},
		{"Device", record.DeviceID, white},
		{"Model", record.Model, white},
		{"Total Cases", fmt.Sprint(record.Total), white},
		{"Passed Cases", fmt.Sprint(record.Passed), green},
		{"Failed Cases", fmt.Sprint(record.Failed), red},
		{"Duration", fmt.Sprintf("%.2fs", record.Duration().Seconds()), white},
		{"Started", record.StartedAt.Format("2006-01-02 15:04:05"), white},
	}

	fmt.Fprintln(s.w, "┌─────────────────────────────────┬─────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(s.w, "│ %-31s │ ", row.label)
		row.c.Fprintf(s.w, "%-27s", truncate(row.value, 27))
		fmt.Fprintln(s.w, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(s.w, "├─────────────────────────────────┼─────────────────────────────┤")
		}
	}
	fmt.Fprintln(s.w, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(s.w)
	if record.Failed == 0 {
		green.Fprintln(s.w, "✓ All cases passed!")
		return
	}
	red.Fprintf(s.w, "✗ %d of %d case(s) failed\n\n", record.Failed, record.Total)
	for _, res := range record.Results {
		if res.Success {
			continue
		}
		yellow.Fprintf(s.w, "  %d. %s\n", res.Index+1, caseTitle(record, res.Index))
		fmt.Fprintf(s.w, "     |_ %s\n", res.Error)
	}
}

// PrintDevices lists devices with their adb state
func (s *Summary) PrintDevices(devices []domain.Device) {
	if len(devices) == 0 {
		yellow.Fprintln(s.w, "No devices found")
		return
	}
	for _, d := range devices {
		state := red
		if d.Status == "device" {
			state = green
		}
		fmt.Fprintf(s.w, "%-24s ", d.ID)
		state.Fprintf(s.w, "%-13s", d.Status)
		if d.Model != "" {
			fmt.Fprintf(s.w, " %s", d.Model)
		}
		fmt.Fprintln(s.w)
	}
}

// caseTitle returns the description of case idx, or a numbered placeholder
func caseTitle(record *domain.RunRecord, idx int) string {
	if idx >= 0 && idx < len(record.Cases) {
		if d := record.Cases[idx].Description(); d != "" {
			return d
		}
	}
	return fmt.Sprintf("Case %d", idx+1)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
