package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"fuzzworker/internal/domain"
)

// Viewer displays a finished run
type Viewer interface {
	View(record *domain.RunRecord) error
}

// ResultsViewer browses case results in an interactive TUI
type ResultsViewer struct{}

// NewResultsViewer creates a new ResultsViewer
func NewResultsViewer() *ResultsViewer {
	return &ResultsViewer{}
}

// View displays every case of record. F toggles between all cases and
// failed cases only.
func (rv *ResultsViewer) View(record *domain.RunRecord) error {
	if len(record.Results) == 0 {
		green.Println("No cases were executed")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	failedOnly := false
	var visible []domain.CaseResult

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(visible) {
			statsView.SetText("")
			detailsView.SetText("")
			return
		}
		res := visible[index]
		statsView.SetText(formatCaseStats(record, res))
		detailsView.SetText(formatCaseDetails(record, res))
		detailsView.ScrollToBeginning()
	}

	reload := func() {
		visible = visible[:0]
		for _, res := range record.Results {
			if failedOnly && res.Success {
				continue
			}
			visible = append(visible, res)
		}
		list.Clear()
		for _, res := range visible {
			list.AddItem(listItemText(record, res), "", 0, nil)
		}
		filter := "all cases"
		if failedOnly {
			filter = "failed only"
		}
		headerView.SetText(fmt.Sprintf(" Task %s: %d passed, %d failed (%s) | ↑↓ navigate, → details, ← back, [yellow]F[white] filter, Ctrl+C exit ",
			record.TaskID, record.Passed, record.Failed, filter))
		updateDetails()
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'f' || event.Rune() == 'F' {
				failedOnly = !failedOnly
				reload()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})

	reload()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// listItemText renders one list entry using tview colour tags
func listItemText(record *domain.RunRecord, res domain.CaseResult) string {
	title := tview.Escape(oneLine(caseTitle(record, res.Index)))
	if res.Success {
		return fmt.Sprintf("[green]✓[white] [yellow]%d.[white] %s", res.Index+1, title)
	}
	return fmt.Sprintf("[red]✗[white] [yellow]%d.[white] %s", res.Index+1, title)
}

// formatCaseStats formats the header line above the case details
func formatCaseStats(record *domain.RunRecord, res domain.CaseResult) string {
	return fmt.Sprintf("[cyan]case:[white] [yellow]%d/%d[white] [cyan]device:[white] [yellow]%s[white]\n",
		res.Index+1, record.Total, tview.Escape(record.DeviceID))
}

// formatCaseDetails formats one case result for display using tview colour tags
func formatCaseDetails(record *domain.RunRecord, res domain.CaseResult) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	if res.Success {
		fmt.Fprintf(w, "[green]✓ Passed[white]\n\n")
	} else {
		fmt.Fprintf(w, "[red]✗ Failed[white]\n\n")
	}

	fmt.Fprintf(w, "[cyan]Description:[white]\n%s\n\n", tview.Escape(caseTitle(record, res.Index)))

	if res.Success {
		fmt.Fprintf(w, "[yellow]Result:[white]\n%s\n\n", tview.Escape(res.Result))
	} else {
		fmt.Fprintf(w, "[yellow]Error:[white]\n%s\n\n", tview.Escape(res.Error))
	}

	if res.Index >= 0 && res.Index < len(record.Cases) {
		if data, err := json.MarshalIndent(record.Cases[res.Index], "", "  "); err == nil {
			fmt.Fprintf(w, "[yellow]Test Case:[white]\n%s\n", tview.Escape(string(data)))
		}
	}

	w.Flush()
	return builder.String()
}
