package commands

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"fuzzworker/internal/config"
	"fuzzworker/internal/storage"
	"fuzzworker/internal/ui"
)

// ViewCommand handles the view command
type ViewCommand struct {
	config  *config.RunConfig
	summary *ui.Summary
	viewer  ui.Viewer
	stdout  io.Writer
	plain   bool
}

// NewViewCommand creates a new ViewCommand
func NewViewCommand(
	cfg *config.RunConfig,
	summary *ui.Summary,
	viewer ui.Viewer,
	stdout io.Writer,
) *ViewCommand {
	return &ViewCommand{
		config:  cfg,
		summary: summary,
		viewer:  viewer,
		stdout:  stdout,
	}
}

// Execute runs the command
func (vc *ViewCommand) Execute(cmd *cobra.Command, args []string) error {
	record, err := storage.NewJSONStorage(args[0]).Load()
	if err != nil {
		return err
	}

	if vc.plain || !vc.interactive() {
		vc.summary.PrintRun(record)
		return nil
	}
	return vc.viewer.View(record)
}

// interactive reports whether stdout is a terminal the TUI can take over
func (vc *ViewCommand) interactive() bool {
	f, ok := vc.stdout.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
