package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fuzzworker/internal/config"
	"fuzzworker/internal/device"
	"fuzzworker/internal/ui"
)

// DevicesCommand handles the devices command
type DevicesCommand struct {
	config  *config.RunConfig
	summary *ui.Summary
	stderr  io.Writer
	collab  Collaborators
	all     bool
}

// NewDevicesCommand creates a new DevicesCommand
func NewDevicesCommand(
	cfg *config.RunConfig,
	summary *ui.Summary,
	stderr io.Writer,
	collab Collaborators,
) *DevicesCommand {
	return &DevicesCommand{
		config:  cfg,
		summary: summary,
		stderr:  stderr,
		collab:  collab,
	}
}

// Execute runs the command
func (dc *DevicesCommand) Execute(cmd *cobra.Command, args []string) error {
	log, err := dc.config.NewLogger()
	if err != nil {
		return err
	}
	log.SetOutput(dc.stderr)

	adb := device.NewADB(dc.config.ADBPath, dc.collab.Runner, log)
	list := adb.ListDevices
	if dc.all {
		list = adb.AllDevices
	}

	devices, err := list(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	dc.summary.PrintDevices(devices)
	return nil
}
