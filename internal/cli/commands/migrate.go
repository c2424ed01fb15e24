package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fuzzworker/internal/config"
	"fuzzworker/internal/migration"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config *config.RunConfig
	stderr io.Writer
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.RunConfig, stderr io.Writer) *MigrateCommand {
	return &MigrateCommand{
		config: cfg,
		stderr: stderr,
	}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	log, err := mc.config.NewLogger()
	if err != nil {
		return err
	}
	log.SetOutput(mc.stderr)

	var migrator migration.Migrator
	migrator, err = migration.NewDatabaseManager(mc.config.ResultsDSN, log)
	if err != nil {
		return err
	}
	if err := migrator.Run(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
