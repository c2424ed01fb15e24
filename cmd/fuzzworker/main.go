package main

import (
	"fmt"
	"os"

	"fuzzworker/internal/cli"
	"fuzzworker/internal/cli/commands"
	"fuzzworker/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "fuzzworker",
		Short: "Run natural-language fuzz test cases on an Android device",
		Long: `Drives a phone automation agent through a batch of natural-language test cases on the first connected Android device.
Progress is streamed as newline-delimited JSON events on stdout; diagnostics go to stderr.`,
		Version:       version,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, os.Stdout, os.Stderr, commands.DefaultCollaborators())

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		cmds.Report(cmd, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
