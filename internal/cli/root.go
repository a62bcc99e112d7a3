// Package cli implements the cobra commands of the stowplan tool.
//
// Each group of subcommands lives in its own file. This file defines the
// root command, the global flags shared by every subcommand and the error
// handling that maps failures to exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/project"
)

// Global flag variables, bound to persistent flags on the root command.
var (
	// jsonOutput switches command output to JSON for scripting.
	jsonOutput bool

	// verbose lowers the log level to debug.
	verbose bool

	// configPath is the application config file; missing means defaults.
	configPath string

	// inventoryPath is the box preset file; missing means defaults, written back.
	inventoryPath string
)

// Version, Commit and Date are injected from main at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stowplan",
		Short: "Plan the floor layout of boxes and stacks in a shipping container",
		Long: `stowplan places boxes and box stacks on the floor of a shipping container.

Every change is checked against the container walls, the door opening height
and all other items. Projects are stored as .clp documents and can be
exported as a PDF loading report, QR box labels or an XLSX packing list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	defaultInventory, err := project.DefaultInventoryPath()
	if err != nil {
		defaultInventory = "inventory.json"
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", project.DefaultConfigPath(), "Application config file")
	rootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", defaultInventory, "Box preset file")

	rootCmd.AddCommand(NewContainersCommand())
	rootCmd.AddCommand(NewPresetsCommand())
	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewAddCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewStackCommand())
	rootCmd.AddCommand(NewRotateCommand())
	rootCmd.AddCommand(NewMoveCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewBackupCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code carried by the
// returned error.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Message != "" {
			printError(rootCmd.ErrOrStderr(), cliErr.Message, cliErr.Err)
		}
		os.Exit(int(cliErr.Code))
	}

	printError(rootCmd.ErrOrStderr(), err.Error(), nil)
	os.Exit(int(ExitGeneralError))
}

// printError writes an error as text or, with --json, as a JSON object.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// newLogger returns a text logger on w. Only warnings are shown unless
// --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
