package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/project"
)

// NewBackupCommand creates the "backup" command group, which moves the
// application config and box presets in and out of one JSON file.
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore config and box presets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write config and box presets to a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := project.LoadAppConfig(configPath)
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot load config", err)
			}
			inv, err := project.LoadInventory(inventoryPath)
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot load box presets", err)
			}
			if err := project.ExportAllData(args[0], cfg, inv); err != nil {
				return WrapCLIError(ExitGeneralError, "backup failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Restore config and box presets from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return WrapCLIError(ExitGeneralError, "restore failed", err)
			}
			if err := project.SaveAppConfig(configPath, backup.Config); err != nil {
				return WrapCLIError(ExitGeneralError, "cannot save config", err)
			}
			if err := project.SaveInventory(inventoryPath, backup.Inventory); err != nil {
				return WrapCLIError(ExitGeneralError, "cannot save box presets", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored config and %d preset(s)\n", len(backup.Inventory.Boxes))
			return nil
		},
	})

	return cmd
}
