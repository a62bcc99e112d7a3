package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/piwi3910/StowPlan/internal/project"
)

// NewContainersCommand creates the "containers" command.
func NewContainersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List the container types of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			all, err := s.catalog.All()
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot read container catalog", err)
			}
			return printContainers(cmd.OutOrStdout(), all, s.cfg.DefaultContainerID)
		},
	}
}

func printContainers(w io.Writer, all []model.Container, defaultID string) error {
	if jsonOutput {
		return printJSON(w, map[string]interface{}{"containers": all})
	}
	fmt.Fprintf(w, "%-12s %-24s %8s %8s %8s %8s\n", "ID", "NAME", "LENGTH", "WIDTH", "HEIGHT", "DOOR")
	for _, c := range all {
		marker := ""
		if c.ID == defaultID {
			marker = " *"
		}
		fmt.Fprintf(w, "%-12s %-24s %8.0f %8.0f %8.0f %8.0f%s\n",
			c.ID, c.Name, c.InnerLength, c.InnerWidth, c.InnerHeight, c.DoorHeight, marker)
	}
	return nil
}

// NewPresetsCommand creates the "presets" command.
func NewPresetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the saved box presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(inventoryPath)
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot load box presets", err)
			}
			return printPresets(cmd.OutOrStdout(), inv)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge presets from a JSON file into the saved presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(inventoryPath)
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot load box presets", err)
			}
			before := len(inv.Boxes)
			inv, err = project.ImportInventory(args[0], inv)
			if err != nil {
				return WrapCLIError(ExitGeneralError, "cannot import presets", err)
			}
			if err := project.SaveInventory(inventoryPath, inv); err != nil {
				return WrapCLIError(ExitGeneralError, "cannot save box presets", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d preset(s)\n", len(inv.Boxes)-before)
			return nil
		},
	}
	cmd.AddCommand(importCmd)
	return cmd
}

func printPresets(w io.Writer, inv model.Inventory) error {
	if jsonOutput {
		return printJSON(w, inv)
	}
	if len(inv.Boxes) == 0 {
		fmt.Fprintln(w, "No box presets saved.")
		return nil
	}
	fmt.Fprintf(w, "%-10s %-20s %8s %8s %8s %8s\n", "ID", "NAME", "LENGTH", "WIDTH", "HEIGHT", "KG")
	for _, bp := range inv.Boxes {
		fmt.Fprintf(w, "%-10s %-20s %8.0f %8.0f %8.0f %8.1f\n",
			bp.ID, bp.Name, bp.Length, bp.Width, bp.Height, bp.Weight)
	}
	return nil
}
