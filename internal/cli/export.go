package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/export"
	"github.com/piwi3910/StowPlan/internal/model"
)

// NewExportCommand creates the "export" command group.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project as PDF report, box labels or packing list",
	}

	cmd.AddCommand(newExportSubcommand("pdf", "Write the PDF loading report", export.ExportPDF))
	cmd.AddCommand(newExportSubcommand("labels", "Write QR-coded labels for every loaded box", export.ExportLabels))
	cmd.AddCommand(newExportSubcommand("xlsx", "Write the XLSX packing list", export.ExportPackingList))
	return cmd
}

func newExportSubcommand(name, short string, write func(string, *model.Project) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <project.clp> <output>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p, err := s.openProject(args[0])
			if err != nil {
				return err
			}
			if err := write(args[1], p); err != nil {
				return WrapCLIError(ExitGeneralError, "export "+name+" failed", err)
			}
			s.log.Debug("exported", "format", name, "path", args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
			return nil
		},
	}
}
