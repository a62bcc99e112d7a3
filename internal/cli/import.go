package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/importer"
	"github.com/piwi3910/StowPlan/internal/model"
)

type importFlags struct {
	stacked bool
	height  float64
	weight  float64
	originX float64
	originY float64
}

// NewImportCommand creates the "import" command.
func NewImportCommand() *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <project.clp> <file>",
		Short: "Append boxes from a CSV, XLSX or DXF file",
		Long: `Append boxes from a box list (CSV or XLSX) or a DXF floor plan.

Box lists are matched by header (English or German column names) or, without
a header, read as Name, Quantity, Length, Width, Height, Weight, Colour.
Rows with a quantity above one become <name>_<i>, or one stack with --stacked.

A DXF floor plan turns every closed shape into a box footprint; --height is
required and applies to every box.

Examples:
  stowplan import shipment.clp boxes.csv
  stowplan import shipment.clp packliste.xlsx --stacked
  stowplan import shipment.clp floor.dxf --height 1200 --weight 40`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], flags)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.stacked, "stacked", false, "Pile rows with a quantity above one into stacks")
	f.Float64Var(&flags.height, "height", 0, "Box height in mm (DXF only)")
	f.Float64Var(&flags.weight, "weight", 0, "Box weight in kg (DXF only)")
	f.Float64Var(&flags.originX, "origin-x", 0, "Drawing X of the container's rear-left corner (DXF only)")
	f.Float64Var(&flags.originY, "origin-y", 0, "Drawing Y of the container's rear-left corner (DXF only)")
	return cmd
}

func runImport(cmd *cobra.Command, path, source string, flags *importFlags) error {
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := s.openProject(path)
	if err != nil {
		return err
	}

	var result importer.ImportResult
	if strings.EqualFold(filepath.Ext(source), ".dxf") {
		result = importer.ImportDXF(source, importer.DXFOptions{
			Height: flags.height,
			Weight: flags.weight,
			Origin: model.Point2D{X: flags.originX, Y: flags.originY},
		})
	} else {
		result = importer.ImportFile(source, importer.Options{Stacked: flags.stacked})
	}

	for _, w := range result.Warnings {
		s.log.Info("import", "warning", w)
	}
	for _, e := range result.Errors {
		s.log.Warn("import", "error", e)
	}
	if len(result.Items) == 0 {
		msg := "no boxes imported"
		if len(result.Errors) > 0 {
			msg += ": " + result.Errors[0]
		}
		return WrapCLIError(ExitGeneralError, msg, nil)
	}

	if err := p.Add(result.Items...); err != nil {
		return WrapCLIError(ExitGeneralError, "cannot add imported items", err)
	}
	if err := s.saveProject(path, p); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"items":    len(result.Items),
			"boxes":    len(result.Boxes()),
			"errors":   nonNil(result.Errors),
			"warnings": nonNil(result.Warnings),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d item(s), %d box(es) from %s", len(result.Items), len(result.Boxes()), source)
	if n := len(result.Errors); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d row(s) skipped", n)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
