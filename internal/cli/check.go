package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/engine"
	"github.com/piwi3910/StowPlan/internal/model"
)

type checkFlags struct {
	loadedOnly bool
}

// NewCheckCommand creates the "check" command.
func NewCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check <project.clp>",
		Short: "Check every item against the walls, the door and each other",
		Long: `Check every item of a project: container boundary, door height for
stacks, and overlap with every other item. Exits with status 1 when any
violation is found.

Items parked outside the container are reported as boundary violations;
use --loaded-only to check only the items on the container floor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.loadedOnly, "loaded-only", false, "Skip items outside the container")
	return cmd
}

func runCheck(cmd *cobra.Command, path string, flags *checkFlags) error {
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := s.openProject(path)
	if err != nil {
		return err
	}

	items := p.Items()
	if flags.loadedOnly {
		items, _ = p.Split()
	}
	violations, err := s.engine.Audit(items, p.Container)
	if err != nil {
		return WrapCLIError(ExitGeneralError, "check failed", err)
	}
	summary := engine.Summarize(p.Items(), p.Container)

	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), newCheckReport(p, summary, violations)); err != nil {
			return err
		}
	} else {
		printCheckText(cmd.OutOrStdout(), p, summary, violations)
	}

	if len(violations) > 0 {
		return &CLIError{Code: ExitViolations}
	}
	return nil
}

type checkReport struct {
	Project    string          `json:"project"`
	Container  string          `json:"container"`
	OK         bool            `json:"ok"`
	Summary    summaryJSON     `json:"summary"`
	Violations []violationJSON `json:"violations"`
}

type summaryJSON struct {
	Items            int     `json:"items"`
	Boxes            int     `json:"boxes"`
	LoadedItems      int     `json:"loaded_items"`
	WaitingItems     int     `json:"waiting_items"`
	LoadedWeight     float64 `json:"loaded_weight_kg"`
	WaitingWeight    float64 `json:"waiting_weight_kg"`
	FloorUtilization float64 `json:"floor_utilization_pct"`
	MaxStackHeight   float64 `json:"max_height_mm"`
}

type violationJSON struct {
	Item       string   `json:"item"`
	Outside    bool     `json:"outside"`
	DoorHeight bool     `json:"door_height"`
	Overlaps   []string `json:"overlaps"`
}

func newCheckReport(p *model.Project, sum engine.LoadSummary, violations []engine.Violation) checkReport {
	r := checkReport{
		Project:   p.Name,
		Container: p.Container.ID,
		OK:        len(violations) == 0,
		Summary: summaryJSON{
			Items:            sum.Items,
			Boxes:            sum.Boxes,
			LoadedItems:      sum.LoadedItems,
			WaitingItems:     sum.WaitingItems,
			LoadedWeight:     sum.LoadedWeight,
			WaitingWeight:    sum.WaitingWeight,
			FloorUtilization: sum.FloorUtilization,
			MaxStackHeight:   sum.MaxStackHeight,
		},
		Violations: make([]violationJSON, 0, len(violations)),
	}
	for _, v := range violations {
		r.Violations = append(r.Violations, violationJSON{
			Item:       v.Item.Label(),
			Outside:    v.Outside,
			DoorHeight: v.DoorHeight,
			Overlaps:   itemNames(v.Overlaps),
		})
	}
	return r
}

func printCheckText(w io.Writer, p *model.Project, sum engine.LoadSummary, violations []engine.Violation) {
	c := p.Container
	fmt.Fprintf(w, "%s: %s (%.0f x %.0f x %.0f mm, door %.0f mm)\n",
		p.Name, c.Name, c.InnerLength, c.InnerWidth, c.InnerHeight, c.DoorHeight)
	fmt.Fprintf(w, "Items: %d (%d boxes), loaded %d, waiting %d\n",
		sum.Items, sum.Boxes, sum.LoadedItems, sum.WaitingItems)
	fmt.Fprintf(w, "Loaded weight: %.1f kg, floor %.1f%%, max height %.0f mm\n",
		sum.LoadedWeight, sum.FloorUtilization, sum.MaxStackHeight)

	if len(violations) == 0 {
		fmt.Fprintln(w, "OK: no violations")
		return
	}
	fmt.Fprintf(w, "%d item(s) with violations:\n", len(violations))
	for _, v := range violations {
		var problems []string
		if v.Outside {
			problems = append(problems, "outside container")
		}
		if v.DoorHeight {
			problems = append(problems, "exceeds door height")
		}
		if len(v.Overlaps) > 0 {
			problems = append(problems, "overlaps "+strings.Join(itemNames(v.Overlaps), ", "))
		}
		fmt.Fprintf(w, "  %s: %s\n", v.Item.Label(), strings.Join(problems, "; "))
	}
}

func itemNames(items []model.Item) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Label())
	}
	return names
}
