package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/piwi3910/StowPlan/internal/project"
)

type newFlags struct {
	container string
	name      string
	force     bool
}

// NewNewCommand creates the "new" command.
func NewNewCommand() *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new <project.clp>",
		Short: "Create an empty project for a container type",
		Long: `Create an empty project document for a container type of the catalog.

Examples:
  stowplan new shipment.clp
  stowplan new shipment.clp --container 40ft-hc --name "Shipment 42"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.container, "container", "", "Container ID (default from config)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Project name (default: file name)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing file")
	return cmd
}

func runNew(cmd *cobra.Command, path string, flags *newFlags) error {
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += project.FileExtension
	}
	if _, err := os.Stat(path); err == nil && !flags.force {
		return WrapCLIError(ExitUsage, fmt.Sprintf("%s already exists, use --force to overwrite", path), nil)
	}

	c, err := s.container(flags.container)
	if err != nil {
		return err
	}
	name := flags.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	p := model.NewProject(name, c)
	if err := s.saveProject(path, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", path, c.Name)
	return nil
}

type addFlags struct {
	preset  string
	name    string
	length  float64
	width   float64
	height  float64
	weight  float64
	color   string
	qty     int
	x, y    float64
	rotate  bool
	stacked bool
}

// NewAddCommand creates the "add" command.
func NewAddCommand() *cobra.Command {
	flags := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add <project.clp>",
		Short: "Add boxes from a preset or explicit dimensions",
		Long: `Add one or more boxes to a project. Boxes come either from a saved preset
or from explicit dimensions. With --qty greater than one the boxes are
named <name>_<i> and laid out in a row along the container length, or
piled into one stack with --stacked.

Collisions are reported as warnings; the boxes are added anyway so they
can be arranged afterwards.

Examples:
  stowplan add shipment.clp --preset "EUR pallet" --qty 4
  stowplan add shipment.clp --name Crate -l 1000 -w 800 -H 900 --weight 80 --x 2400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.preset, "preset", "", "Box preset name or ID")
	f.StringVar(&flags.name, "name", "", "Box name (default: preset name)")
	f.Float64VarP(&flags.length, "length", "l", 0, "Length in mm")
	f.Float64VarP(&flags.width, "width", "w", 0, "Width in mm")
	f.Float64VarP(&flags.height, "height", "H", 0, "Height in mm")
	f.Float64Var(&flags.weight, "weight", 0, "Weight in kg")
	f.StringVar(&flags.color, "color", "", "Colour as #RRGGBB")
	f.IntVar(&flags.qty, "qty", 1, "Number of boxes")
	f.Float64Var(&flags.x, "x", 0, "X position in mm")
	f.Float64Var(&flags.y, "y", 0, "Y position in mm")
	f.BoolVar(&flags.rotate, "rotate", false, "Rotate by 90 degrees")
	f.BoolVar(&flags.stacked, "stacked", false, "Pile the boxes into one stack")
	return cmd
}

func runAdd(cmd *cobra.Command, path string, flags *addFlags) error {
	if flags.qty < 1 {
		return WrapCLIError(ExitUsage, "--qty must be at least 1", nil)
	}
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := s.openProject(path)
	if err != nil {
		return err
	}

	newBox, baseName, err := boxFactory(flags)
	if err != nil {
		return err
	}

	boxes := make([]*model.Box, flags.qty)
	x := flags.x
	for i := range boxes {
		name := baseName
		if flags.qty > 1 {
			name = fmt.Sprintf("%s_%d", baseName, i+1)
		}
		b, err := newBox(name)
		if err != nil {
			return WrapCLIError(ExitUsage, "invalid box", err)
		}
		if flags.rotate {
			b.Rotate()
		}
		if flags.stacked {
			b.MoveTo(flags.x, flags.y)
		} else {
			b.MoveTo(x, flags.y)
			x += b.PlacedLength()
		}
		boxes[i] = b
	}

	var items []model.Item
	if flags.stacked && len(boxes) > 1 {
		st, err := s.engine.CreateStack(boxes, p.Container)
		if err != nil {
			return WrapCLIError(ExitGeneralError, "cannot stack boxes", err)
		}
		items = append(items, st)
	} else {
		for _, b := range boxes {
			items = append(items, b)
		}
	}

	for _, it := range items {
		ok, offenders, err := s.engine.CheckCollisions(it, p.Items(), p.Container)
		if err != nil {
			return WrapCLIError(ExitGeneralError, "collision check failed", err)
		}
		if !ok {
			s.log.Warn("item collides", "item", it.Label(), "with", offenderNames(it, offenders))
		}
		if err := p.Add(it); err != nil {
			return WrapCLIError(ExitGeneralError, "cannot add item", err)
		}
	}

	if err := s.saveProject(path, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d item(s) to %s\n", len(items), path)
	return nil
}

// boxFactory returns a constructor for the requested boxes and their base name.
func boxFactory(flags *addFlags) (func(name string) (*model.Box, error), string, error) {
	if flags.preset != "" {
		inv, err := project.LoadInventory(inventoryPath)
		if err != nil {
			return nil, "", WrapCLIError(ExitGeneralError, "cannot load box presets", err)
		}
		bp := inv.FindBoxByName(flags.preset)
		if bp == nil {
			bp = inv.FindBoxByID(flags.preset)
		}
		if bp == nil {
			return nil, "", WrapCLIError(ExitUsage, fmt.Sprintf("no preset %q (have: %s)",
				flags.preset, strings.Join(inv.BoxNames(), ", ")), nil)
		}
		preset := *bp
		base := flags.name
		if base == "" {
			base = preset.Name
		}
		return func(name string) (*model.Box, error) {
			b, err := preset.ToBox(name)
			if err != nil {
				return nil, err
			}
			if flags.color != "" {
				b.Color = flags.color
			}
			return b, b.Validate()
		}, base, nil
	}

	if flags.name == "" {
		return nil, "", WrapCLIError(ExitUsage, "either --preset or --name with dimensions is required", nil)
	}
	return func(name string) (*model.Box, error) {
		b := model.NewBox(name, flags.length, flags.width, flags.height)
		b.Weight = flags.weight
		if flags.color != "" {
			b.Color = flags.color
		}
		return b, b.Validate()
	}, flags.name, nil
}
