package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StowPlan/internal/model"
)

// NewStackCommand creates the "stack" command.
func NewStackCommand() *cobra.Command {
	var keepPosition bool

	cmd := &cobra.Command{
		Use:   "stack <project.clp> <box> <onto>",
		Short: "Put a loose box on top of another box or stack",
		Long: `Put a loose box on top of another box or an existing stack.

The box is first moved onto the target position unless --keep-position is
given, in which case its centre must already lie within the snap tolerance.
Both must share length, width and rotation, and the new stack must still
pass the door opening.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStack(cmd, args[0], args[1], args[2], keepPosition)
		},
	}

	cmd.Flags().BoolVar(&keepPosition, "keep-position", false, "Do not move the box onto the target first")
	return cmd
}

func runStack(cmd *cobra.Command, path, boxName, ontoName string, keepPosition bool) error {
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := s.openProject(path)
	if err != nil {
		return err
	}

	it, err := findItem(p, boxName)
	if err != nil {
		return err
	}
	b, ok := it.(*model.Box)
	if !ok {
		return WrapCLIError(ExitUsage, fmt.Sprintf("%q is a stack; only loose boxes can be stacked", boxName), nil)
	}
	target, err := findItem(p, ontoName)
	if err != nil {
		return err
	}
	if target == it {
		return WrapCLIError(ExitUsage, "cannot stack a box onto itself", nil)
	}

	oldX, oldY := b.X, b.Y
	if !keepPosition {
		b.MoveTo(itemPosition(target))
	}

	var result *model.Stack
	switch t := target.(type) {
	case *model.Box:
		result, err = s.engine.CreateStack([]*model.Box{t, b}, p.Container)
		if err == nil {
			err = p.Replace(result, t, b)
		}
	case *model.Stack:
		result, err = s.engine.AddToStack(t, b, p.Container)
		if err == nil {
			p.Remove(b)
		}
	default:
		err = fmt.Errorf("unsupported item %T", target)
	}
	if err != nil {
		b.MoveTo(oldX, oldY)
		return WrapCLIError(ExitGeneralError, "cannot stack", err)
	}

	if err := s.saveProject(path, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d boxes, %.0f mm\n", result.Name, result.BoxCount(), result.TotalHeight())
	return nil
}

// NewRotateCommand creates the "rotate" command.
func NewRotateCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rotate <project.clp> <item>",
		Short: "Rotate a box or stack by 90 degrees in place",
		Long: `Rotate a box or stack by 90 degrees about its position. The rotation is
refused when the item would then collide, unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], args[1], force, rotateItem, rotateItem)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Keep the change even if it collides")
	return cmd
}

// NewMoveCommand creates the "move" command.
func NewMoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "move <project.clp> <item> <x> <y>",
		Short: "Move a box or stack to a floor position in mm",
		Long: `Move a box or stack so that its rear-left corner lies at (x, y). The move
is refused when the item would then collide, unless --force is given.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return WrapCLIError(ExitUsage, "invalid x "+args[2], err)
			}
			y, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return WrapCLIError(ExitUsage, "invalid y "+args[3], err)
			}

			var oldX, oldY float64
			apply := func(it model.Item) {
				oldX, oldY = itemPosition(it)
				moveItem(it, x, y)
			}
			undo := func(it model.Item) {
				moveItem(it, oldX, oldY)
			}
			return runEdit(cmd, args[0], args[1], force, apply, undo)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Keep the change even if it collides")
	return cmd
}

// runEdit applies a change to one item, checks it, and either saves the
// project or undoes the change.
func runEdit(cmd *cobra.Command, path, name string, force bool, apply, undo func(model.Item)) error {
	s, err := loadSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, err := s.openProject(path)
	if err != nil {
		return err
	}
	it, err := findItem(p, name)
	if err != nil {
		return err
	}

	apply(it)
	ok, offenders, err := s.engine.CheckCollisions(it, p.Items(), p.Container)
	if err != nil {
		undo(it)
		return WrapCLIError(ExitGeneralError, "collision check failed", err)
	}
	if !ok {
		names := strings.Join(offenderNames(it, offenders), ", ")
		if !force {
			undo(it)
			return WrapCLIError(ExitGeneralError, fmt.Sprintf("%s would collide with %s", name, names), nil)
		}
		s.log.Warn("item collides", "item", name, "with", names)
	}

	if err := s.saveProject(path, p); err != nil {
		return err
	}
	x, y := itemPosition(it)
	bb := it.BoundingBox()
	fmt.Fprintf(cmd.OutOrStdout(), "%s at (%.0f, %.0f), %.0f x %.0f mm\n", name, x, y, bb.Width(), bb.Height())
	return nil
}

func rotateItem(it model.Item) {
	switch v := it.(type) {
	case *model.Box:
		v.Rotate()
	case *model.Stack:
		v.Rotate()
	}
}

func moveItem(it model.Item, x, y float64) {
	switch v := it.(type) {
	case *model.Box:
		v.MoveTo(x, y)
	case *model.Stack:
		v.MoveTo(x, y)
	}
}

func itemPosition(it model.Item) (float64, float64) {
	switch v := it.(type) {
	case *model.Box:
		return v.X, v.Y
	case *model.Stack:
		return v.Position()
	}
	return 0, 0
}
