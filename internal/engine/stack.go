package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/StowPlan/internal/model"
)

// StackNamePrefix is prepended to the first box name when a stack is created.
const StackNamePrefix = "Stack_"

// CanStack reports whether b may be placed on a: identical length, width and
// rotation, centres within the snap tolerance on both axes, and a combined
// height that still passes the door.
func (e *Engine) CanStack(a, b *model.Box, c model.Container) bool {
	return e.stackProblem(a, b, c) == ""
}

// stackProblem returns why b cannot go on a, or "" when it can.
func (e *Engine) stackProblem(a, b *model.Box, c model.Container) string {
	if a == nil || b == nil {
		return "missing box"
	}
	if a.Length != b.Length || a.Width != b.Width {
		return fmt.Sprintf("footprint %.0fx%.0f differs from %.0fx%.0f", b.Length, b.Width, a.Length, a.Width)
	}
	if a.Rotation != b.Rotation {
		return fmt.Sprintf("rotation %s differs from %s", b.Rotation, a.Rotation)
	}
	if !e.centersAligned(a, b) {
		return fmt.Sprintf("centre is more than %.0f mm away", e.snapTolerance())
	}
	if a.Height+b.Height > c.DoorHeight {
		return fmt.Sprintf("combined height %.0f mm exceeds door height %.0f mm", a.Height+b.Height, c.DoorHeight)
	}
	return ""
}

func (e *Engine) centersAligned(a, b *model.Box) bool {
	tol := e.snapTolerance()
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Abs(ax-bx) <= tol && math.Abs(ay-by) <= tol
}

// CreateStack merges boxes into a new stack named after the first box.
// Every box after the first must pass CanStack against it and the summed
// height must pass the door. On success all boxes are moved onto the first
// box's position.
func (e *Engine) CreateStack(boxes []*model.Box, c model.Container) (*model.Stack, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, model.NewGeometryError("cannot create a stack from an empty box list")
	}
	for i, b := range boxes {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("box %d: %w", i+1, err)
		}
	}

	base := boxes[0]
	var total float64
	for i, b := range boxes {
		total += b.Height
		if i == 0 {
			continue
		}
		if reason := e.stackProblem(base, b, c); reason != "" {
			return nil, model.NewGeometryError("box %d (%s) cannot be stacked on %s: %s", i+1, b.Name, base.Name, reason)
		}
	}
	if total > c.DoorHeight {
		return nil, model.NewGeometryError("stack height %.0f mm exceeds door height %.0f mm", total, c.DoorHeight)
	}

	for _, b := range boxes[1:] {
		b.MoveTo(base.X, base.Y)
	}
	s, err := model.NewStack(StackNamePrefix+base.Name, boxes...)
	if err != nil {
		return nil, err
	}
	s.SnapTolerance = e.snapTolerance()

	e.log().Debug("stack created", "stack", s.Name, "boxes", s.BoxCount(), "height_mm", s.TotalHeight())
	return s, nil
}

// AddToStack places b on top of s. b must match the reference box and lie
// within the stack's snap tolerance of it (the engine setting when the stack
// has none); the new total height must pass the door.
// On success b is moved onto the stack position and s itself is returned.
func (e *Engine) AddToStack(s *model.Stack, b *model.Box, c model.Container) (*model.Stack, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s == nil || s.BoxCount() == 0 {
		return nil, model.NewGeometryError("cannot add to an empty stack")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	ref := s.Reference()
	if ref.Length != b.Length || ref.Width != b.Width || ref.Rotation != b.Rotation {
		return nil, model.NewGeometryError("box %s does not match the footprint and rotation of stack %s", b.Name, s.Name)
	}
	if s.SnapTolerance <= 0 {
		s.SnapTolerance = e.snapTolerance()
	}
	if !s.Fits(b) {
		return nil, model.NewGeometryError("box %s is more than %.0f mm away from stack %s", b.Name, s.SnapTolerance, s.Name)
	}
	if h := s.TotalHeight() + b.Height; h > c.DoorHeight {
		return nil, model.NewGeometryError("stack height %.0f mm would exceed door height %.0f mm", h, c.DoorHeight)
	}

	if err := s.Add(b); err != nil {
		return nil, err
	}
	e.log().Debug("box added to stack", "stack", s.Name, "box", b.Name, "height_mm", s.TotalHeight())
	return s, nil
}
