package model

import (
	"fmt"
	"math"
)

// DefaultSnapTolerance is the maximum centre offset (mm, per axis) at which
// two boxes still snap onto each other.
const DefaultSnapTolerance = 10.0

// Stack is an ordered pile of boxes sharing length, width and rotation.
// Position, rotation and footprint are those of the first (reference) box.
// A stack always holds at least one box once built with NewStack.
type Stack struct {
	Name          string  `json:"name"`
	SnapTolerance float64 `json:"snap_tolerance_mm"`

	boxes []*Box
}

// NewStack wraps boxes into a stack. All boxes must share length, width and
// rotation. Positions are not changed.
func NewStack(name string, boxes ...*Box) (*Stack, error) {
	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w: a stack needs at least one box", ErrInvalidInput)
	}
	first := boxes[0]
	for i, b := range boxes {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !sameShape(first, b) {
			return nil, fmt.Errorf("%w: box %q does not share length, width and rotation with %q",
				ErrInvalidInput, b.Name, first.Name)
		}
	}
	return &Stack{
		Name:          name,
		SnapTolerance: DefaultSnapTolerance,
		boxes:         append([]*Box(nil), boxes...),
	}, nil
}

func (s *Stack) Label() string {
	return s.Name
}

func (s *Stack) String() string {
	x, y := s.Position()
	return fmt.Sprintf("%s (%d boxes, %.0f mm @ %.0f,%.0f)", s.Name, len(s.boxes), s.TotalHeight(), x, y)
}

// Reference returns the first box, or nil for an empty stack.
func (s *Stack) Reference() *Box {
	if len(s.boxes) == 0 {
		return nil
	}
	return s.boxes[0]
}

// Boxes returns the members bottom to top. The slice is a copy.
func (s *Stack) Boxes() []*Box {
	return append([]*Box(nil), s.boxes...)
}

func (s *Stack) BoxCount() int {
	return len(s.boxes)
}

// Position returns the stack position, which is that of its reference box.
func (s *Stack) Position() (float64, float64) {
	ref := s.Reference()
	if ref == nil {
		return 0, 0
	}
	return ref.X, ref.Y
}

func (s *Stack) Rotation() Rotation {
	if ref := s.Reference(); ref != nil {
		return ref.Rotation
	}
	return Rot0
}

// Length returns the extent along the container length, considering rotation.
func (s *Stack) Length() float64 {
	if ref := s.Reference(); ref != nil {
		return ref.PlacedLength()
	}
	return 0
}

// Width returns the extent along the container width, considering rotation.
func (s *Stack) Width() float64 {
	if ref := s.Reference(); ref != nil {
		return ref.PlacedWidth()
	}
	return 0
}

// BoundingBox returns the floor rectangle of the reference box.
func (s *Stack) BoundingBox() BBox {
	if ref := s.Reference(); ref != nil {
		return ref.BoundingBox()
	}
	return BBox{}
}

// Center returns the snap centre of the reference box.
func (s *Stack) Center() (float64, float64) {
	if ref := s.Reference(); ref != nil {
		return ref.Center()
	}
	return 0, 0
}

// TotalHeight returns the summed height of all members.
func (s *Stack) TotalHeight() float64 {
	var h float64
	for _, b := range s.boxes {
		h += b.Height
	}
	return h
}

// TotalWeight returns the summed weight of all members.
func (s *Stack) TotalWeight() float64 {
	var w float64
	for _, b := range s.boxes {
		w += b.Weight
	}
	return w
}

// Fits reports whether b matches the reference box in footprint and rotation
// and lies within the stack's snap tolerance of it.
func (s *Stack) Fits(b *Box) bool {
	ref := s.Reference()
	if ref == nil || b == nil || !sameShape(ref, b) {
		return false
	}
	tol := s.SnapTolerance
	if tol <= 0 {
		tol = DefaultSnapTolerance
	}
	rx, ry := ref.Center()
	bx, by := b.Center()
	return math.Abs(rx-bx) <= tol && math.Abs(ry-by) <= tol
}

// Add snaps b onto the stack position and appends it. It enforces only the
// shape invariant; snap tolerance and door height are checked by the caller.
func (s *Stack) Add(b *Box) error {
	ref := s.Reference()
	if ref == nil {
		return fmt.Errorf("%w: stack %q is empty", ErrInvalidInput, s.Name)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if !sameShape(ref, b) {
		return fmt.Errorf("%w: box %q does not share length, width and rotation with stack %q",
			ErrInvalidInput, b.Name, s.Name)
	}
	b.MoveTo(ref.X, ref.Y)
	s.boxes = append(s.boxes, b)
	return nil
}

// MoveTo moves every member to (x, y).
func (s *Stack) MoveTo(x, y float64) {
	for _, b := range s.boxes {
		b.MoveTo(x, y)
	}
}

// Rotate turns the whole stack by 90°.
func (s *Stack) Rotate() {
	for _, b := range s.boxes {
		b.Rotate()
	}
}
