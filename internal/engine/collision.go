package engine

import (
	"fmt"

	"github.com/piwi3910/StowPlan/internal/model"
)

// Offender is an entry in a collision result: the candidate itself when it
// leaves the container, a placed item it overlaps, or DoorHeightCollision.
type Offender interface {
	Label() string
}

type doorHeightMarker struct{}

func (doorHeightMarker) Label() string { return "_door_height_" }

func (doorHeightMarker) String() string { return "door height exceeded" }

// DoorHeightCollision is reported when a stack is taller than the door opening.
// It carries no geometry; compare offenders against it with IsDoorHeight.
var DoorHeightCollision Offender = doorHeightMarker{}

// IsDoorHeight reports whether o is the door height marker.
func IsDoorHeight(o Offender) bool {
	_, ok := o.(doorHeightMarker)
	return ok
}

// Overlaps reports whether the floor rectangles of a and b share interior area.
func Overlaps(a, b model.Item) bool {
	return a.BoundingBox().Overlaps(b.BoundingBox())
}

// IsWithinContainer reports whether the item lies on the container floor.
// Touching the walls is allowed.
func IsWithinContainer(it model.Item, c model.Container) bool {
	return it.BoundingBox().Within(c.InnerLength, c.InnerWidth)
}

// CheckCollisions runs the boundary, door height and overlap checks for
// candidate against placed. All checks run so every violation is reported.
// ok is true iff offenders is empty. Collisions are not errors; err is only
// set for malformed input.
func (e *Engine) CheckCollisions(candidate model.Item, placed []model.Item, c model.Container) (bool, []Offender, error) {
	if err := c.Validate(); err != nil {
		return false, nil, err
	}
	if err := validateItem(candidate); err != nil {
		return false, nil, fmt.Errorf("candidate: %w", err)
	}
	for i, it := range placed {
		if err := validateItem(it); err != nil {
			return false, nil, fmt.Errorf("placed item %d: %w", i, err)
		}
	}

	log := e.log()
	var offenders []Offender
	cbb := candidate.BoundingBox()

	if !cbb.Within(c.InnerLength, c.InnerWidth) {
		log.Debug("item outside container", "item", candidate.Label(), "bbox", cbb)
		offenders = append(offenders, candidate)
	}

	if h, ok := candidate.(model.HeightItem); ok && h.TotalHeight() > c.DoorHeight {
		log.Debug("stack exceeds door height", "item", candidate.Label(),
			"height_mm", h.TotalHeight(), "door_height_mm", c.DoorHeight)
		offenders = append(offenders, DoorHeightCollision)
	}

	grid := NewGrid(e.cellSize(), model.BBox{MaxX: c.InnerLength, MaxY: c.InnerWidth}, placed)
	for _, other := range grid.Query(cbb) {
		if other == candidate {
			continue
		}
		if cbb.Overlaps(other.BoundingBox()) {
			log.Debug("overlap", "item", candidate.Label(), "other", other.Label())
			offenders = append(offenders, other)
		}
	}

	return len(offenders) == 0, offenders, nil
}

func validateItem(it model.Item) error {
	if model.IsNilItem(it) {
		return fmt.Errorf("%w: nil item", model.ErrInvalidInput)
	}
	if s, ok := it.(*model.Stack); ok && s.BoxCount() == 0 {
		return fmt.Errorf("%w: stack %q has no boxes", model.ErrInvalidInput, s.Name)
	}
	if bb := it.BoundingBox(); !bb.Valid() {
		return fmt.Errorf("%w: item %q has an invalid bounding box", model.ErrInvalidInput, it.Label())
	}
	return nil
}
