package engine

import (
	"github.com/piwi3910/StowPlan/internal/model"
)

// Violation lists everything wrong with one item of a layout.
type Violation struct {
	Item       model.Item
	Outside    bool
	DoorHeight bool
	Overlaps   []model.Item
}

// Audit checks every item against all others and returns one Violation per
// item that fails any check, in item order. An overlapping pair is reported
// on both items.
func (e *Engine) Audit(items []model.Item, c model.Container) ([]Violation, error) {
	var violations []Violation
	for _, it := range items {
		ok, offenders, err := e.CheckCollisions(it, items, c)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		v := Violation{Item: it}
		for _, o := range offenders {
			switch {
			case IsDoorHeight(o):
				v.DoorHeight = true
			case o == Offender(it):
				v.Outside = true
			default:
				if other, isItem := o.(model.Item); isItem {
					v.Overlaps = append(v.Overlaps, other)
				}
			}
		}
		violations = append(violations, v)
	}
	e.log().Debug("layout audited", "items", len(items), "violations", len(violations))
	return violations, nil
}

// LoadSummary holds key figures of a layout.
type LoadSummary struct {
	Items            int
	Boxes            int
	LoadedItems      int
	WaitingItems     int
	LoadedWeight     float64
	WaitingWeight    float64
	FloorUtilization float64 // Percent of the container floor covered by loaded items
	MaxStackHeight   float64
}

// Summarize computes a LoadSummary for the items in c. Items are split into
// loaded and waiting by the container boundary.
func Summarize(items []model.Item, c model.Container) LoadSummary {
	s := LoadSummary{Items: len(items)}
	var usedArea float64
	for _, it := range items {
		s.Boxes += len(model.ItemBoxes(it))
		w := model.ItemWeight(it)
		if IsWithinContainer(it, c) {
			s.LoadedItems++
			s.LoadedWeight += w
			usedArea += it.BoundingBox().Area()
			if h := model.ItemHeight(it); h > s.MaxStackHeight {
				s.MaxStackHeight = h
			}
		} else {
			s.WaitingItems++
			s.WaitingWeight += w
		}
	}
	if area := c.FloorArea(); area > 0 {
		s.FloorUtilization = usedArea / area * 100
	}
	return s
}
