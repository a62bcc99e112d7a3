package model

import "math"

// BBox is an axis-aligned rectangle on the container floor in mm.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Overlaps reports whether two rectangles share interior area.
// Rectangles that only touch along an edge or corner do not overlap.
func (a BBox) Overlaps(b BBox) bool {
	if a.MaxX <= b.MinX || b.MaxX <= a.MinX {
		return false
	}
	if a.MaxY <= b.MinY || b.MaxY <= a.MinY {
		return false
	}
	return true
}

// Within reports whether the rectangle lies inside [0,length]×[0,width].
// Touching the walls is allowed.
func (a BBox) Within(length, width float64) bool {
	return a.MinX >= 0 && a.MaxX <= length && a.MinY >= 0 && a.MaxY <= width
}

// Valid reports whether all coordinates are finite and min ≤ max on both axes.
func (a BBox) Valid() bool {
	for _, v := range []float64{a.MinX, a.MinY, a.MaxX, a.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return a.MinX <= a.MaxX && a.MinY <= a.MaxY
}

func (a BBox) Width() float64 {
	return a.MaxX - a.MinX
}

func (a BBox) Height() float64 {
	return a.MaxY - a.MinY
}

func (a BBox) Area() float64 {
	return a.Width() * a.Height()
}
