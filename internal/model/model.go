package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Rotation represents the in-plane orientation of a box on the container floor.
type Rotation int

const (
	Rot0  Rotation = 0  // Length runs along the container length (X axis)
	Rot90 Rotation = 90 // Length runs along the container width (Y axis)
)

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// Valid reports whether r is one of the supported quarter turns.
func (r Rotation) Valid() bool {
	return r == Rot0 || r == Rot90
}

// Toggle returns the other orientation.
func (r Rotation) Toggle() Rotation {
	if r == Rot0 {
		return Rot90
	}
	return Rot0
}

// DefaultColor is used for boxes created without an explicit colour.
const DefaultColor = "#FFFFFF"

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Container is the fixed packing volume. All dimensions are inner
// dimensions in mm. Containers are values and never change after creation.
type Container struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	InnerLength float64 `json:"inner_length_mm" yaml:"inner_length_mm"`
	InnerWidth  float64 `json:"inner_width_mm" yaml:"inner_width_mm"`
	InnerHeight float64 `json:"inner_height_mm" yaml:"inner_height_mm"`
	DoorHeight  float64 `json:"door_height_mm" yaml:"door_height_mm"` // Max stack height through the door opening
}

// NewContainer returns an uncatalogued container with a fresh short ID.
// Dimensions are taken as given; call Validate before use.
func NewContainer(name string, length, width, height, doorHeight float64) Container {
	return Container{
		ID:          uuid.New().String()[:8],
		Name:        name,
		InnerLength: length,
		InnerWidth:  width,
		InnerHeight: height,
		DoorHeight:  doorHeight,
	}
}

// Validate checks that every dimension is positive.
func (c Container) Validate() error {
	for _, v := range []float64{c.InnerLength, c.InnerWidth, c.InnerHeight, c.DoorHeight} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: container %q dimensions must be positive", ErrInvalidInput, c.ID)
		}
	}
	return nil
}

// FloorArea returns the usable floor area in mm².
func (c Container) FloorArea() float64 {
	return c.InnerLength * c.InnerWidth
}

// Box is a single rectangular package. Position and rotation change while
// the user arranges the load; dimensions are fixed.
type Box struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Length   float64  `json:"length_mm"`
	Width    float64  `json:"width_mm"`
	Height   float64  `json:"height_mm"`
	Weight   float64  `json:"weight_kg"`
	Color    string   `json:"color_hex"`
	X        float64  `json:"pos_x_mm"` // Position from the container's rear-left corner
	Y        float64  `json:"pos_y_mm"`
	Rotation Rotation `json:"rot_deg"`

	// CenterOverride pins the snap centre when set; otherwise the centre is
	// derived from position and rotated extents.
	CenterOverride *Point2D `json:"center,omitempty"`
}

func NewBox(name string, length, width, height float64) *Box {
	return &Box{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Length: length,
		Width:  width,
		Height: height,
		Color:  DefaultColor,
	}
}

// Validate checks dimensions, weight, colour and rotation.
func (b *Box) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil box", ErrInvalidInput)
	}
	if !(b.Length > 0) || !(b.Width > 0) || !(b.Height > 0) {
		return fmt.Errorf("%w: box %q dimensions must be positive", ErrInvalidInput, b.Name)
	}
	if b.Weight < 0 || math.IsNaN(b.Weight) {
		return fmt.Errorf("%w: box %q weight must not be negative", ErrInvalidInput, b.Name)
	}
	if !strings.HasPrefix(b.Color, "#") {
		return fmt.Errorf("%w: box %q colour must be a hex string", ErrInvalidInput, b.Name)
	}
	if !b.Rotation.Valid() {
		return fmt.Errorf("%w: box %q rotation must be 0 or 90, got %d", ErrInvalidInput, b.Name, int(b.Rotation))
	}
	return nil
}

func (b *Box) Label() string {
	return b.Name
}

func (b *Box) String() string {
	return fmt.Sprintf("%s (%.0fx%.0fx%.0f @ %.0f,%.0f %s)", b.Name, b.Length, b.Width, b.Height, b.X, b.Y, b.Rotation)
}

// PlacedLength returns the extent along the container length, considering rotation.
func (b *Box) PlacedLength() float64 {
	if b.Rotation == Rot90 {
		return b.Width
	}
	return b.Length
}

// PlacedWidth returns the extent along the container width, considering rotation.
func (b *Box) PlacedWidth() float64 {
	if b.Rotation == Rot90 {
		return b.Length
	}
	return b.Width
}

// BoundingBox returns the floor rectangle occupied by the box.
func (b *Box) BoundingBox() BBox {
	return BBox{
		MinX: b.X,
		MinY: b.Y,
		MaxX: b.X + b.PlacedLength(),
		MaxY: b.Y + b.PlacedWidth(),
	}
}

// Center returns the snap centre of the box.
func (b *Box) Center() (float64, float64) {
	if b.CenterOverride != nil {
		return b.CenterOverride.X, b.CenterOverride.Y
	}
	return b.X + b.PlacedLength()/2, b.Y + b.PlacedWidth()/2
}

// MoveTo sets the box position.
func (b *Box) MoveTo(x, y float64) {
	b.X = x
	b.Y = y
}

// Rotate toggles the box between 0° and 90°. Height is unchanged.
func (b *Box) Rotate() {
	b.Rotation = b.Rotation.Toggle()
}

// Footprint returns the unrotated base dimensions (length, width).
func (b *Box) Footprint() (float64, float64) {
	return b.Length, b.Width
}

// FootprintArea returns the base area in mm².
func (b *Box) FootprintArea() float64 {
	return b.Length * b.Width
}

// Volume returns the box volume in mm³.
func (b *Box) Volume() float64 {
	return b.Length * b.Width * b.Height
}

// SameFootprint reports whether two boxes have the same base dimensions.
// Boxes are otherwise compared by identity; two distinct boxes with equal
// footprints are not the same box.
func SameFootprint(a, b *Box) bool {
	return a.Length == b.Length && a.Width == b.Width
}

// sameShape is SameFootprint plus identical rotation, the stack invariant.
func sameShape(a, b *Box) bool {
	return SameFootprint(a, b) && a.Rotation == b.Rotation
}

// Item is anything that occupies floor space in a container.
type Item interface {
	BoundingBox() BBox
	Label() string
}

// HeightItem is an Item whose height is checked against the door opening.
// Only stacks implement it; a single box is exempt from the door check.
type HeightItem interface {
	Item
	TotalHeight() float64
}

// ItemWeight returns the weight of a box or the summed weight of a stack.
func ItemWeight(it Item) float64 {
	switch v := it.(type) {
	case *Box:
		return v.Weight
	case *Stack:
		return v.TotalWeight()
	default:
		return 0
	}
}

// ItemHeight returns the height of a box or the total height of a stack.
func ItemHeight(it Item) float64 {
	switch v := it.(type) {
	case *Box:
		return v.Height
	case *Stack:
		return v.TotalHeight()
	default:
		return 0
	}
}

// ItemBoxes returns the boxes that make up an item.
func ItemBoxes(it Item) []*Box {
	switch v := it.(type) {
	case *Box:
		return []*Box{v}
	case *Stack:
		return v.Boxes()
	default:
		return nil
	}
}
