package model

import (
	"fmt"

	"github.com/google/uuid"
)

// BoxPreset represents a reusable package definition, such as a pallet type.
type BoxPreset struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Length float64 `json:"length_mm"`
	Width  float64 `json:"width_mm"`
	Height float64 `json:"height_mm"`
	Weight float64 `json:"weight_kg"`
	Color  string  `json:"color_hex"`
}

// NewBoxPreset creates a new BoxPreset with a generated ID.
func NewBoxPreset(name string, length, width, height, weight float64, color string) BoxPreset {
	if color == "" {
		color = DefaultColor
	}
	return BoxPreset{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Length: length,
		Width:  width,
		Height: height,
		Weight: weight,
		Color:  color,
	}
}

// ToBox converts the preset into a new box at the origin. An empty name
// uses the preset name.
func (bp BoxPreset) ToBox(name string) (*Box, error) {
	if name == "" {
		name = bp.Name
	}
	b := NewBox(name, bp.Length, bp.Width, bp.Height)
	b.Weight = bp.Weight
	if bp.Color != "" {
		b.Color = bp.Color
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("preset %q: %w", bp.Name, err)
	}
	return b, nil
}

// Inventory holds the user's saved box presets.
type Inventory struct {
	Boxes []BoxPreset `json:"boxes"`
}

// DefaultInventory returns an inventory populated with common load carriers.
func DefaultInventory() Inventory {
	return Inventory{
		Boxes: []BoxPreset{
			NewBoxPreset("EUR pallet", 1200, 800, 144, 25, "#C8A165"),
			NewBoxPreset("Industrial pallet", 1200, 1000, 144, 30, "#B08850"),
			NewBoxPreset("Half pallet", 800, 600, 144, 10, "#D9B98A"),
			NewBoxPreset("Quarter pallet", 600, 400, 144, 5, "#E6CFA8"),
			NewBoxPreset("Carton 600x400", 600, 400, 400, 8, "#A0522D"),
			NewBoxPreset("Carton 400x300", 400, 300, 300, 4, "#CD853F"),
		},
	}
}

// FindBoxByID returns a pointer to the preset with the given ID, or nil.
func (inv *Inventory) FindBoxByID(id string) *BoxPreset {
	for i := range inv.Boxes {
		if inv.Boxes[i].ID == id {
			return &inv.Boxes[i]
		}
	}
	return nil
}

// FindBoxByName returns a pointer to the first preset with the given name, or nil.
func (inv *Inventory) FindBoxByName(name string) *BoxPreset {
	for i := range inv.Boxes {
		if inv.Boxes[i].Name == name {
			return &inv.Boxes[i]
		}
	}
	return nil
}

// BoxNames returns the preset names in inventory order.
func (inv *Inventory) BoxNames() []string {
	names := make([]string, len(inv.Boxes))
	for i, b := range inv.Boxes {
		names[i] = b.Name
	}
	return names
}
