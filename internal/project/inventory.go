package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/StowPlan/internal/model"
)

// DefaultInventoryPath returns ~/.stowplan/inventory.json.
func DefaultInventoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stowplan", "inventory.json"), nil
}

// SaveInventory writes the box presets to path.
func SaveInventory(path string, inv model.Inventory) error {
	return writeJSON(path, inv)
}

// LoadInventory reads the box presets at path. A missing file is created
// with DefaultInventory.
func LoadInventory(path string) (model.Inventory, error) {
	var inv model.Inventory
	if err := readJSON(path, &inv); err != nil {
		if !os.IsNotExist(err) {
			return model.Inventory{}, err
		}
		inv = model.DefaultInventory()
		return inv, SaveInventory(path, inv)
	}
	if inv.Boxes == nil {
		inv.Boxes = []model.BoxPreset{}
	}
	return inv, nil
}

// ImportInventory merges the presets of the file at path into existing.
// Presets whose ID is already known are skipped. A preset with a
// non-positive dimension fails the whole import and leaves existing as is.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	var imported model.Inventory
	if err := readJSON(path, &imported); err != nil {
		return existing, err
	}
	for i, bp := range imported.Boxes {
		if _, err := bp.ToBox(bp.Name); err != nil {
			return existing, fmt.Errorf("preset %d: %w", i+1, err)
		}
	}

	ids := make(map[string]bool, len(existing.Boxes))
	for _, b := range existing.Boxes {
		ids[b.ID] = true
	}
	merged := existing
	merged.Boxes = append([]model.BoxPreset(nil), existing.Boxes...)
	for _, b := range imported.Boxes {
		if !ids[b.ID] {
			merged.Boxes = append(merged.Boxes, b)
			ids[b.ID] = true
		}
	}
	return merged, nil
}
