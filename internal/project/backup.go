package project

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/StowPlan/internal/model"
)

// BackupData is the document written by ExportAllData: the application
// config and the box presets.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Inventory model.Inventory `json:"inventory"`
}

// ExportAllData writes config and inv to one backup file.
func ExportAllData(exportPath string, config model.AppConfig, inv model.Inventory) error {
	return writeJSON(exportPath, BackupData{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Inventory: inv,
	})
}

// ImportAllData reads a backup file. Backups from a newer major format
// version are rejected with ErrFormat. Applying the data is up to the
// caller.
func ImportAllData(importPath string) (BackupData, error) {
	var backup BackupData
	if err := readJSON(importPath, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("%w: backup has no version", ErrFormat)
	}
	if err := ValidateVersion(backup.Version); err != nil {
		return BackupData{}, err
	}
	if majorVersion(backup.Version) > majorVersion(FormatVersion) {
		return BackupData{}, fmt.Errorf("%w: backup version %s is newer than %s",
			ErrFormat, backup.Version, FormatVersion)
	}

	backup.Config = normalizeConfig(backup.Config)
	if backup.Inventory.Boxes == nil {
		backup.Inventory.Boxes = []model.BoxPreset{}
	}
	return backup, nil
}

func majorVersion(v string) int {
	major, _, _ := strings.Cut(v, ".")
	n, _ := strconv.Atoi(major)
	return n
}
