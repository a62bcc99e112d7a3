package model

// DefaultCellSize is the spatial grid cell edge in mm used for neighbour queries.
const DefaultCellSize = 1000.0

// PlanSettings holds the tunables of the collision and stacking engine.
type PlanSettings struct {
	CellSize      float64 `json:"cell_size_mm"`      // Spatial grid cell edge in mm
	SnapTolerance float64 `json:"snap_tolerance_mm"` // Max centre offset per axis for stacking
}

func DefaultSettings() PlanSettings {
	return PlanSettings{
		CellSize:      DefaultCellSize,
		SnapTolerance: DefaultSnapTolerance,
	}
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Engine defaults applied to new sessions
	CellSize      float64 `json:"cell_size_mm"`
	SnapTolerance float64 `json:"snap_tolerance_mm"`

	// Container catalog
	DefaultContainerID string `json:"default_container_id"`
	ContainersPath     string `json:"containers_path"` // Empty = built-in catalog

	// Application preferences
	User           string   `json:"user"` // Written into project metadata on save
	RecentProjects []string `json:"recent_projects"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		CellSize:           defaults.CellSize,
		SnapTolerance:      defaults.SnapTolerance,
		DefaultContainerID: "40ft-std",
		ContainersPath:     "",
		User:               "unknown",
		RecentProjects:     []string{},
	}
}

// ApplyToSettings copies the engine defaults from AppConfig into a PlanSettings.
// Non-positive values leave the setting untouched.
func (c AppConfig) ApplyToSettings(s *PlanSettings) {
	if c.CellSize > 0 {
		s.CellSize = c.CellSize
	}
	if c.SnapTolerance > 0 {
		s.SnapTolerance = c.SnapTolerance
	}
}

// AddRecentProject moves path to the front of the recent list, keeping at most max entries.
func (c *AppConfig) AddRecentProject(path string, max int) {
	list := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			list = append(list, p)
		}
	}
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	c.RecentProjects = list
}
