package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/piwi3910/StowPlan/internal/engine"
	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/piwi3910/StowPlan/internal/project"
)

const maxRecentProjects = 10

// session bundles what a command needs: config, container catalog and an
// engine configured from both.
type session struct {
	cfg     model.AppConfig
	catalog *project.Catalog
	engine  *engine.Engine
	log     *slog.Logger
}

func loadSession(stderr io.Writer) (*session, error) {
	logger := newLogger(stderr)

	cfg, err := project.LoadAppConfig(configPath)
	if err != nil {
		return nil, WrapCLIError(ExitGeneralError, "cannot load config "+configPath, err)
	}
	settings := model.DefaultSettings()
	cfg.ApplyToSettings(&settings)
	logger.Debug("config loaded", "path", configPath,
		"cell_size_mm", settings.CellSize, "snap_tolerance_mm", settings.SnapTolerance)

	return &session{
		cfg:     cfg,
		catalog: project.NewCatalog(cfg.ContainersPath),
		engine:  engine.New(settings).WithLogger(logger),
		log:     logger,
	}, nil
}

func (s *session) openProject(path string) (*model.Project, error) {
	p, err := project.LoadProject(path, s.catalog)
	if err != nil {
		return nil, WrapCLIError(ExitGeneralError, "cannot open project", err)
	}
	s.log.Debug("project loaded", "path", path, "items", p.Len(), "container", p.Container.ID)
	return p, nil
}

// saveProject writes p and records it in the recent project list.
func (s *session) saveProject(path string, p *model.Project) error {
	version := Version
	if project.ValidateVersion(version) != nil {
		version = project.FormatVersion
	}
	if err := project.SaveProject(path, p, s.cfg.User, version); err != nil {
		return WrapCLIError(ExitGeneralError, "cannot save project", err)
	}
	s.log.Debug("project saved", "path", path, "items", p.Len())

	if abs, err := filepath.Abs(path); err == nil {
		s.cfg.AddRecentProject(abs, maxRecentProjects)
		if err := project.SaveAppConfig(configPath, s.cfg); err != nil {
			s.log.Warn("cannot update recent projects", "error", err)
		}
	}
	return nil
}

// container resolves id in the catalog, falling back to the configured default.
func (s *session) container(id string) (model.Container, error) {
	if id == "" {
		id = s.cfg.DefaultContainerID
	}
	c, err := s.catalog.Get(id)
	if err != nil {
		return model.Container{}, WrapCLIError(ExitUsage, fmt.Sprintf("unknown container %q", id), err)
	}
	return c, nil
}

// findItem returns the top-level item called name.
func findItem(p *model.Project, name string) (model.Item, error) {
	it := p.Find(name)
	if it == nil {
		return nil, WrapCLIError(ExitUsage, fmt.Sprintf("no item named %q", name), nil)
	}
	return it, nil
}

// offenderNames renders a collision result for messages.
func offenderNames(candidate model.Item, offenders []engine.Offender) []string {
	names := make([]string, 0, len(offenders))
	for _, o := range offenders {
		switch {
		case engine.IsDoorHeight(o):
			names = append(names, "door height")
		case o == engine.Offender(candidate):
			names = append(names, "container wall")
		default:
			names = append(names, o.Label())
		}
	}
	return names
}
