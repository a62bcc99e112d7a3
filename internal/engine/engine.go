package engine

import (
	"log/slog"

	"github.com/piwi3910/StowPlan/internal/model"
)

// Engine runs collision and stacking checks for boxes on a container floor.
// It holds no scene state; every call works on the items it is given.
type Engine struct {
	Settings model.PlanSettings
	Logger   *slog.Logger
}

func New(settings model.PlanSettings) *Engine {
	return &Engine{Settings: settings, Logger: slog.Default()}
}

// WithLogger returns the engine with its logger replaced. A nil logger
// discards all records.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	e.Logger = l
	return e
}

func (e *Engine) log() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Engine) cellSize() float64 {
	if e.Settings.CellSize > 0 {
		return e.Settings.CellSize
	}
	return model.DefaultCellSize
}

func (e *Engine) snapTolerance() float64 {
	if e.Settings.SnapTolerance > 0 {
		return e.Settings.SnapTolerance
	}
	return model.DefaultSnapTolerance
}
