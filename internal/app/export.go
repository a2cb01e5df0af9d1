package app

import (
	"time"

	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
)

// ExportConfig collects the knobs for the device export path.
type ExportConfig struct {
	// OutDir receives every artifact; empty keeps exports in memory only.
	OutDir string
	// Keep bounds the in-memory download history.
	Keep        int
	SettleDelay time.Duration
	Multiplier  float64
}

// NewExports wires a runner that exports the live surface on every trigger.
// Artifacts land in OutDir and in the returned MemorySink, which backs the
// latest-export download.
func (app *App) NewExports(cfg ExportConfig) (*export.Runner, *export.MemorySink) {
	memory := &export.MemorySink{Keep: cfg.Keep}
	var sink export.Sink = memory
	if cfg.OutDir != "" {
		sink = export.MultiSink{export.DirSink{Dir: cfg.OutDir}, memory}
	}
	pipeline := &export.Pipeline{
		Surface:     app.surface(),
		Sink:        sink,
		Notifier:    export.NotifierFunc(app.Alert),
		Logger:      app.logger(),
		SettleDelay: cfg.SettleDelay,
		Multiplier:  cfg.Multiplier,
	}
	runner := &export.Runner{Store: app.store(), Pipeline: pipeline, Logger: app.logger()}
	app.Exports = runner
	return runner, memory
}

func (app *App) store() *state.Store {
	if app.Store == nil {
		app.Store = state.NewStore()
	}
	return app.Store
}

func (app *App) surface() *render.Surface {
	if app.Surface == nil {
		app.Surface = render.NewSurface(nil, nil)
	}
	return app.Surface
}

func (app *App) logger() Logger {
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	return app.Logger
}
