package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/postermaker/internal/app/screens"
	"github.com/rook-computer/postermaker/internal/buttons"
	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/rook-computer/postermaker/internal/system"
	"github.com/rook-computer/postermaker/internal/web"
)

type App struct {
	Store     *state.Store
	Surface   *render.Surface
	Render    render.Renderer
	Web       web.Server
	Exports   *export.Runner
	Persister *state.Persister
	Buttons   buttons.Buttons
	// Thumbs renders gallery thumbnails.
	Thumbs screens.Thumbnailer
	// EditorURL is shown on the settings screen.
	EditorURL func() string
	Logger    Logger
	Debug     bool
	// Console switches the VT into graphics mode while running.
	Console bool

	editor, gallery, settings render.Screen
	currentScreen            render.Screen

	alertMu sync.Mutex
	alert   string
	alertAt time.Time

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(store *state.Store, surface *render.Surface, renderer render.Renderer, webServer web.Server, exports *export.Runner, buttonDriver buttons.Buttons) *App {
	return &App{
		Store:   store,
		Surface: surface,
		Render:  renderer,
		Web:     webServer,
		Exports: exports,
		Buttons: buttonDriver,
		Logger:  NoopLogger{},
		exitCh:  make(chan error, 1),
	}
}

// Exit requests the app to stop running.
// Any screen or hotkey can call this to terminate the process via the generic codepath.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Alert records an export failure for the log and the status line.
func (app *App) Alert(message string) {
	app.alertMu.Lock()
	app.alert, app.alertAt = message, time.Now()
	app.alertMu.Unlock()
	app.Logger.Errorf("app", "alert: %s", message)
}

// LastAlert returns the most recent alert and when it was raised.
func (app *App) LastAlert() (string, time.Time) {
	app.alertMu.Lock()
	defer app.alertMu.Unlock()
	return app.alert, app.alertAt
}

func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Store == nil {
		app.Store = state.NewStore()
	}
	if app.Surface == nil {
		app.Surface = render.NewSurface(nil, nil)
	}
	if app.Buttons == nil {
		app.Buttons = buttons.NewNoopButtons()
	}

	detach := app.Surface.Attach(app.Store)
	defer detach()
	defer app.Surface.Close()

	if app.Persister != nil {
		app.Persister.Start()
		defer app.Persister.Stop()
	}
	if app.Exports != nil {
		app.Exports.Start(ctx)
		defer app.Exports.Stop()
	}

	// Initialize renderer and draw first screen
	if app.Render == nil {
		app.Render = render.NewFBRenderer()
	}
	if fb, ok := app.Render.(*render.FBRenderer); ok {
		fb.Logger = app.Logger
		fb.Debug = app.Debug
		fb.Watch = app.Surface
		if fb.Fonts == nil {
			fb.Fonts = app.Surface.Fonts
		}
	}
	if err := app.Render.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		return err
	}
	defer app.Render.Stop()

	if app.Console {
		// Switch console to KD_GRAPHICS to suppress hardware cursor
		_ = system.SetGraphicsModeWithLog(app.Logger)
		_ = system.HideCursorWithLog(app.Logger)
		defer func() { _ = system.ShowCursorWithLog(app.Logger); _ = system.RestoreTextModeWithLog(app.Logger) }()
	}

	if app.Web != nil {
		if err := app.Web.Start(ctx); err != nil {
			app.Logger.Errorf("web", "start failed: %v", err)
			return err
		}
		defer app.Web.Stop()
	}

	if err := app.Buttons.Start(ctx); err != nil {
		app.Logger.Errorf("input", "buttons start failed: %v", err)
	}
	defer app.Buttons.Stop()

	app.editor = screens.NewEditorScreen(app.Surface, app.Logger)
	app.gallery = screens.NewGalleryScreen(app.thumbs(), app.Logger)
	app.settings = screens.NewSettingsScreen(app.EditorURL, app.Logger)

	// Views change from the web API and from hotkeys; subscribers must not
	// block, so only the latest requested view is kept.
	views := make(chan state.View, 1)
	unsubscribe := app.Store.Subscribe(func(st state.State) {
		select {
		case <-views:
		default:
		}
		views <- st.View
	})
	defer unsubscribe()

	snap := app.Store.Snapshot()
	if err := app.showView(ctx, snap.View); err != nil {
		return err
	}

	// Force immediate first redraw to ensure the preview shows without waiting for loop.
	app.Render.RedrawWithState(app.Store.Snapshot())

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Render.RunLoop(loopCtx, app.Store)
	}()
	defer func() {
		cancel()
		wg.Wait()
		if app.currentScreen != nil {
			_ = app.currentScreen.Stop()
		}
	}()

	current := snap.View
	events := app.Buttons.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-app.exitCh:
			return err
		case view := <-views:
			if view == current {
				continue
			}
			current = view
			if err := app.showView(ctx, view); err != nil {
				app.Logger.Errorf("app", "switch to %s: %v", view, err)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			app.HandleButton(ev)
		}
	}
}

// HandleButton maps a hotkey to a store action.
func (app *App) HandleButton(ev buttons.Event) {
	switch ev {
	case buttons.Export:
		trigger, err := app.Store.TriggerExport(state.ExportOptions{})
		if err != nil {
			app.Logger.Errorf("app", "export trigger: %v", err)
			return
		}
		app.Logger.Infof("app", "export requested from hotkey, trigger=%d", trigger)
	case buttons.NextView:
		next := app.Store.Snapshot().View.Next()
		if err := app.Store.SetView(next); err != nil {
			app.Logger.Errorf("app", "set view: %v", err)
		}
	case buttons.Exit:
		app.Logger.Infof("app", "exit requested from hotkey")
		app.Exit(nil)
	}
}

func (app *App) showView(ctx context.Context, view state.View) error {
	screen := screens.ForView(view, app.editor, app.gallery, app.settings)
	if app.currentScreen != nil {
		_ = app.currentScreen.Stop()
	}
	app.currentScreen = screen
	if err := screen.Start(ctx); err != nil {
		return err
	}
	app.Render.SetScreen(screen)
	app.Logger.Infof("app", "view %s", view)
	return nil
}

func (app *App) thumbs() screens.Thumbnailer {
	if app.Thumbs != nil {
		return app.Thumbs
	}
	return &render.Offline{Fonts: app.Surface.Fonts, Images: app.Surface.Images, Logger: app.Logger}
}

func (app *App) Stop() error {
	app.Exit(nil)
	return nil
}

// Logger interface and implementations
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type NoopLogger struct{}

func (NoopLogger) Infof(component, format string, args ...interface{})  {}
func (NoopLogger) Errorf(component, format string, args ...interface{}) {}

// FileLogger writes one line per entry. Writes are serialized so concurrent
// exports do not interleave.
type FileLogger struct {
	w  io.Writer
	mu *sync.Mutex
}

func NewFileLogger(w io.Writer) FileLogger { return FileLogger{w: w, mu: &sync.Mutex{}} }
func (l FileLogger) Infof(component string, format string, args ...interface{}) {
	l.write("INFO", component, format, args...)
}
func (l FileLogger) Errorf(component string, format string, args ...interface{}) {
	l.write("ERROR", component, format, args...)
}

func (l FileLogger) write(level, component, format string, args ...interface{}) {
	if l.mu != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	writeLog(l.w, level, component, format, args...)
}

func writeLog(w io.Writer, level, component, format string, args ...interface{}) {
	timestamp := time.Now().Format(time.RFC3339)
	msg := fmt.Sprintf(format, args...)
	_, _ = io.WriteString(w, timestamp+" ["+level+"] "+component+": "+msg+"\n")
}
