package render

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	fb "github.com/gonutz/framebuffer"
	"github.com/rook-computer/postermaker/internal/state"
)

const defaultFBDevice = "/dev/fb0"

// FBRenderer renders to the Linux framebuffer using an offscreen logical canvas.
type FBRenderer struct {
	// Device defaults to /dev/fb0.
	Device string
	Fonts  *FontLibrary
	// Watch adds a second revision counter to the redraw check, so surface
	// rebuilds that do not touch the store still reach the screen.
	Watch  RevisionSource
	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}
	Debug bool

	fbDev   *fb.Device
	drawer  *CanvasDrawer
	running atomic.Bool

	mu      sync.Mutex
	current Screen
	dirty   bool
}

func NewFBRenderer() *FBRenderer { return &FBRenderer{} }

func (r *FBRenderer) Start(ctx context.Context) error {
	device := r.Device
	if device == "" {
		device = defaultFBDevice
	}
	dev, err := fb.Open(device)
	if err != nil {
		return err
	}
	r.fbDev = dev
	if r.Logger != nil {
		bounds := dev.Bounds()
		r.Logger.Infof("fb", "framebuffer open, bounds=%dx%d", bounds.Dx(), bounds.Dy())
	}

	r.drawer = NewCanvasDrawer(CanvasWidth, CanvasHeight, r.Fonts)
	r.running.Store(true)
	return nil
}

func (r *FBRenderer) Stop() error {
	r.running.Store(false)
	if r.fbDev != nil {
		r.fbDev.Close()
	}
	return nil
}

// SetScreen sets the current logical screen to be drawn.
func (r *FBRenderer) SetScreen(screen Screen) {
	r.mu.Lock()
	r.current = screen
	r.dirty = true
	r.mu.Unlock()
}

// RedrawWithState draws the current screen and blits it.
func (r *FBRenderer) RedrawWithState(snap state.State) {
	r.mu.Lock()
	screen := r.current
	r.dirty = false
	r.mu.Unlock()
	if !r.running.Load() || screen == nil || r.fbDev == nil {
		return
	}
	r.drawer.FillBackground()
	screen.Draw(r.drawer, snap)
	_ = blitToFB(r.fbDev, r.drawer.Canvas)
	if r.Debug && r.Logger != nil {
		r.Logger.Infof("fb", "redraw done, view=%s revision=%d", snap.View, snap.Revision)
	}
}

// RunLoop polls at ~30 FPS and redraws when the store, the watched source or
// the screen changed, until the context is done.
func (r *FBRenderer) RunLoop(ctx context.Context, store *state.Store) {
	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	lastLog := time.Now()
	var lastStore, lastWatch uint64
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := store.Snapshot()
			var watch uint64
			if r.Watch != nil {
				watch = r.Watch.Revision()
			}
			r.mu.Lock()
			dirty := r.dirty
			r.mu.Unlock()
			if first || dirty || snap.Revision != lastStore || watch != lastWatch {
				r.RedrawWithState(snap)
				lastStore, lastWatch, first = snap.Revision, watch, false
			}
			if r.Logger != nil && time.Since(lastLog) > 10*time.Second {
				r.Logger.Infof("fb", "heartbeat, view=%s revision=%d", snap.View, snap.Revision)
				lastLog = time.Now()
			}
		}
	}
}

// Helper: blit canvas to framebuffer via nearest-neighbor scaling.
func blitToFB(dev *fb.Device, canvas *image.RGBA) error {
	if dev == nil {
		return nil
	}
	bounds := dev.Bounds()
	fbWidth := bounds.Dx()
	fbHeight := bounds.Dy()
	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	for y := 0; y < fbHeight; y++ {
		sy := (y * ch) / fbHeight
		for x := 0; x < fbWidth; x++ {
			sx := (x * cw) / fbWidth
			pixel := canvas.RGBAAt(sx, sy)
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
	return nil
}
