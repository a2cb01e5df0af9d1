package render

import (
	"errors"
	"image"
	"sync"

	"github.com/rook-computer/postermaker/internal/background"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/rook-computer/postermaker/internal/state"
)

var ErrSurfaceClosed = errors.New("surface closed")

type surfaceLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Surface is the live poster canvas. Every configuration or metadata change
// rebuilds the whole scene; image decodes and font loads finish in the
// background and rebuild again when they land.
type Surface struct {
	Fonts  *FontLibrary
	Images *ImageLoader
	Logger surfaceLogger

	measurer *FontMeasurer

	mu        sync.Mutex
	cfg       poster.Configuration
	meta      poster.Metadata
	scene     layout.Scene
	prior     background.Paint
	selection layout.Role
	guides    bool
	hidden    int
	preview   *image.RGBA
	revision  uint64
	closed    bool
}

func NewSurface(fonts *FontLibrary, images *ImageLoader) *Surface {
	if fonts == nil {
		fonts = NewFontLibrary("")
	}
	if images == nil {
		images = NewImageLoader()
	}
	s := &Surface{
		Fonts:    fonts,
		Images:   images,
		measurer: NewFontMeasurer(fonts),
		cfg:      poster.DefaultConfiguration(),
		meta:     poster.DefaultMetadata(),
		guides:   true,
	}
	s.rebuildLocked()
	return s
}

// Attach keeps the surface in sync with store until the returned cancel runs.
func (s *Surface) Attach(store *state.Store) func() {
	snap := store.Snapshot()
	s.Update(snap.Config, snap.Metadata)
	return store.Subscribe(func(st state.State) {
		s.Update(st.Config, st.Metadata)
	})
}

// Update replaces the configuration and metadata and rebuilds the scene.
func (s *Surface) Update(cfg poster.Configuration, meta poster.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cfg, s.meta = cfg.Clone(), meta.Clone()
	s.rebuildLocked()
}

func (s *Surface) rebuildLocked() {
	var info *layout.ImageInfo
	if ref := s.cfg.BackgroundImage; ref != "" {
		if img, ok := s.Images.Cached(ref); ok {
			b := img.Bounds()
			info = &layout.ImageInfo{Width: b.Dx(), Height: b.Dy()}
		} else if !s.Images.Failed(ref) {
			s.Images.LoadAsync(ref, func(img image.Image, err error) { s.imageLoaded(ref, err) })
		}
	}

	if family := s.cfg.FontFamily; !s.Fonts.Ready(family) {
		s.Fonts.EnsureAsync(family, func() { s.fontLoaded(family) })
	}

	s.scene = layout.Layout(s.cfg, s.meta, layout.Inputs{Prior: s.prior, Image: info, Measurer: s.measurer})
	s.prior = s.scene.Background
	if s.selection != "" && s.scene.Count(s.selection) == 0 {
		s.selection = ""
	}
	s.revision++
}

// imageLoaded runs on the decoder goroutine. A cached outcome is delivered
// synchronously from LoadAsync while the lock is already held, so it only
// schedules the rebuild.
func (s *Surface) imageLoaded(ref string, err error) {
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.cfg.BackgroundImage != ref {
			return
		}
		if err != nil {
			if s.Logger != nil {
				s.Logger.Errorf("surface", "background image unavailable: %v", err)
			}
			return
		}
		s.rebuildLocked()
	}()
}

func (s *Surface) fontLoaded(family string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.cfg.FontFamily != family {
		return
	}
	s.measurer.Forget()
	if s.Logger != nil {
		s.Logger.Infof("surface", "font %q ready, re-laying out", family)
	}
	s.rebuildLocked()
}

// ClearSelection drops the active element selection.
func (s *Surface) ClearSelection() {
	s.mu.Lock()
	s.selection = ""
	s.mu.Unlock()
}

// Select marks the element with role as active. It reports false when the
// scene has no such element.
func (s *Surface) Select(role layout.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scene.Count(role) == 0 {
		return false
	}
	s.selection = role
	return true
}

func (s *Surface) Selection() layout.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetGuidesVisible sets the editor's guide preference.
func (s *Surface) SetGuidesVisible(visible bool) {
	s.mu.Lock()
	s.guides = visible
	s.mu.Unlock()
}

// GuidesVisible reports whether guides are drawn right now: the preference
// is on and no HideGuides hold is outstanding.
func (s *Surface) GuidesVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guidesLocked()
}

func (s *Surface) guidesLocked() bool {
	return s.guides && s.hidden == 0
}

// HideGuides suppresses guides until every returned restore has run. Holds
// nest, so overlapping exports never see each other's guide state. Restore
// is safe to call more than once.
func (s *Surface) HideGuides() (restore func()) {
	s.mu.Lock()
	s.hidden++
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.hidden--
			s.mu.Unlock()
		})
	}
}

// Render forces a synchronous 1x rasterization into the preview buffer.
func (s *Surface) Render() error {
	img, err := s.rasterize(1, false)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.preview = img
	s.mu.Unlock()
	return nil
}

// Rasterize draws the current scene at multiplier with the current guide
// visibility and selection. Transparency follows the export settings.
func (s *Surface) Rasterize(multiplier float64) (*image.RGBA, error) {
	return s.rasterize(multiplier, true)
}

func (s *Surface) rasterize(multiplier float64, allowTransparent bool) (*image.RGBA, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSurfaceClosed
	}
	scene := s.scene
	opts := RasterOptions{
		Multiplier:  multiplier,
		Transparent: allowTransparent && s.cfg.Export.Transparent,
		ShowGuides:  s.guidesLocked(),
		Images:      s.Images,
		Fonts:       s.Fonts,
		Selection:   s.selection,
	}
	s.mu.Unlock()
	return Rasterize(scene, opts)
}

// ExportFrame rasterizes the scene at multiplier without guides or selection
// and returns the configuration and metadata it was built from, all taken
// under one lock.
func (s *Surface) ExportFrame(multiplier float64) (*image.RGBA, poster.Configuration, poster.Metadata, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, poster.Configuration{}, poster.Metadata{}, ErrSurfaceClosed
	}
	scene := s.scene
	cfg, meta := s.cfg.Clone(), s.meta.Clone()
	opts := RasterOptions{
		Multiplier:  multiplier,
		Transparent: cfg.Export.Transparent,
		Images:      s.Images,
		Fonts:       s.Fonts,
	}
	s.mu.Unlock()
	img, err := Rasterize(scene, opts)
	if err != nil {
		return nil, poster.Configuration{}, poster.Metadata{}, err
	}
	return img, cfg, meta, nil
}

// Current returns the configuration and metadata the scene was built from.
func (s *Surface) Current() (poster.Configuration, poster.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone(), s.meta.Clone()
}

// Scene returns the latest layout.
func (s *Surface) Scene() layout.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// Preview returns the last Render output, or nil.
func (s *Surface) Preview() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return nil
	}
	return s.preview
}

// Revision increments on every rebuild.
func (s *Surface) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Close stops pending loads from touching the surface.
func (s *Surface) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
