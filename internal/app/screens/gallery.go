package screens

import (
	"context"
	"image"
	"math"
	"sync"
	"time"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/rook-computer/postermaker/internal/state"
)

const (
	galleryCols   = 4
	galleryRows   = 2
	galleryGap    = 24
	captionHeight = 40
	captionSize   = 24
)

// Thumbnailer renders a poster at an arbitrary scale.
type Thumbnailer interface {
	Rasterize(cfg poster.Configuration, meta poster.Metadata, multiplier float64) (*image.RGBA, error)
}

type thumbKey struct {
	id       string
	modified time.Time
	w, h     int
}

// GalleryScreen shows the most recently modified saved posters as a grid of
// thumbnails. The current poster is outlined.
type GalleryScreen struct {
	Thumbs Thumbnailer
	Logger Logger

	mu    sync.Mutex
	cache map[thumbKey]image.Image
}

func NewGalleryScreen(thumbs Thumbnailer, logger Logger) *GalleryScreen {
	return &GalleryScreen{Thumbs: thumbs, Logger: logger, cache: map[thumbKey]image.Image{}}
}

func (s *GalleryScreen) Start(ctx context.Context) error { return nil }

// Stop drops cached thumbnails.
func (s *GalleryScreen) Stop() error {
	s.mu.Lock()
	s.cache = map[thumbKey]image.Image{}
	s.mu.Unlock()
	return nil
}

func (s *GalleryScreen) Draw(d render.Drawer, st state.State) {
	d.FillBackground()
	d.DrawTitle("Saved posters")
	defer drawFooter(d, st, "F5 export   F6 settings   F4 exit")

	posters := Recent(st.SavedPosters, galleryCols*galleryRows)
	if len(posters) == 0 {
		d.DrawTextCentered("no saved posters yet")
		return
	}

	cells := layout.Grid(body(d), galleryCols, galleryRows, galleryGap)
	for i, saved := range posters {
		if i >= len(cells) {
			break
		}
		cell := cells[i]
		frame := image.Rect(cell.Min.X, cell.Min.Y, cell.Max.X, cell.Max.Y-captionHeight)
		if thumb := s.thumbnail(saved, frame); thumb != nil {
			landed := d.DrawImageInRect(thumb, frame, render.ScaleModeFit)
			if saved.ID == st.CurrentPosterID {
				outline(d, landed, 4)
			}
		}
		d.DrawText(saved.Name, (cell.Min.X+cell.Max.X)/2, cell.Max.Y-captionHeight+8,
			render.TextStyle{Size: captionSize, Align: render.TextAlignCenter})
	}
}

func (s *GalleryScreen) thumbnail(saved poster.SavedPoster, frame image.Rectangle) image.Image {
	if s.Thumbs == nil || frame.Empty() {
		return nil
	}
	key := thumbKey{saved.ID, saved.LastModified, frame.Dx(), frame.Dy()}
	s.mu.Lock()
	if img, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return img
	}
	s.mu.Unlock()

	fit := layout.FitRect(frame, saved.Config.Width, saved.Config.Height)
	if fit.Empty() {
		return nil
	}
	multiplier := math.Min(1, float64(fit.Dx())/float64(saved.Config.Width))
	img, err := s.Thumbs.Rasterize(saved.Config, saved.Metadata, multiplier)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("app", "thumbnail %s: %v", saved.ID, err)
		}
		return nil
	}
	s.mu.Lock()
	s.cache[key] = img
	s.mu.Unlock()
	return img
}

// Recent returns up to n saved posters, newest first.
func Recent(saved []poster.SavedPoster, n int) []poster.SavedPoster {
	out := append([]poster.SavedPoster(nil), saved...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LastModified.After(out[j-1].LastModified); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func outline(d render.Drawer, r image.Rectangle, width int) {
	r = r.Inset(-width)
	d.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), render.Accent)
	d.FillRect(image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), render.Accent)
	d.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), render.Accent)
	d.FillRect(image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), render.Accent)
}
