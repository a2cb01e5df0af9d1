package screens

import (
	"context"
	"image"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
)

// PreviewSource renders the live poster on demand.
type PreviewSource interface {
	Render() error
	Preview() image.Image
}

// EditorScreen shows the live poster fit to the screen.
type EditorScreen struct {
	Surface PreviewSource
	Logger  Logger
}

func NewEditorScreen(surface PreviewSource, logger Logger) *EditorScreen {
	return &EditorScreen{Surface: surface, Logger: logger}
}

func (s *EditorScreen) Start(ctx context.Context) error { return nil }
func (s *EditorScreen) Stop() error                     { return nil }

func (s *EditorScreen) Draw(d render.Drawer, st state.State) {
	d.FillBackground()
	title := st.Metadata.Album
	if title == "" {
		title = poster.UntitledPosterName
	}
	d.DrawTitle(title)

	if img := s.preview(); img != nil {
		d.DrawImageInRect(img, body(d), render.ScaleModeFit)
	} else {
		d.DrawTextCentered("preview unavailable")
	}
	drawFooter(d, st, "F5 export   F6 gallery   F4 exit")
}

func (s *EditorScreen) preview() image.Image {
	if s.Surface == nil {
		return nil
	}
	if err := s.Surface.Render(); err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("app", "editor preview: %v", err)
		}
		return nil
	}
	return s.Surface.Preview()
}
