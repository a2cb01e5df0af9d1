package screens

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/rook-computer/postermaker/internal/state"
)

const qrSize = 480

// SettingsScreen shows where the web editor can be reached, as text and as a
// QR code.
type SettingsScreen struct {
	// URL is resolved on Start, since the network address can change
	// between visits.
	URL    func() string
	Logger Logger

	mu  sync.Mutex
	url string
	qr  image.Image
}

func NewSettingsScreen(url func() string, logger Logger) *SettingsScreen {
	return &SettingsScreen{URL: url, Logger: logger}
}

func (s *SettingsScreen) Start(ctx context.Context) error {
	if s.URL == nil {
		return nil
	}
	url := s.URL()
	qr, err := render.GenerateQRCodeImage(url, qrSize, color.Black, color.White)
	if err != nil && s.Logger != nil {
		s.Logger.Errorf("app", "settings qr: %v", err)
	}
	s.mu.Lock()
	s.url, s.qr = url, qr
	s.mu.Unlock()
	return nil
}

func (s *SettingsScreen) Stop() error { return nil }

func (s *SettingsScreen) Draw(d render.Drawer, st state.State) {
	d.FillBackground()
	d.DrawTitle("Settings")

	s.mu.Lock()
	url, qr := s.url, s.qr
	s.mu.Unlock()

	area := body(d)
	cx := (area.Min.X + area.Max.X) / 2
	y := area.Min.Y
	if url != "" {
		m := d.DrawText("Open the editor at", cx, y, render.TextStyle{Align: render.TextAlignCenter})
		y += m.LineHeight + 8
		m = d.DrawText(url, cx, y, render.TextStyle{Size: 44, Weight: 700, Align: render.TextAlignCenter, Color: render.Accent})
		y += m.LineHeight + 24
	}
	if qr != nil {
		d.DrawImageInRect(qr, layout.FitRect(image.Rect(area.Min.X, y, area.Max.X, area.Max.Y-60), qrSize, qrSize), render.ScaleModeFit)
	}

	info := fmt.Sprintf("%d saved posters   %d exports   %d failed", len(st.SavedPosters), st.Export.Completed, st.Export.Failed)
	d.DrawText(info, cx, area.Max.Y-statusSize, render.TextStyle{Size: statusSize, Align: render.TextAlignCenter})
	drawFooter(d, st, "F5 export   F6 editor   F4 exit")
}
