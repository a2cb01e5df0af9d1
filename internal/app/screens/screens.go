// Package screens draws the device views: the live poster editor, the saved
// poster gallery and the settings page with the editor address.
package screens

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

const (
	headerHeight = 120
	footerHeight = 72
	margin       = 32
	statusSize   = 28
)

var muted = color.RGBA{R: 0x9A, G: 0x9A, B: 0xA5, A: 0xFF}

// body is the drawing area between the title and the status footer.
func body(d render.Drawer) image.Rectangle {
	w, h := d.Size()
	return image.Rect(margin, headerHeight, w-margin, h-footerHeight)
}

// drawFooter writes the export status on the left and the hotkeys on the right.
func drawFooter(d render.Drawer, st state.State, hints string) {
	w, h := d.Size()
	y := h - footerHeight + (footerHeight-statusSize)/2
	style := render.TextStyle{Size: statusSize, Color: muted}
	if msg := ExportStatus(st.Export); msg != "" {
		d.DrawText(msg, margin, y, style)
	}
	style.Align = render.TextAlignRight
	d.DrawText(hints, w-margin, y, style)
}

// ExportStatus is the one-line summary of export progress.
func ExportStatus(info state.ExportInfo) string {
	switch {
	case info.Running > 0:
		return fmt.Sprintf("exporting (%d running)", info.Running)
	case info.Err != "":
		return "export failed: " + info.Err
	case info.LastFile != "":
		return "saved " + info.LastFile
	}
	return ""
}

// ForView returns the screen for view.
func ForView(view state.View, editor, gallery, settings render.Screen) render.Screen {
	switch view {
	case state.Gallery:
		return gallery
	case state.Settings:
		return settings
	}
	return editor
}
