// Package poster holds the poster configuration and content model shared by the
// store, the layout engine and the export pipeline.
package poster

import (
	"errors"
	"fmt"
	"time"
)

type Template string

const (
	Modern  Template = "modern"
	Split   Template = "split"
	Minimal Template = "minimal"
	Palette Template = "palette"
)

// Templates lists every template in display order.
var Templates = []Template{Modern, Split, Minimal, Palette}

func (t Template) Valid() bool {
	switch t {
	case Modern, Split, Minimal, Palette:
		return true
	}
	return false
}

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

func (a Alignment) Valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

type Format string

const (
	PNG Format = "png"
	JPG Format = "jpg"
	PDF Format = "pdf"
)

func (f Format) Valid() bool {
	return f == PNG || f == JPG || f == PDF
}

// Extension is the file extension used for exported artifacts.
func (f Format) Extension() string {
	if !f.Valid() {
		return string(PNG)
	}
	return string(f)
}

type Point struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// ElementStyle carries per-element overrides. A nil field means "use the
// template default".
type ElementStyle struct {
	FontSize   *float64   `json:"fontSize,omitempty"`
	FontWeight *int       `json:"fontWeight,omitempty"`
	Color      string     `json:"color,omitempty"`
	Align      *Alignment `json:"align,omitempty"`
	Position   *Point     `json:"position,omitempty"`
}

type PrintConfig struct {
	Preset     string  `json:"preset"`
	DPI        float64 `json:"dpi"`
	ShowBleed  bool    `json:"showBleed"`
	ShowMargin bool    `json:"showMargin"`
	BleedMm    float64 `json:"bleedMm"`
	MarginMm   float64 `json:"marginMm"`
}

type LabelConfig struct {
	Visible  bool       `json:"visible"`
	Text     string     `json:"text,omitempty"`
	Catalog  string     `json:"catalog,omitempty"`
	Year     string     `json:"year,omitempty"`
	Position *Point     `json:"position,omitempty"`
	Width    float64    `json:"width,omitempty"`
	Align    *Alignment `json:"align,omitempty"`
	// Link is encoded as a QR code under the label text when set.
	Link string `json:"link,omitempty"`
}

type ExportState struct {
	Format      Format  `json:"format"`
	Quality     float64 `json:"quality"`
	Transparent bool    `json:"transparent"`
	// Trigger only ever grows. Every increment asks for one export.
	Trigger uint64 `json:"trigger"`
}

type Configuration struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	BackgroundColor        string   `json:"backgroundColor"`
	BackgroundImage        string   `json:"backgroundImage,omitempty"`
	BackgroundImageScale   *float64 `json:"backgroundImageScale,omitempty"`
	BackgroundImageOffset  *Point   `json:"backgroundImageOffset,omitempty"`
	BackgroundImageOpacity *float64 `json:"backgroundImageOpacity,omitempty"`

	TextColor  string   `json:"textColor"`
	FontFamily string   `json:"fontFamily"`
	Template   Template `json:"template"`
	Padding    *float64 `json:"padding,omitempty"`

	Artist          ElementStyle `json:"artist"`
	Album           ElementStyle `json:"album"`
	Tracklist       ElementStyle `json:"tracklist"`
	TracklistIndent *float64     `json:"tracklistIndent,omitempty"`

	Palette []string `json:"palette,omitempty"`

	Print  PrintConfig `json:"print"`
	Label  LabelConfig `json:"label"`
	Export ExportState `json:"export"`
}

type Track struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

type Metadata struct {
	Artist string  `json:"artist"`
	Album  string  `json:"album"`
	Year   string  `json:"year"`
	Label  string  `json:"label,omitempty"`
	Tracks []Track `json:"tracks"`
}

type SavedPoster struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	LastModified time.Time     `json:"lastModified"`
	Config       Configuration `json:"config"`
	Metadata     Metadata      `json:"metadata"`
}

var (
	ErrInvalidSize      = errors.New("width and height must be positive")
	ErrInvalidTemplate  = errors.New("unknown template")
	ErrInvalidAlignment = errors.New("unknown alignment")
	ErrInvalidFormat    = errors.New("unknown export format")
)

// Validate checks the type constraints the layout engine relies on.
func (c Configuration) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w (got %dx%d)", ErrInvalidSize, c.Width, c.Height)
	}
	if !c.Template.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidTemplate, c.Template)
	}
	for name, align := range map[string]*Alignment{
		"artist":    c.Artist.Align,
		"album":     c.Album.Align,
		"tracklist": c.Tracklist.Align,
		"label":     c.Label.Align,
	} {
		if align != nil && !align.Valid() {
			return fmt.Errorf("%s: %w %q", name, ErrInvalidAlignment, *align)
		}
	}
	if !c.Export.Format.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidFormat, c.Export.Format)
	}
	return nil
}
