// Package export turns the live poster surface into downloadable files.
//
// An export clears the selection, hides print guides, forces a render, waits a
// short settle delay and rasterizes at twice the canvas size. The raster never
// carries guides; the live hide is released on every path, including panics
// during the release itself.
package export

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rook-computer/postermaker/internal/poster"
)

const (
	DefaultMultiplier  = 2.0
	DefaultSettleDelay = 100 * time.Millisecond
)

// Surface is the part of the live canvas an export drives.
type Surface interface {
	ClearSelection()
	// HideGuides holds guides hidden until restore runs. Holds from
	// concurrent exports nest.
	HideGuides() (restore func())
	Render() error
	// ExportFrame rasterizes without guides or selection and returns the
	// configuration and metadata the pixels were drawn from.
	ExportFrame(multiplier float64) (*image.RGBA, poster.Configuration, poster.Metadata, error)
}

type exportLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Artifact is one encoded export.
type Artifact struct {
	Name      string        `json:"name"`
	Format    poster.Format `json:"format"`
	MIME      string        `json:"mime"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	CreatedAt time.Time     `json:"createdAt"`
	Data      []byte        `json:"-"`
}

type Pipeline struct {
	Surface     Surface
	Sink        Sink
	Notifier    Notifier
	Logger      exportLogger
	SettleDelay time.Duration
	Multiplier  float64

	now func() time.Time
}

// Export runs one export attempt against the surface as it is when the render
// settles. Failures are also reported to the Notifier.
func (p *Pipeline) Export(ctx context.Context) (art Artifact, err error) {
	defer func() {
		if err != nil {
			p.alert(err)
		}
	}()

	p.Surface.ClearSelection()
	defer p.restoreGuides(p.Surface.HideGuides())

	if err := p.Surface.Render(); err != nil {
		return Artifact{}, fmt.Errorf("render: %w", err)
	}
	if err := p.settle(ctx); err != nil {
		return Artifact{}, err
	}

	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	img, cfg, meta, err := p.Surface.ExportFrame(multiplier)
	if err != nil {
		return Artifact{}, fmt.Errorf("rasterize: %w", err)
	}

	data, err := Encode(img, cfg.Export)
	if err != nil {
		return Artifact{}, err
	}
	art = Artifact{
		Name:      Filename(meta.Album, cfg.Export.Format),
		Format:    formatOrPNG(cfg.Export.Format),
		MIME:      MIMEType(cfg.Export.Format),
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		CreatedAt: p.clock(),
		Data:      data,
	}
	if p.Sink != nil {
		if err := p.Sink.Deliver(ctx, art); err != nil {
			return Artifact{}, fmt.Errorf("deliver %s: %w", art.Name, err)
		}
	}
	if p.Logger != nil {
		p.Logger.Infof("export", "exported %s (%dx%d, %d bytes)", art.Name, art.Width, art.Height, len(art.Data))
	}
	return art, nil
}

func (p *Pipeline) settle(ctx context.Context) error {
	delay := p.SettleDelay
	if delay < 0 {
		return nil
	}
	if delay == 0 {
		delay = DefaultSettleDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) restoreGuides(restore func()) {
	defer func() {
		if r := recover(); r != nil && p.Logger != nil {
			p.Logger.Errorf("export", "restoring guides: %v", r)
		}
	}()
	restore()
}

func (p *Pipeline) alert(err error) {
	if p.Logger != nil {
		p.Logger.Errorf("export", "export failed: %v", err)
	}
	if p.Notifier != nil {
		p.Notifier.Alert("Export failed: " + err.Error())
	}
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func formatOrPNG(f poster.Format) poster.Format {
	if f.Valid() {
		return f
	}
	return poster.PNG
}
