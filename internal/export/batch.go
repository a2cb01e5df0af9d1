package export

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rook-computer/postermaker/internal/poster"
	"golang.org/x/sync/errgroup"
)

// Rasterizer renders a poster without a live surface.
type Rasterizer interface {
	Rasterize(cfg poster.Configuration, meta poster.Metadata, multiplier float64) (*image.RGBA, error)
}

type BatchOptions struct {
	// Format overrides each poster's saved format when set.
	Format      poster.Format
	Quality     float64
	Transparent *bool
	Multiplier  float64
	// Workers bounds concurrency; zero means four.
	Workers int
}

// Batch renders every saved poster concurrently and delivers the results in
// input order. Names that would collide get the poster id appended.
func Batch(ctx context.Context, r Rasterizer, posters []poster.SavedPoster, opts BatchOptions, sink Sink) ([]Artifact, error) {
	multiplier := opts.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	artifacts := make([]Artifact, len(posters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range posters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := p.Config.Clone()
			if opts.Format != "" {
				cfg.Export.Format = opts.Format
			}
			if opts.Quality > 0 {
				cfg.Export.Quality = opts.Quality
			}
			if opts.Transparent != nil {
				cfg.Export.Transparent = *opts.Transparent
			}
			img, err := r.Rasterize(cfg, p.Metadata, multiplier)
			if err != nil {
				return fmt.Errorf("poster %q: %w", p.Name, err)
			}
			data, err := Encode(img, cfg.Export)
			if err != nil {
				return fmt.Errorf("poster %q: %w", p.Name, err)
			}
			artifacts[i] = Artifact{
				Name:      Filename(p.Metadata.Album, cfg.Export.Format),
				Format:    formatOrPNG(cfg.Export.Format),
				MIME:      MIMEType(cfg.Export.Format),
				Width:     img.Bounds().Dx(),
				Height:    img.Bounds().Dy(),
				CreatedAt: time.Now(),
				Data:      data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for i := range artifacts {
		if seen[artifacts[i].Name] {
			artifacts[i].Name = uniqueName(artifacts[i], posters[i].ID)
		}
		seen[artifacts[i].Name] = true
		if sink != nil {
			if err := sink.Deliver(ctx, artifacts[i]); err != nil {
				return artifacts[:i], fmt.Errorf("deliver %s: %w", artifacts[i].Name, err)
			}
		}
	}
	return artifacts, nil
}

func uniqueName(art Artifact, id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	ext := "." + art.Format.Extension()
	return art.Name[:len(art.Name)-len(ext)] + "-" + Slug(id) + ext
}
