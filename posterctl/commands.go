package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/rook-computer/postermaker/internal/app"
	"github.com/rook-computer/postermaker/internal/colors"
	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/geometry"
	"github.com/rook-computer/postermaker/internal/importer"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
)

const defaultStatePath = "./poster-storage.json"

type cli struct {
	stdout, stderr io.Writer
	logger         app.Logger
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("posterctl "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// parse handles -h by returning errUsage after the flag package printed help.
func (c *cli) parse(fs *flag.FlagSet, args []string, verbose *bool) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return err
	}
	c.logger = app.NoopLogger{}
	if verbose != nil && *verbose {
		c.logger = app.NewFileLogger(c.stderr)
	}
	return nil
}

func (c *cli) loadStore(path string) (*state.Store, error) {
	store := state.NewStore()
	if err := store.Load(path); err != nil {
		return nil, err
	}
	return store, nil
}

func (c *cli) offline(fontDir string) *render.Offline {
	fonts := render.NewFontLibrary(fontDir)
	fonts.Logger = c.logger
	images := render.NewImageLoader()
	images.Logger = c.logger
	return &render.Offline{Fonts: fonts, Images: images, Logger: c.logger}
}

func parseFormat(s string) (poster.Format, error) {
	if s == "" {
		return "", nil
	}
	f := poster.Format(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w %q", poster.ErrInvalidFormat, s)
	}
	return f, nil
}

func (c *cli) runRender(args []string) error {
	fs := c.flags("render")
	statePath := fs.String("state", defaultStatePath, "state file written by the device or simulator")
	id := fs.String("id", "", "render this saved poster instead of the live one")
	output := fs.String("o", "", "output file; the extension does not pick the format")
	format := fs.String("format", "", "png | jpg | pdf; defaults to the poster's export format")
	scale := fs.Float64("scale", export.DefaultMultiplier, "resolution multiplier")
	fontDir := fs.String("fonts", os.Getenv("POSTERMAKER_FONTS"), "directory searched for font families")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := c.parse(fs, args, verbose); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("%w: output file is required (-o)", errUsage)
	}
	f, err := parseFormat(*format)
	if err != nil {
		return err
	}

	store, err := c.loadStore(*statePath)
	if err != nil {
		return err
	}
	snap := store.Snapshot()
	cfg, meta := snap.Config, snap.Metadata
	if *id != "" {
		saved, ok := findPoster(snap.SavedPosters, *id)
		if !ok {
			return fmt.Errorf("%w: %s", state.ErrPosterNotFound, *id)
		}
		cfg, meta = saved.Config, saved.Metadata
	}
	if f != "" {
		cfg.Export.Format = f
	}

	img, err := c.offline(*fontDir).Rasterize(cfg, meta, *scale)
	if err != nil {
		return err
	}
	data, err := export.Encode(img, cfg.Export)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Done: %s (%dx%d)\n", *output, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func findPoster(saved []poster.SavedPoster, id string) (poster.SavedPoster, bool) {
	for _, p := range saved {
		if p.ID == id || p.Name == id {
			return p, true
		}
	}
	return poster.SavedPoster{}, false
}

func (c *cli) runAnalyze(args []string) error {
	fs := c.flags("analyze")
	apply := fs.Bool("apply", false, "theme the live poster in -state with the result")
	statePath := fs.String("state", defaultStatePath, "state file updated by -apply")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := c.parse(fs, args, verbose); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: one image path is required", errUsage)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	analysis := colors.Extract(context.Background(), f)

	if *apply {
		store, err := c.loadStore(*statePath)
		if err != nil {
			return err
		}
		if err := store.ApplyColorAnalysis(analysis); err != nil {
			return err
		}
		if err := store.Save(*statePath); err != nil {
			return err
		}
		c.logger.Infof("analyze", "applied to %s", *statePath)
	}
	return writeJSON(c.stdout, analysis)
}

func (c *cli) runImport(args []string) error {
	fs := c.flags("import")
	dir := fs.String("dir", "", "directory of tagged .mp3 files")
	statePath := fs.String("state", "", "replace the live poster's metadata in this state file")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := c.parse(fs, args, verbose); err != nil {
		return err
	}
	if *dir == "" {
		fs.Usage()
		return fmt.Errorf("%w: -dir is required", errUsage)
	}

	res, err := importer.Importer{Logger: c.logger}.FromMP3Dir(*dir)
	if err != nil {
		return fmt.Errorf("import %s: %w", *dir, err)
	}
	if *statePath != "" {
		store, err := c.loadStore(*statePath)
		if err != nil {
			return err
		}
		store.UpdateMetadata(func(meta *poster.Metadata) { *meta = res.Metadata })
		if res.Cover != "" {
			if err := store.UpdateConfig(func(cfg *poster.Configuration) { cfg.BackgroundImage = res.Cover }); err != nil {
				return err
			}
		}
		if err := store.Save(*statePath); err != nil {
			return err
		}
	}

	meta := res.Metadata
	fmt.Fprintf(c.stdout, "%s - %s (%s), %d files, cover: %t\n", meta.Artist, meta.Album, meta.Year, res.Files, res.Cover != "")
	for i, t := range meta.Tracks {
		fmt.Fprintf(c.stdout, "%2d. %s\n", i+1, t.Title)
	}
	return nil
}

func (c *cli) runExportAll(args []string) error {
	fs := c.flags("export-all")
	statePath := fs.String("state", defaultStatePath, "state file holding the saved posters")
	outDir := fs.String("out", "./exports", "directory receiving the artifacts")
	format := fs.String("format", "", "png | jpg | pdf; defaults to each poster's export format")
	scale := fs.Float64("scale", export.DefaultMultiplier, "resolution multiplier")
	workers := fs.Int("workers", 4, "posters rendered at once")
	fontDir := fs.String("fonts", os.Getenv("POSTERMAKER_FONTS"), "directory searched for font families")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := c.parse(fs, args, verbose); err != nil {
		return err
	}
	f, err := parseFormat(*format)
	if err != nil {
		return err
	}

	store, err := c.loadStore(*statePath)
	if err != nil {
		return err
	}
	saved := store.Snapshot().SavedPosters
	if len(saved) == 0 {
		return fmt.Errorf("no saved posters in %s", *statePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	artifacts, err := export.Batch(ctx, c.offline(*fontDir), saved, export.BatchOptions{
		Format:     f,
		Multiplier: *scale,
		Workers:    *workers,
	}, export.DirSink{Dir: *outDir})
	for _, art := range artifacts {
		fmt.Fprintf(c.stdout, "%s (%dx%d)\n", filepath.Join(*outDir, art.Name), art.Width, art.Height)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Done: %d posters\n", len(artifacts))
	return nil
}

func (c *cli) runPresets(args []string) error {
	fs := c.flags("presets")
	dpi := fs.Float64("dpi", 300, "resolution used for the pixel sizes of paper presets")
	if err := c.parse(fs, args, nil); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRINT\tNAME\tMM\tPIXELS")
	for _, key := range geometry.PresetKeys() {
		p := geometry.PrintPresets[key]
		dims := geometry.ResolveDimensions(key, *dpi, 0, 0)
		fmt.Fprintf(tw, "%s\t%s\t%gx%g\t%dx%d\n", key, p.Name, p.WidthMm, p.HeightMm, dims.Width, dims.Height)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SIZE\tPIXELS")
	for _, d := range poster.DimensionPresets {
		fmt.Fprintf(tw, "%s\t%dx%d\n", d.Name, d.Width, d.Height)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, "Templates:")
	for _, t := range poster.Templates {
		fmt.Fprintln(c.stdout, "  "+string(t))
	}
	fmt.Fprintln(c.stdout, "Gradients:")
	for _, g := range poster.GradientPresets {
		fmt.Fprintln(c.stdout, "  "+g)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
