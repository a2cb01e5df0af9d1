package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/tdewolff/test"
)

type fakeSurface struct {
	mu             sync.Mutex
	cfg            poster.Configuration
	meta           poster.Metadata
	guides         bool
	hidden         int
	releases       int
	selected       bool
	renders        int
	rasterErr      error
	panicOnRelease bool
	// live guide visibility at each ExportFrame
	rasterGuides []bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{cfg: poster.DefaultConfiguration(), meta: poster.DefaultMetadata(), guides: true, selected: true}
}

func (f *fakeSurface) ClearSelection() {
	f.mu.Lock()
	f.selected = false
	f.mu.Unlock()
}

func (f *fakeSurface) HideGuides() func() {
	f.mu.Lock()
	f.hidden++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.releases++
		if f.panicOnRelease {
			panic("surface torn down")
		}
		f.hidden--
	}
}

func (f *fakeSurface) visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guides && f.hidden == 0
}

func (f *fakeSurface) Render() error {
	f.mu.Lock()
	f.renders++
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) ExportFrame(m float64) (*image.RGBA, poster.Configuration, poster.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rasterGuides = append(f.rasterGuides, f.guides && f.hidden == 0)
	if f.rasterErr != nil {
		return nil, poster.Configuration{}, poster.Metadata{}, f.rasterErr
	}
	w, h := int(float64(f.cfg.Width)*m), int(float64(f.cfg.Height)*m)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img, f.cfg.Clone(), f.meta.Clone(), nil
}

func (f *fakeSurface) set(fn func(*poster.Configuration, *poster.Metadata)) {
	f.mu.Lock()
	fn(&f.cfg, &f.meta)
	f.mu.Unlock()
}

type alerts struct {
	mu  sync.Mutex
	msg []string
}

func (a *alerts) Alert(m string) {
	a.mu.Lock()
	a.msg = append(a.msg, m)
	a.mu.Unlock()
}

func smallSurface() *fakeSurface {
	s := newFakeSurface()
	s.cfg.Width, s.cfg.Height = 40, 30
	return s
}

func TestFilename(t *testing.T) {
	tests := []struct {
		album  string
		format poster.Format
		want   string
	}{
		{"Album Title", poster.PNG, "poster-album-title.png"},
		{"  Kind   of Blue ", poster.JPG, "poster-kind-of-blue.jpg"},
		{"", poster.PDF, "poster-untitled.pdf"},
		{"AC/DC", poster.PNG, "poster-ac-dc.png"},
		{"..", poster.PNG, "poster-untitled.png"},
	}
	for _, tt := range tests {
		test.String(t, Filename(tt.album, tt.format), tt.want, tt.album)
	}
}

func TestJPEGQuality(t *testing.T) {
	test.T(t, JPEGQuality(0.92), 92)
	test.T(t, JPEGQuality(0), 1)
	test.T(t, JPEGQuality(1.5), 100)
}

func TestPipelinePNG(t *testing.T) {
	s := smallSurface()
	sink := &MemorySink{}
	p := &Pipeline{Surface: s, Sink: sink, SettleDelay: -1}

	art, err := p.Export(context.Background())
	test.Error(t, err)
	test.String(t, art.Name, "poster-album-title.png")
	test.T(t, art.Width, 80)
	test.T(t, art.Height, 60)
	img, err := png.Decode(bytes.NewReader(art.Data))
	test.Error(t, err)
	test.T(t, img.Bounds().Dx(), 80)

	test.That(t, !s.selected, "selection not cleared")
	test.T(t, s.rasterGuides, []bool{false})
	test.That(t, s.visible(), "guides not restored")
	test.T(t, s.renders, 1)

	latest, ok := sink.Latest()
	test.That(t, ok)
	test.String(t, latest.Name, art.Name)
}

func TestPipelineJPEGAndPDF(t *testing.T) {
	s := smallSurface()
	s.cfg.Export = poster.ExportState{Format: poster.JPG, Quality: 0.5}
	p := &Pipeline{Surface: s, SettleDelay: -1}
	art, err := p.Export(context.Background())
	test.Error(t, err)
	test.String(t, art.MIME, "image/jpeg")
	img, err := jpeg.Decode(bytes.NewReader(art.Data))
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 80, 60))

	s.cfg.Export.Format = poster.PDF
	art, err = p.Export(context.Background())
	test.Error(t, err)
	test.String(t, art.Name, "poster-album-title.pdf")
	test.That(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
}

func TestPipelineFailureRestoresGuides(t *testing.T) {
	s := smallSurface()
	s.rasterErr = errors.New("out of memory")
	a := &alerts{}
	p := &Pipeline{Surface: s, Notifier: a, SettleDelay: -1}

	_, err := p.Export(context.Background())
	test.That(t, err != nil)
	test.That(t, s.visible(), "guides not restored after failure")
	test.T(t, len(a.msg), 1)
	test.String(t, a.msg[0], "Export failed: rasterize: out of memory")
}

func TestPipelineRestorePanicDoesNotMask(t *testing.T) {
	s := smallSurface()
	s.rasterErr = errors.New("boom")
	s.panicOnRelease = true
	a := &alerts{}
	p := &Pipeline{Surface: s, Notifier: a, SettleDelay: -1}

	_, err := p.Export(context.Background())
	test.That(t, err != nil && errors.Is(err, s.rasterErr))
	test.T(t, s.releases, 1)
	test.T(t, len(a.msg), 1)
}

func TestPipelineSettleCanceled(t *testing.T) {
	s := smallSurface()
	p := &Pipeline{Surface: s, SettleDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Export(ctx)
	test.T(t, err, context.Canceled)
	test.That(t, s.visible())
}

func TestPipelineOverlappingExports(t *testing.T) {
	s := smallSurface()
	sink := &MemorySink{Keep: 10}
	p := &Pipeline{Surface: s, Sink: sink, SettleDelay: 60 * time.Millisecond}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.Export(context.Background())
		}()
		time.Sleep(30 * time.Millisecond)
	}
	wg.Wait()

	for _, err := range errs {
		test.Error(t, err)
	}

	test.T(t, s.rasterGuides, []bool{false, false})
	test.That(t, s.visible(), "guides left hidden")
	test.T(t, len(sink.All()), 2)
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	art := Artifact{Name: "poster-a.png", Data: []byte("one")}
	test.Error(t, DirSink{Dir: dir}.Deliver(context.Background(), art))
	art.Data = []byte("two")
	test.Error(t, DirSink{Dir: dir}.Deliver(context.Background(), art))
	data, err := os.ReadFile(filepath.Join(dir, "poster-a.png"))
	test.Error(t, err)
	test.String(t, string(data), "two")
	entries, _ := os.ReadDir(dir)
	test.T(t, len(entries), 1)
}

func TestMemorySinkKeep(t *testing.T) {
	sink := &MemorySink{Keep: 2}
	for _, name := range []string{"a", "b", "c"} {
		test.Error(t, sink.Deliver(context.Background(), Artifact{Name: name}))
	}
	all := sink.All()
	test.T(t, len(all), 2)
	test.String(t, all[0].Name, "b")
	test.String(t, all[1].Name, "c")
}

func TestRunnerOneExportPerTrigger(t *testing.T) {
	store := state.NewStore()
	s := smallSurface()
	sink := &MemorySink{Keep: 10}
	r := &Runner{Store: store, Pipeline: &Pipeline{Surface: s, Sink: sink, SettleDelay: -1}}
	r.Start(context.Background())
	defer r.Stop()

	albums := []string{"First", "Second", "Third"}
	for _, album := range albums {
		s.set(func(cfg *poster.Configuration, meta *poster.Metadata) { meta.Album = album })
		_, err := store.TriggerExport(state.ExportOptions{})
		test.Error(t, err)
		r.Wait()
	}
	// unrelated changes never start an export
	store.AddTrack()
	r.Wait()

	all := sink.All()
	test.T(t, len(all), 3)
	for i, album := range albums {
		test.String(t, all[i].Name, Filename(album, poster.PNG))
	}
	info := store.Snapshot().Export
	test.T(t, info.Completed, uint64(3))
	test.T(t, info.Running, 0)
	test.String(t, info.LastFile, "poster-third.png")
}

func TestRunnerOverlappingTriggers(t *testing.T) {
	store := state.NewStore()
	s := smallSurface()
	sink := &MemorySink{Keep: 10}
	r := &Runner{Store: store, Pipeline: &Pipeline{Surface: s, Sink: sink, SettleDelay: 40 * time.Millisecond}}
	r.Start(context.Background())
	defer r.Stop()

	for i := 0; i < 3; i++ {
		_, err := store.TriggerExport(state.ExportOptions{})
		test.Error(t, err)
	}
	r.Wait()

	test.T(t, len(sink.All()), 3)
	test.T(t, s.rasterGuides, []bool{false, false, false})
	test.That(t, s.visible(), "guides left hidden")
	info := store.Snapshot().Export
	test.T(t, info.Completed, uint64(3))
	test.T(t, info.Running, 0)
}

type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(cfg poster.Configuration, meta poster.Metadata, m float64) (*image.RGBA, error) {
	if meta.Album == "broken" {
		return nil, errors.New("broken poster")
	}
	img := image.NewRGBA(image.Rect(0, 0, int(float64(cfg.Width)*m), int(float64(cfg.Height)*m)))
	img.Set(0, 0, color.White)
	return img, nil
}

func TestBatch(t *testing.T) {
	mk := func(id, album string) poster.SavedPoster {
		cfg := poster.DefaultConfiguration()
		cfg.Width, cfg.Height = 20, 10
		meta := poster.DefaultMetadata()
		meta.Album = album
		return poster.SavedPoster{ID: id, Name: album, Config: cfg, Metadata: meta}
	}
	posters := []poster.SavedPoster{mk("aaaaaaaa-1", "One"), mk("bbbbbbbb-2", "Two"), mk("cccccccc-3", "One")}

	sink := &MemorySink{Keep: 10}
	arts, err := Batch(context.Background(), fakeRasterizer{}, posters, BatchOptions{Format: poster.JPG, Multiplier: 1}, sink)
	test.Error(t, err)
	test.T(t, len(arts), 3)
	test.String(t, arts[0].Name, "poster-one.jpg")
	test.String(t, arts[1].Name, "poster-two.jpg")
	test.String(t, arts[2].Name, "poster-one-cccccccc.jpg")
	test.T(t, arts[0].Width, 20)
	test.T(t, len(sink.All()), 3)

	posters = append(posters, mk("dddd", "broken"))
	_, err = Batch(context.Background(), fakeRasterizer{}, posters, BatchOptions{}, nil)
	test.That(t, err != nil)
}
