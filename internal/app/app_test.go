package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rook-computer/postermaker/internal/app/screens"
	"github.com/rook-computer/postermaker/internal/buttons"
	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/tdewolff/test"
)

type scriptedButtons struct {
	ch chan buttons.Event
}

func (b *scriptedButtons) Start(ctx context.Context) error { return nil }
func (b *scriptedButtons) Stop() error                     { return nil }
func (b *scriptedButtons) Events() <-chan buttons.Event    { return b.ch }

type recordingRenderer struct {
	render.NoopRenderer

	mu      sync.Mutex
	screens []render.Screen
}

func (r *recordingRenderer) SetScreen(screen render.Screen) {
	r.mu.Lock()
	r.screens = append(r.screens, screen)
	r.mu.Unlock()
}

func (r *recordingRenderer) last() render.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.screens) == 0 {
		return nil
	}
	return r.screens[len(r.screens)-1]
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFileLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileLogger(&buf)
	l.Infof("web", "listening on %s", ":80")
	l.Errorf("export", "failed: %v", errors.New("disk full"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	test.T(t, len(lines), 2)
	info := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\S+ \[INFO\] web: listening on :80$`)
	failure := regexp.MustCompile(`^\S+ \[ERROR\] export: failed: disk full$`)
	test.That(t, info.Match(lines[0]), string(lines[0]))
	test.That(t, failure.Match(lines[1]), string(lines[1]))
}

func TestExitOnce(t *testing.T) {
	a := New(nil, nil, nil, nil, nil, nil)
	a.Exit(errors.New("first"))
	a.Exit(errors.New("second"))
	test.T(t, (<-a.exitCh).Error(), "first")
	select {
	case err := <-a.exitCh:
		t.Fatalf("unexpected second exit: %v", err)
	default:
	}
}

func TestHandleButton(t *testing.T) {
	store := state.NewStore()
	a := New(store, nil, nil, nil, nil, nil)

	a.HandleButton(buttons.Export)
	test.T(t, store.Snapshot().Config.Export.Trigger, uint64(1))

	a.HandleButton(buttons.NextView)
	test.T(t, store.Snapshot().View, state.Gallery)
	a.HandleButton(buttons.NextView)
	test.T(t, store.Snapshot().View, state.Settings)
	a.HandleButton(buttons.NextView)
	test.T(t, store.Snapshot().View, state.Editor)

	a.HandleButton(buttons.Exit)
	test.Error(t, <-a.exitCh)
}

func TestExportsToDirAndMemory(t *testing.T) {
	dir := t.TempDir()
	store := state.NewStore()
	surface := render.NewSurface(nil, nil)
	defer surface.Close()
	defer surface.Attach(store)()

	a := New(store, surface, nil, nil, nil, nil)
	runner, memory := a.NewExports(ExportConfig{OutDir: dir, SettleDelay: -1, Multiplier: 0.25})
	test.T(t, a.Exports, runner)
	runner.Start(context.Background())
	defer runner.Stop()

	store.UpdateMetadata(func(meta *poster.Metadata) { meta.Album = "Night Drive" })
	_, err := store.TriggerExport(state.ExportOptions{})
	test.Error(t, err)
	runner.Wait()

	art, ok := memory.Latest()
	test.That(t, ok, "artifact kept in memory")
	test.T(t, art.Name, export.Filename("Night Drive", poster.PNG))
	_, err = os.Stat(filepath.Join(dir, art.Name))
	test.Error(t, err)

	info := store.Snapshot().Export
	test.T(t, info.Completed, uint64(1))
	test.T(t, info.LastFile, art.Name)
	msg, _ := a.LastAlert()
	test.T(t, msg, "")
}

func TestExportFailureRaisesAlert(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	test.Error(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := state.NewStore()
	surface := render.NewSurface(nil, nil)
	defer surface.Close()

	a := New(store, surface, nil, nil, nil, nil)
	runner, memory := a.NewExports(ExportConfig{OutDir: blocker, SettleDelay: -1, Multiplier: 0.25})
	runner.Start(context.Background())
	defer runner.Stop()

	_, err := store.TriggerExport(state.ExportOptions{})
	test.Error(t, err)
	runner.Wait()

	msg, at := a.LastAlert()
	test.That(t, msg != "", "alert raised")
	test.That(t, !at.IsZero(), "alert time set")
	test.T(t, store.Snapshot().Export.Failed, uint64(1))
	_, ok := memory.Latest()
	test.That(t, !ok, "multi sink stops at the first failing sink")
}

func TestStartSwitchesScreensAndExits(t *testing.T) {
	store := state.NewStore()
	rec := &recordingRenderer{}
	btns := &scriptedButtons{ch: make(chan buttons.Event)}
	a := New(store, nil, rec, nil, nil, btns)
	a.Thumbs = &render.Offline{}

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	eventually(t, func() bool { _, ok := rec.last().(*screens.EditorScreen); return ok }, "editor screen shown first")

	btns.ch <- buttons.NextView
	eventually(t, func() bool { _, ok := rec.last().(*screens.GalleryScreen); return ok }, "gallery after next-view")

	// view changes from the web API reach the screen too
	test.Error(t, store.SetView(state.Settings))
	eventually(t, func() bool { _, ok := rec.last().(*screens.SettingsScreen); return ok }, "settings after SetView")

	btns.ch <- buttons.Exit
	select {
	case err := <-done:
		test.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not exit")
	}
}

func TestStartStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := New(nil, nil, &render.NoopRenderer{}, nil, nil, nil)
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		test.T(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
