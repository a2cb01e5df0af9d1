package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives finished artifacts.
type Sink interface {
	Deliver(ctx context.Context, art Artifact) error
}

// Notifier shows export failures to the user.
type Notifier interface {
	Alert(message string)
}

type NoopNotifier struct{}

func (NoopNotifier) Alert(string) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// DirSink writes artifacts into Dir, replacing files with the same name.
type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(ctx context.Context, art Artifact) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, art.Name)
	tmp, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(art.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move into place: %w", err)
	}
	return nil
}

// MemorySink keeps the most recent artifacts for download.
type MemorySink struct {
	// Keep bounds the history; zero keeps one.
	Keep int

	mu        sync.Mutex
	artifacts []Artifact
}

func (s *MemorySink) Deliver(ctx context.Context, art Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := max(s.Keep, 1)
	s.artifacts = append(s.artifacts, art)
	if len(s.artifacts) > keep {
		s.artifacts = append([]Artifact(nil), s.artifacts[len(s.artifacts)-keep:]...)
	}
	return nil
}

// Latest returns the newest artifact.
func (s *MemorySink) Latest() (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.artifacts) == 0 {
		return Artifact{}, false
	}
	return s.artifacts[len(s.artifacts)-1], true
}

// All returns the kept artifacts, oldest first.
func (s *MemorySink) All() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Artifact(nil), s.artifacts...)
}

// MultiSink delivers to every sink in order and stops at the first error.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, art Artifact) error {
	for _, s := range m {
		if err := s.Deliver(ctx, art); err != nil {
			return err
		}
	}
	return nil
}
