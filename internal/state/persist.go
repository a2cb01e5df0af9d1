package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rook-computer/postermaker/internal/poster"
)

// record is the persisted part of State. Export progress is runtime only.
type record struct {
	Config          poster.Configuration `json:"config"`
	Metadata        poster.Metadata      `json:"metadata"`
	View            View                 `json:"view"`
	SavedPosters    []poster.SavedPoster `json:"savedPosters"`
	CurrentPosterID string               `json:"currentPosterId,omitempty"`
}

// Save writes the persisted state to path atomically.
func (store *Store) Save(path string) error {
	snap := store.Snapshot()
	data, err := json.MarshalIndent(record{
		Config:          snap.Config,
		Metadata:        snap.Metadata,
		View:            snap.View,
		SavedPosters:    snap.SavedPosters,
		CurrentPosterID: snap.CurrentPosterID,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load replaces the store contents with the record at path. A missing file
// leaves the defaults in place.
func (store *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	rec := record{
		Config:   poster.DefaultConfiguration(),
		Metadata: poster.DefaultMetadata(),
		View:     Editor,
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := rec.Config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !rec.View.Valid() {
		rec.View = Editor
	}
	if rec.SavedPosters == nil {
		rec.SavedPosters = []poster.SavedPoster{}
	}

	store.update(func(st *State) {
		st.Config = rec.Config
		st.Metadata = rec.Metadata
		st.View = rec.View
		st.SavedPosters = rec.SavedPosters
		st.CurrentPosterID = rec.CurrentPosterID
	})
	return nil
}

type persistLogger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// Persister saves the store to Path after every committed change.
type Persister struct {
	Store  *Store
	Path   string
	Logger persistLogger

	cancel func()
}

func (p *Persister) Start() {
	if p.Store == nil || p.Path == "" {
		return
	}
	p.cancel = p.Store.Subscribe(func(State) {
		if err := p.Store.Save(p.Path); err != nil && p.Logger != nil {
			p.Logger.Errorf("store", "save %s failed: %v", p.Path, err)
		}
	})
}

func (p *Persister) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
