package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rook-computer/postermaker/internal/colors"
	"github.com/rook-computer/postermaker/internal/geometry"
	"github.com/rook-computer/postermaker/internal/poster"
)

type View string

const (
	Editor   View = "editor"
	Gallery  View = "gallery"
	Settings View = "settings"
)

// Views lists the views in navigation order.
var Views = []View{Editor, Gallery, Settings}

func (v View) Valid() bool { return v == Editor || v == Gallery || v == Settings }

// Next returns the view after v, wrapping around.
func (v View) Next() View {
	for i, view := range Views {
		if view == v {
			return Views[(i+1)%len(Views)]
		}
	}
	return Editor
}

type ExportInfo struct {
	Running   int       `json:"running"`
	Completed uint64    `json:"completed"`
	Failed    uint64    `json:"failed"`
	LastFile  string    `json:"lastFile,omitempty"`
	Err       string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type State struct {
	Config          poster.Configuration `json:"config"`
	Metadata        poster.Metadata      `json:"metadata"`
	View            View                 `json:"view"`
	SavedPosters    []poster.SavedPoster `json:"savedPosters"`
	CurrentPosterID string               `json:"currentPosterId,omitempty"`
	Export          ExportInfo           `json:"export"`
	Revision        uint64               `json:"revision"`
}

func (s State) clone() State {
	out := s
	out.Config = s.Config.Clone()
	out.Metadata = s.Metadata.Clone()
	out.SavedPosters = make([]poster.SavedPoster, len(s.SavedPosters))
	for i, saved := range s.SavedPosters {
		out.SavedPosters[i] = saved.Clone()
	}
	return out
}

// Current returns the saved poster being edited, if any.
func (s State) Current() (poster.SavedPoster, bool) {
	for _, saved := range s.SavedPosters {
		if saved.ID == s.CurrentPosterID {
			return saved, true
		}
	}
	return poster.SavedPoster{}, false
}

var (
	ErrPosterNotFound = errors.New("poster not found")
	ErrTrackIndex     = errors.New("track index out of range")
	ErrInvalidView    = errors.New("unknown view")
)

func initialState() State {
	return State{
		Config:       poster.DefaultConfiguration(),
		Metadata:     poster.DefaultMetadata(),
		View:         Editor,
		SavedPosters: []poster.SavedPoster{},
	}
}

// Store owns the editor state. Every committed change bumps Revision and is
// delivered to subscribers in commit order. Subscribers must not call back into
// the store synchronously.
type Store struct {
	mu    sync.RWMutex
	state State

	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		state: initialState(),
		subs:  map[int]func(State){},
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.clone()
}

// Subscribe registers fn for every committed change and returns a cancel func.
func (store *Store) Subscribe(fn func(State)) func() {
	store.notifyMu.Lock()
	id := store.nextSub
	store.nextSub++
	store.subs[id] = fn
	store.notifyMu.Unlock()
	return func() {
		store.notifyMu.Lock()
		delete(store.subs, id)
		store.notifyMu.Unlock()
	}
}

// commit runs fn under the write lock and notifies subscribers when fn
// reports a change.
func (store *Store) commit(fn func(st *State) (bool, error)) error {
	store.notifyMu.Lock()
	defer store.notifyMu.Unlock()

	store.mu.Lock()
	changed, err := fn(&store.state)
	if err != nil || !changed {
		store.mu.Unlock()
		return err
	}
	store.state.Revision++
	snap := store.state.clone()
	store.mu.Unlock()

	for _, sub := range store.subs {
		sub(snap)
	}
	return nil
}

func (store *Store) update(fn func(st *State)) {
	_ = store.commit(func(st *State) (bool, error) {
		fn(st)
		return true, nil
	})
}

// UpdateMetadata applies fn to a copy of the metadata and commits it.
func (store *Store) UpdateMetadata(fn func(meta *poster.Metadata)) {
	store.update(func(st *State) {
		meta := st.Metadata.Clone()
		fn(&meta)
		st.Metadata = meta
	})
}

// UpdateConfig applies fn to a copy of the configuration and commits it when
// the result validates. The export trigger cannot be changed this way.
func (store *Store) UpdateConfig(fn func(cfg *poster.Configuration)) error {
	return store.commit(func(st *State) (bool, error) {
		cfg := st.Config.Clone()
		fn(&cfg)
		cfg.Export.Trigger = st.Config.Export.Trigger
		if err := cfg.Validate(); err != nil {
			return false, err
		}
		st.Config = cfg
		return true, nil
	})
}

func (store *Store) UpdateTrack(index int, fn func(track *poster.Track)) error {
	return store.commit(func(st *State) (bool, error) {
		if index < 0 || index >= len(st.Metadata.Tracks) {
			return false, fmt.Errorf("%w: %d", ErrTrackIndex, index)
		}
		tracks := append([]poster.Track(nil), st.Metadata.Tracks...)
		fn(&tracks[index])
		st.Metadata.Tracks = tracks
		return true, nil
	})
}

func (store *Store) AddTrack() {
	store.update(func(st *State) {
		tracks := append([]poster.Track(nil), st.Metadata.Tracks...)
		st.Metadata.Tracks = append(tracks, poster.NewTrack())
	})
}

func (store *Store) RemoveTrack(index int) error {
	return store.commit(func(st *State) (bool, error) {
		if index < 0 || index >= len(st.Metadata.Tracks) {
			return false, fmt.Errorf("%w: %d", ErrTrackIndex, index)
		}
		tracks := make([]poster.Track, 0, len(st.Metadata.Tracks)-1)
		tracks = append(tracks, st.Metadata.Tracks[:index]...)
		st.Metadata.Tracks = append(tracks, st.Metadata.Tracks[index+1:]...)
		return true, nil
	})
}

type ExportOptions struct {
	Format      poster.Format `json:"format,omitempty"`
	Quality     float64       `json:"quality,omitempty"`
	Transparent *bool         `json:"transparent,omitempty"`
}

// TriggerExport applies opts and bumps the export trigger. It returns the new
// trigger value.
func (store *Store) TriggerExport(opts ExportOptions) (uint64, error) {
	var trigger uint64
	err := store.commit(func(st *State) (bool, error) {
		if opts.Format != "" {
			if !opts.Format.Valid() {
				return false, fmt.Errorf("%w %q", poster.ErrInvalidFormat, opts.Format)
			}
			st.Config.Export.Format = opts.Format
		}
		if opts.Quality > 0 {
			st.Config.Export.Quality = min(opts.Quality, 1)
		}
		if opts.Transparent != nil {
			st.Config.Export.Transparent = *opts.Transparent
		}
		st.Config.Export.Trigger++
		trigger = st.Config.Export.Trigger
		return true, nil
	})
	return trigger, err
}

func (store *Store) SetView(view View) error {
	if !view.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidView, view)
	}
	store.update(func(st *State) { st.View = view })
	return nil
}

// SavePosterAs stores a copy of the live poster under a new id and makes it
// current.
func (store *Store) SavePosterAs(name string) poster.SavedPoster {
	var saved poster.SavedPoster
	store.update(func(st *State) {
		saved = store.savePosterAsLocked(st, name)
	})
	return saved
}

func (store *Store) savePosterAsLocked(st *State, name string) poster.SavedPoster {
	saved := poster.SavedPoster{
		ID:           store.newID(),
		Name:         name,
		LastModified: store.now(),
		Config:       st.Config.Clone(),
		Metadata:     st.Metadata.Clone(),
	}
	st.SavedPosters = append(st.SavedPosters, saved)
	st.CurrentPosterID = saved.ID
	st.View = Editor
	return saved.Clone()
}

// SavePoster updates the current saved poster in place, or saves a new one
// named after the album.
func (store *Store) SavePoster() poster.SavedPoster {
	var saved poster.SavedPoster
	store.update(func(st *State) {
		for i := range st.SavedPosters {
			if st.SavedPosters[i].ID != st.CurrentPosterID {
				continue
			}
			st.SavedPosters[i].Config = st.Config.Clone()
			st.SavedPosters[i].Metadata = st.Metadata.Clone()
			st.SavedPosters[i].LastModified = store.now()
			saved = st.SavedPosters[i].Clone()
			return
		}
		name := st.Metadata.Album
		if name == "" {
			name = poster.UntitledPosterName
		}
		saved = store.savePosterAsLocked(st, name)
	})
	return saved
}

// LoadPoster copies a saved poster into the editor. The live export trigger
// is kept so loading never rewinds it.
func (store *Store) LoadPoster(id string) error {
	return store.commit(func(st *State) (bool, error) {
		for _, saved := range st.SavedPosters {
			if saved.ID != id {
				continue
			}
			trigger := st.Config.Export.Trigger
			st.Config = saved.Config.Clone()
			st.Config.Export.Trigger = trigger
			st.Metadata = saved.Metadata.Clone()
			st.CurrentPosterID = saved.ID
			st.View = Editor
			return true, nil
		}
		return false, fmt.Errorf("%w: %s", ErrPosterNotFound, id)
	})
}

func (store *Store) DeletePoster(id string) error {
	return store.commit(func(st *State) (bool, error) {
		kept := make([]poster.SavedPoster, 0, len(st.SavedPosters))
		for _, saved := range st.SavedPosters {
			if saved.ID != id {
				kept = append(kept, saved)
			}
		}
		if len(kept) == len(st.SavedPosters) {
			return false, fmt.Errorf("%w: %s", ErrPosterNotFound, id)
		}
		st.SavedPosters = kept
		if st.CurrentPosterID == id {
			st.CurrentPosterID = ""
		}
		return true, nil
	})
}

// CreateNewPoster resets the editor to defaults without touching saved posters.
func (store *Store) CreateNewPoster() {
	store.update(func(st *State) {
		trigger := st.Config.Export.Trigger
		st.Config = poster.DefaultConfiguration()
		st.Config.Export.Trigger = trigger
		st.Metadata = poster.DefaultMetadata()
		st.CurrentPosterID = ""
		st.View = Editor
	})
}

// ResetData drops every saved poster and starts over.
func (store *Store) ResetData() {
	store.update(func(st *State) {
		trigger := st.Config.Export.Trigger
		fresh := initialState()
		fresh.Config.Export.Trigger = trigger
		fresh.Export = st.Export
		fresh.Revision = st.Revision
		*st = fresh
	})
}

// ApplyPrintPreset switches to a paper preset and resizes the canvas to it.
func (store *Store) ApplyPrintPreset(preset string, dpi float64) error {
	return store.UpdateConfig(func(cfg *poster.Configuration) {
		cfg.Print.Preset = preset
		if dpi > 0 {
			cfg.Print.DPI = dpi
		}
		dims := geometry.ResolveDimensions(cfg.Print.Preset, cfg.Print.DPI, cfg.Width, cfg.Height)
		cfg.Width, cfg.Height = dims.Width, dims.Height
	})
}

// ApplyDimensionPreset resizes the canvas to a named social preset.
func (store *Store) ApplyDimensionPreset(name string) error {
	preset, ok := poster.LookupDimensionPreset(name)
	if !ok {
		return fmt.Errorf("unknown dimension preset %q", name)
	}
	return store.UpdateConfig(func(cfg *poster.Configuration) {
		cfg.Width, cfg.Height = preset.Width, preset.Height
		cfg.Print.Preset = geometry.CustomPreset
	})
}

// ApplyColorAnalysis themes the live poster from artwork colors.
func (store *Store) ApplyColorAnalysis(a colors.Analysis) error {
	return store.UpdateConfig(func(cfg *poster.Configuration) {
		*cfg = colors.AutoTheme(*cfg, a)
	})
}

func (store *Store) UpdateExport(fn func(info *ExportInfo)) {
	store.update(func(st *State) {
		fn(&st.Export)
		st.Export.UpdatedAt = store.now()
	})
}
