package main

import (
	"fmt"
	"sort"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/state"
)

// scenario seeds the live poster. A non-empty name also saves it, so the
// gallery has something to show.
type scenario struct {
	name   string
	config func(cfg *poster.Configuration)
	meta   func(meta *poster.Metadata)
}

var scenarios = map[string]scenario{
	"default": {},
	"twelve-tracks": {
		name: "Twelve Tracks",
		meta: func(meta *poster.Metadata) {
			meta.Artist, meta.Album, meta.Year = "The Long Players", "Side A to Side B", "1979"
			meta.Tracks = nil
			for i := 1; i <= 12; i++ {
				meta.Tracks = append(meta.Tracks, poster.Track{
					Title:    fmt.Sprintf("Movement %02d", i),
					Duration: fmt.Sprintf("%d:%02d", 2+i%4, (i*17)%60),
				})
			}
		},
	},
	"minimal": {
		name: "Minimal",
		config: func(cfg *poster.Configuration) {
			cfg.Template = poster.Minimal
			cfg.BackgroundColor = poster.GradientPresets[0]
			cfg.TextColor = "#ffffff"
		},
		meta: func(meta *poster.Metadata) {
			meta.Artist, meta.Album, meta.Year = "Quiet Rooms", "Nocturnes", "2021"
		},
	},
	"palette": {
		name: "Palette",
		config: func(cfg *poster.Configuration) {
			cfg.Template = poster.Palette
			cfg.BackgroundColor = "#f4efe6"
			cfg.TextColor = "#1d1d1f"
			cfg.Palette = []string{"#264653", "#2a9d8f", "#e9c46a", "#f4a261", "#e76f51"}
		},
		meta: func(meta *poster.Metadata) {
			meta.Artist, meta.Album, meta.Year = "Coastline", "Warm Currents", "2023"
		},
	},
	// The background does not parse; rendering falls back instead of failing.
	"broken-gradient": {
		name: "Broken Gradient",
		config: func(cfg *poster.Configuration) {
			cfg.BackgroundColor = "linear-gradient(to nowhere, #zzzzzz"
		},
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func seedScenario(store *state.Store, name string) error {
	sc, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}
	store.ResetData()
	if sc.config != nil {
		if err := store.UpdateConfig(sc.config); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
	}
	if sc.meta != nil {
		store.UpdateMetadata(sc.meta)
	}
	if sc.name != "" {
		store.SavePosterAs(sc.name)
	}
	return nil
}
