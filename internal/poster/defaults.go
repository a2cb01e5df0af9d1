package poster

import "github.com/rook-computer/postermaker/internal/geometry"

// DefaultConfiguration is the configuration of a fresh poster. Element styles are
// left empty so the selected template drives sizes, weights and alignment.
func DefaultConfiguration() Configuration {
	return Configuration{
		Width:           1080,
		Height:          1350,
		BackgroundColor: "#ffffff",
		TextColor:       "#000000",
		FontFamily:      "Inter",
		Template:        Modern,
		Print: PrintConfig{
			Preset:   geometry.CustomPreset,
			DPI:      300,
			BleedMm:  3,
			MarginMm: 10,
		},
		Export: ExportState{Format: PNG, Quality: 1},
	}
}

func DefaultMetadata() Metadata {
	return Metadata{
		Artist: "Artist Name",
		Album:  "Album Title",
		Year:   "2024",
		Tracks: []Track{
			{Title: "Track 01", Duration: "3:45"},
			{Title: "Track 02", Duration: "4:20"},
			{Title: "Track 03", Duration: "2:55"},
		},
	}
}

// NewTrack is appended by the "add track" action.
func NewTrack() Track { return Track{Title: "New Track", Duration: "0:00"} }

// UntitledPosterName names a save when the album is empty.
const UntitledPosterName = "Untitled Poster"
