package layout

import (
	"math"

	"github.com/rook-computer/postermaker/internal/poster"
)

// Fallback constants, used when neither an override nor the template supplies
// a value.
const (
	DefaultPadding         = 60.0
	DefaultArtistWeight    = 700
	DefaultAlbumWeight     = 800
	DefaultTracklistWeight = 600
	MinGap                 = 10.0

	fallbackArtistSize = 28.0
	fallbackAlbumSize  = 85.0
	fallbackTrackSize  = 24.0
	modernTrackSize    = 14.0
	twoColumnThreshold = 11
)

// Variant is the per-template record selected once at the start of layout.
type Variant struct {
	Template poster.Template

	// Default tops as fractions of the canvas height.
	ArtistTop    float64
	AlbumTop     float64
	TracklistTop float64

	Align poster.Alignment

	ArtistSize float64
	AlbumSize  float64

	ArtistWeight    int
	AlbumWeight     int
	TracklistWeight int

	// TrackSize is fixed unless TrackSizeOverridable is set, in which case it
	// is only the default.
	TrackSize            float64
	TrackSizeOverridable bool

	TwoColumnTracks bool
	Branding        bool
	AvoidImage      bool
	Swatches        bool

	// placeImage returns the uniform scale and the anchor the scaled image
	// hangs from, for a canvas of w by h and an image of iw by ih.
	placeImage func(w, h, iw, ih float64) imagePlacement
}

type imagePlacement struct {
	scale float64
	// anchor point on the canvas and the fraction of the image box that sits
	// on it (0.5, 0 is top-center).
	anchorX, anchorY float64
	originX, originY float64
}

var variants = map[poster.Template]Variant{
	poster.Modern: {
		Template:  poster.Modern,
		ArtistTop: 0.65, AlbumTop: 0.72, TracklistTop: 0.81,
		Align:      poster.AlignCenter,
		ArtistSize: 28, AlbumSize: 85,
		ArtistWeight: DefaultArtistWeight, AlbumWeight: DefaultAlbumWeight, TracklistWeight: DefaultTracklistWeight,
		TrackSize: modernTrackSize, TrackSizeOverridable: true,
		TwoColumnTracks: true,
		Branding:        true,
		AvoidImage:      true,
		placeImage: func(w, h, iw, ih float64) imagePlacement {
			s := math.Max(w/iw, h*0.6/ih)
			return imagePlacement{scale: s, anchorX: w / 2, originX: 0.5}
		},
	},
	poster.Split: {
		Template:  poster.Split,
		ArtistTop: 0.55, AlbumTop: 0.62, TracklistTop: 0.70,
		Align:      poster.AlignLeft,
		ArtistSize: 60, AlbumSize: 40,
		ArtistWeight: DefaultArtistWeight, AlbumWeight: DefaultAlbumWeight, TracklistWeight: DefaultTracklistWeight,
		TrackSize: fallbackTrackSize,
		placeImage: func(w, h, iw, ih float64) imagePlacement {
			return imagePlacement{scale: w / iw, anchorX: w / 2, originX: 0.5}
		},
	},
	poster.Minimal: {
		Template:  poster.Minimal,
		ArtistTop: 0.60, AlbumTop: 0.70, TracklistTop: 0.80,
		Align:      poster.AlignLeft,
		ArtistSize: 80, AlbumSize: 30,
		ArtistWeight: DefaultArtistWeight, AlbumWeight: DefaultAlbumWeight, TracklistWeight: DefaultTracklistWeight,
		TrackSize: fallbackTrackSize,
		placeImage: func(w, h, iw, ih float64) imagePlacement {
			size := math.Min(w, h) * 0.4
			s := math.Min(size/iw, size/ih)
			return imagePlacement{scale: s, anchorX: w / 2, anchorY: h * 0.3, originX: 0.5, originY: 0.5}
		},
	},
	poster.Palette: {
		Template:  poster.Palette,
		ArtistTop: 0.60, AlbumTop: 0.70, TracklistTop: 0.80,
		Align:      poster.AlignLeft,
		ArtistSize: 80, AlbumSize: 30,
		ArtistWeight: DefaultArtistWeight, AlbumWeight: DefaultAlbumWeight, TracklistWeight: DefaultTracklistWeight,
		TrackSize: fallbackTrackSize,
		Swatches:  true,
		// natural size, hung from the top-left corner
		placeImage: func(w, h, iw, ih float64) imagePlacement {
			return imagePlacement{scale: 1}
		},
	},
}

// VariantFor returns the record for t. Unknown templates get minimal, the
// plainest layout.
func VariantFor(t poster.Template) Variant {
	if v, ok := variants[t]; ok {
		return v
	}
	return variants[poster.Minimal]
}

// pick resolves a field: explicit override, else template default, else the
// hardcoded constant.
func pick[T comparable](override *T, templateDefault, constant T) T {
	if override != nil {
		return *override
	}
	var zero T
	if templateDefault != zero {
		return templateDefault
	}
	return constant
}

// pickColor resolves an element color against the shared text color.
func pickColor(override, shared string) string {
	if override != "" {
		return override
	}
	if shared != "" {
		return shared
	}
	return "#000000"
}

// anchorX is the horizontal anchor for an alignment.
func anchorX(align poster.Alignment, width, padding float64) float64 {
	switch align {
	case poster.AlignLeft:
		return padding
	case poster.AlignRight:
		return width - padding
	default:
		return width / 2
	}
}

// originFactor is the share of a box's width that sits left of its anchor.
func originFactor(align poster.Alignment) float64 {
	switch align {
	case poster.AlignLeft:
		return 0
	case poster.AlignRight:
		return 1
	default:
		return 0.5
	}
}
