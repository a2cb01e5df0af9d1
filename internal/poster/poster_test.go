package poster

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"
)

func TestDefaultsValidate(t *testing.T) {
	test.Error(t, DefaultConfiguration().Validate())
	test.T(t, len(DefaultMetadata().Tracks), 3)
}

func TestValidate(t *testing.T) {
	bad := Alignment("justify")
	tests := []struct {
		name   string
		mutate func(*Configuration)
		want   error
	}{
		{"zero width", func(c *Configuration) { c.Width = 0 }, ErrInvalidSize},
		{"template", func(c *Configuration) { c.Template = "retro" }, ErrInvalidTemplate},
		{"alignment", func(c *Configuration) { c.Album.Align = &bad }, ErrInvalidAlignment},
		{"format", func(c *Configuration) { c.Export.Format = "gif" }, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(&cfg)
			err := cfg.Validate()
			test.That(t, errors.Is(err, tt.want), "unexpected error", err)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Artist.FontSize = Ptr(40.0)
	cfg.Palette = []string{"#111111"}
	meta := DefaultMetadata()

	saved := SavedPoster{ID: "a", Config: cfg, Metadata: meta}.Clone()
	*cfg.Artist.FontSize = 99
	cfg.Palette[0] = "#ffffff"
	meta.Tracks[0].Title = "Changed"

	test.Float(t, *saved.Config.Artist.FontSize, 40)
	test.String(t, saved.Config.Palette[0], "#111111")
	test.String(t, saved.Metadata.Tracks[0].Title, "Track 01")
}

func TestFormatExtension(t *testing.T) {
	test.String(t, JPG.Extension(), "jpg")
	test.String(t, Format("tiff").Extension(), "png")
}
