package colors

import "github.com/rook-computer/postermaker/internal/poster"

// AutoTheme copies an analysis into cfg the way "Auto-Theme from Art" does.
// The modern template gets the suggested gradient and tinted headings; the
// other templates take the flat background and drop heading color overrides.
func AutoTheme(cfg poster.Configuration, a Analysis) poster.Configuration {
	out := cfg.Clone()
	switch out.Template {
	case poster.Modern:
		out.BackgroundColor = a.SuggestedGradient
		out.TextColor = a.Text
		out.Artist.Color = a.Text
		out.Album.Color = a.Text
	default:
		out.BackgroundColor = a.Background
		out.TextColor = a.Text
		out.Artist.Color = ""
		out.Album.Color = ""
	}
	if out.Template == poster.Palette {
		out.Palette = []string{a.Top, a.Background, a.Bottom, a.Text}
	}
	return out
}
