package poster

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s ElementStyle) Clone() ElementStyle {
	return ElementStyle{
		FontSize:   clonePtr(s.FontSize),
		FontWeight: clonePtr(s.FontWeight),
		Color:      s.Color,
		Align:      clonePtr(s.Align),
		Position:   clonePtr(s.Position),
	}
}

// Clone returns a deep copy that shares no memory with c.
func (c Configuration) Clone() Configuration {
	out := c
	out.BackgroundImageScale = clonePtr(c.BackgroundImageScale)
	out.BackgroundImageOffset = clonePtr(c.BackgroundImageOffset)
	out.BackgroundImageOpacity = clonePtr(c.BackgroundImageOpacity)
	out.Padding = clonePtr(c.Padding)
	out.Artist = c.Artist.Clone()
	out.Album = c.Album.Clone()
	out.Tracklist = c.Tracklist.Clone()
	out.TracklistIndent = clonePtr(c.TracklistIndent)
	if c.Palette != nil {
		out.Palette = append([]string(nil), c.Palette...)
	}
	out.Label.Position = clonePtr(c.Label.Position)
	out.Label.Align = clonePtr(c.Label.Align)
	return out
}

func (m Metadata) Clone() Metadata {
	out := m
	if m.Tracks != nil {
		out.Tracks = append([]Track(nil), m.Tracks...)
	}
	return out
}

func (p SavedPoster) Clone() SavedPoster {
	out := p
	out.Config = p.Config.Clone()
	out.Metadata = p.Metadata.Clone()
	return out
}

// Ptr returns a pointer to v, handy for filling optional overrides.
func Ptr[T any](v T) *T { return &v }
