package layout

import (
	"fmt"
	"strings"

	"github.com/rook-computer/postermaker/internal/poster"
)

// TrackLine formats one numbered tracklist entry.
func TrackLine(index int, title string) string {
	return fmt.Sprintf("%02d. %s", index+1, strings.ToUpper(title))
}

// SplitColumns returns how many tracks go into the first column. Only the
// two-column variants split, and only above eleven tracks.
func SplitColumns(v Variant, n int) int {
	if v.TwoColumnTracks && n > twoColumnThreshold {
		return (n + 1) / 2
	}
	return n
}

func tracklistBlock(m Measurer, cfg poster.Configuration, tracks []poster.Track, v Variant, width, height, padding, usable float64) (Element, bool) {
	if len(tracks) == 0 {
		return Element{}, false
	}

	size := v.TrackSize
	if v.TrackSizeOverridable {
		size = pick(cfg.Tracklist.FontSize, v.TrackSize, modernTrackSize)
	}
	font := Font{
		Family: cfg.FontFamily,
		Size:   size,
		Weight: pick(cfg.Tracklist.FontWeight, v.TracklistWeight, DefaultTracklistWeight),
	}
	align := pick(cfg.Tracklist.Align, v.Align, poster.AlignLeft)
	color := pickColor(cfg.Tracklist.Color, cfg.TextColor)
	spacing := size + 4
	lineHeight := m.LineHeight(font)

	firstColumn := SplitColumns(v, len(tracks))
	trackWidth := usable
	if firstColumn < len(tracks) {
		trackWidth = usable * 0.45
	}

	group := Element{Role: RoleTracklist}
	for i, track := range tracks {
		column, row := 0, i
		if i >= firstColumn {
			column, row = 1, i-firstColumn
		}
		lines := Wrap(m, TrackLine(i, track.Title), font, trackWidth)
		child := Element{
			Role: RoleTrack,
			Box: Box{
				X: float64(column) * usable * 0.5,
				Y: float64(row) * spacing,
				W: trackWidth,
				H: lineHeight * float64(len(lines)),
			},
			Text: &Text{Lines: lines, Font: font, Color: color, Align: align, LineHeight: lineHeight},
		}
		group.Children = append(group.Children, child)
		group.Box = group.Box.Union(child.Box)
	}

	anchor, top := anchorX(align, width, padding), v.TracklistTop*height
	if cfg.Tracklist.Position != nil {
		anchor, top = cfg.Tracklist.Position.Left, cfg.Tracklist.Position.Top
	}
	indent := pick(cfg.TracklistIndent, 0, 0)
	x := anchor - originFactor(align)*group.Box.W + indent
	moveBy(&group, x-group.Box.X, top-group.Box.Y)
	return group, true
}

// Columns groups the tracklist children by their left edge, left to right.
func Columns(tracklist Element) [][]Element {
	var columns [][]Element
	var lefts []float64
	for _, child := range tracklist.Children {
		idx := -1
		for i, left := range lefts {
			if left == child.Box.X {
				idx = i
				break
			}
		}
		if idx < 0 {
			lefts = append(lefts, child.Box.X)
			columns = append(columns, nil)
			idx = len(columns) - 1
		}
		columns[idx] = append(columns[idx], child)
	}
	return columns
}
