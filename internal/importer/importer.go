// Package importer fills poster metadata from tagged audio files.
package importer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/rook-computer/postermaker/internal/poster"
)

var ErrNoTracks = errors.New("no readable mp3 files")

type importLogger interface {
	Errorf(component string, format string, args ...interface{})
}

// Result is the metadata gathered from a set of files.
type Result struct {
	Metadata poster.Metadata `json:"metadata"`
	// Cover is the first embedded picture as a data URL, or empty.
	Cover string `json:"cover,omitempty"`
	Files int    `json:"files"`
}

type Importer struct {
	Logger importLogger
}

type trackFile struct {
	path   string
	number int
	title  string
}

// FromMP3Dir imports every .mp3 file directly inside dir.
func (im Importer) FromMP3Dir(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return im.FromFiles(paths)
}

// FromFiles reads ID3v2 tags from paths. Unreadable files are skipped; the
// call fails only when none could be read.
func (im Importer) FromFiles(paths []string) (Result, error) {
	var res Result
	var tracks []trackFile
	for _, path := range paths {
		t, err := im.readFile(path, &res)
		if err != nil {
			if im.Logger != nil {
				im.Logger.Errorf("import", "skip %s: %v", filepath.Base(path), err)
			}
			continue
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		return Result{}, ErrNoTracks
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if (a.number > 0) != (b.number > 0) {
			return a.number > 0
		}
		if a.number != b.number {
			return a.number < b.number
		}
		return filepath.Base(a.path) < filepath.Base(b.path)
	})
	for _, t := range tracks {
		res.Metadata.Tracks = append(res.Metadata.Tracks, poster.Track{Title: t.title})
	}
	res.Files = len(tracks)
	return res, nil
}

func (im Importer) readFile(path string, res *Result) (trackFile, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return trackFile{}, fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	meta := &res.Metadata
	if meta.Artist == "" {
		meta.Artist = firstText(tag, "TPE1", "TPE2")
	}
	if meta.Album == "" {
		meta.Album = firstText(tag, "TALB")
	}
	if meta.Year == "" {
		meta.Year = year(firstText(tag, "TYER", "TDRC"))
	}
	if meta.Label == "" {
		meta.Label = firstText(tag, "TPUB")
	}
	if res.Cover == "" {
		res.Cover = cover(tag)
	}

	title := firstText(tag, "TIT2")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return trackFile{path: path, number: trackNumber(firstText(tag, "TRCK")), title: title}, nil
}

func firstText(tag *id3v2.Tag, ids ...string) string {
	for _, id := range ids {
		if text := strings.TrimSpace(tag.GetTextFrame(id).Text); text != "" {
			return text
		}
	}
	return ""
}

// trackNumber parses "3" and "3/12"; anything else is unnumbered.
func trackNumber(s string) int {
	s, _, _ = strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// year keeps the leading year of a date such as 2024-03-01.
func year(s string) string {
	if len(s) >= 4 {
		if _, err := strconv.Atoi(s[:4]); err == nil {
			return s[:4]
		}
	}
	return s
}

func cover(tag *id3v2.Tag) string {
	for _, f := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		mime := pic.MimeType
		if mime == "" || !strings.Contains(mime, "/") {
			mime = "image/jpeg"
		}
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(pic.Picture)
	}
	return ""
}
