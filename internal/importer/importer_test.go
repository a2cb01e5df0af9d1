package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/tdewolff/test"
)

func writeMP3(t *testing.T, dir, name string, frames map[string]string, picture []byte) string {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	for id, text := range frames {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, text)
	}
	if picture != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/png",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     picture,
		})
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	test.Error(t, err)
	defer f.Close()
	_, err = tag.WriteTo(f)
	test.Error(t, err)
	// stand-in audio frames
	_, err = f.Write(make([]byte, 128))
	test.Error(t, err)
	return path
}

func TestFromMP3Dir(t *testing.T) {
	dir := t.TempDir()
	writeMP3(t, dir, "b.mp3", map[string]string{"TPE2": "Various", "TALB": "Night Drive", "TIT2": "Second", "TRCK": "2/3", "TDRC": "2019-05-01"}, []byte{1, 2, 3})
	writeMP3(t, dir, "a.mp3", map[string]string{"TPE1": "Solar", "TIT2": "First", "TRCK": "1/3"}, nil)
	writeMP3(t, dir, "z.mp3", map[string]string{"TIT2": "Bonus"}, nil)
	writeMP3(t, dir, "c.mp3", map[string]string{"TRCK": "3"}, nil)
	test.Error(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	res, err := Importer{}.FromMP3Dir(dir)
	test.Error(t, err)
	test.T(t, res.Files, 4)
	test.String(t, res.Metadata.Artist, "Solar")
	test.String(t, res.Metadata.Album, "Night Drive")
	test.String(t, res.Metadata.Year, "2019")

	var titles []string
	for _, track := range res.Metadata.Tracks {
		titles = append(titles, track.Title)
		test.String(t, track.Duration, "")
	}
	test.T(t, titles, []string{"First", "Second", "c", "Bonus"})
	test.That(t, strings.HasPrefix(res.Cover, "data:image/png;base64,"), res.Cover)
}

func TestArtistFallsBackToAlbumArtist(t *testing.T) {
	dir := t.TempDir()
	path := writeMP3(t, dir, "only.mp3", map[string]string{"TPE2": "Band", "TIT2": "Song"}, nil)
	res, err := Importer{}.FromFiles([]string{path})
	test.Error(t, err)
	test.String(t, res.Metadata.Artist, "Band")
}

func TestFromFilesNothingReadable(t *testing.T) {
	_, err := Importer{}.FromFiles([]string{filepath.Join(t.TempDir(), "missing.mp3")})
	test.T(t, err, ErrNoTracks)

	_, err = Importer{}.FromMP3Dir(filepath.Join(t.TempDir(), "nope"))
	test.That(t, err != nil)
}

func TestTrackNumber(t *testing.T) {
	test.T(t, trackNumber("7"), 7)
	test.T(t, trackNumber(" 3/12"), 3)
	test.T(t, trackNumber(""), 0)
	test.T(t, trackNumber("A1"), 0)
	test.String(t, year("2024-03-01"), "2024")
	test.String(t, year("MMXX"), "MMXX")
}
