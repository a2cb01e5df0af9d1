package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	test.Error(t, png.Encode(&buf, solid(w, h, color.RGBA{B: 0xFF, A: 0xFF})))
	return buf.Bytes()
}

func TestImageLoaderSources(t *testing.T) {
	data := pngBytes(t, 8, 4)
	loader := NewImageLoader()

	img, err := loader.Load(DataURL("image/png", data))
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 8, 4))

	ref := loader.PutBlob(data)
	test.That(t, len(ref) > len(blobScheme))
	img, err = loader.Load(ref)
	test.Error(t, err)
	test.T(t, img.Bounds().Dx(), 8)
	cached, ok := loader.Cached(ref)
	test.That(t, ok)
	test.T(t, cached, img)

	path := filepath.Join(t.TempDir(), "cover.png")
	test.Error(t, os.WriteFile(path, data, 0o644))
	img, err = loader.Load(path)
	test.Error(t, err)
	test.T(t, img.Bounds().Dy(), 4)
}

func TestImageLoaderFailures(t *testing.T) {
	loader := NewImageLoader()

	_, err := loader.Load("blob:nope")
	test.That(t, errors.Is(err, ErrUnknownBlob))
	test.That(t, loader.Failed("blob:nope"))
	_, ok := loader.Cached("blob:nope")
	test.That(t, !ok)

	_, err = loader.Load("data:image/png;base64")
	test.That(t, errors.Is(err, ErrBadDataURL))

	_, err = loader.Load(DataURL("image/png", []byte("not an image")))
	test.That(t, err != nil)
}

func TestImageLoaderAsync(t *testing.T) {
	loader := NewImageLoader()
	ref := loader.PutBlob(pngBytes(t, 2, 2))

	done := make(chan image.Image, 2)
	loader.LoadAsync(ref, func(img image.Image, err error) { done <- img })
	loader.LoadAsync(ref, func(img image.Image, err error) { done <- img })
	first, second := <-done, <-done
	test.T(t, first.Bounds(), image.Rect(0, 0, 2, 2))
	test.T(t, second, first)
}

func TestParseDataURLPlain(t *testing.T) {
	data, err := parseDataURL("data:text/plain,hello%20world")
	test.Error(t, err)
	test.String(t, string(data), "hello world")
}
