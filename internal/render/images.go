package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const blobScheme = "blob:"

var (
	ErrUnknownBlob = errors.New("unknown blob")
	ErrBadDataURL  = errors.New("malformed data url")
)

type imageLogger interface {
	Errorf(component string, format string, args ...interface{})
}

type imageEntry struct {
	img     image.Image
	err     error
	loading bool
	waiters []func(image.Image, error)
}

// ImageLoader decodes background images referenced by data URL, blob handle
// or file path. Results, failures included, are cached per reference.
type ImageLoader struct {
	Logger imageLogger

	mu      sync.Mutex
	blobs   map[string][]byte
	entries map[string]*imageEntry
}

func NewImageLoader() *ImageLoader {
	return &ImageLoader{blobs: map[string][]byte{}, entries: map[string]*imageEntry{}}
}

// PutBlob stores uploaded bytes and returns the reference to use in a
// configuration.
func (l *ImageLoader) PutBlob(data []byte) string {
	ref := blobScheme + uuid.NewString()
	l.mu.Lock()
	l.blobs[ref] = append([]byte(nil), data...)
	l.mu.Unlock()
	return ref
}

// Cached returns the decoded image for ref if it is already available.
func (l *ImageLoader) Cached(ref string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ref]
	if !ok || e.loading || e.err != nil {
		return nil, false
	}
	return e.img, true
}

// Failed reports whether ref was tried and could not be decoded.
func (l *ImageLoader) Failed(ref string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ref]
	return ok && !e.loading && e.err != nil
}

// Load decodes ref synchronously.
func (l *ImageLoader) Load(ref string) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	l.LoadAsync(ref, func(img image.Image, err error) { done <- result{img, err} })
	r := <-done
	return r.img, r.err
}

// LoadAsync decodes ref in the background and calls cb with the outcome. A
// cached outcome is delivered on the caller's goroutine.
func (l *ImageLoader) LoadAsync(ref string, cb func(image.Image, error)) {
	l.mu.Lock()
	if e, ok := l.entries[ref]; ok {
		if e.loading {
			e.waiters = append(e.waiters, cb)
			l.mu.Unlock()
			return
		}
		img, err := e.img, e.err
		l.mu.Unlock()
		cb(img, err)
		return
	}
	e := &imageEntry{loading: true, waiters: []func(image.Image, error){cb}}
	l.entries[ref] = e
	l.mu.Unlock()

	go func() {
		img, err := l.decode(ref)
		if err != nil && l.Logger != nil {
			l.Logger.Errorf("images", "decode %s: %v", shortRef(ref), err)
		}
		l.mu.Lock()
		e.img, e.err, e.loading = img, err, false
		waiters := e.waiters
		e.waiters = nil
		l.mu.Unlock()
		for _, fn := range waiters {
			fn(img, err)
		}
	}()
}

func (l *ImageLoader) decode(ref string) (image.Image, error) {
	data, err := l.read(ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (l *ImageLoader) read(ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return parseDataURL(ref)
	case strings.HasPrefix(ref, blobScheme):
		l.mu.Lock()
		data, ok := l.blobs[ref]
		l.mu.Unlock()
		if !ok {
			return nil, ErrUnknownBlob
		}
		return data, nil
	default:
		return os.ReadFile(ref)
	}
}

// Bytes returns the raw bytes behind ref, used for color analysis.
func (l *ImageLoader) Bytes(ref string) ([]byte, error) { return l.read(ref) }

func parseDataURL(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, ErrBadDataURL
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return []byte(text), nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func shortRef(ref string) string {
	if len(ref) > 48 {
		return ref[:48] + "..."
	}
	return ref
}
