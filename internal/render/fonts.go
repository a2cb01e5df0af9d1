package render

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// SystemFonts are families the device treats as always available. They map
// onto the built-in Go fonts.
var SystemFonts = []string{
	"Arial", "Verdana", "Helvetica", "Times New Roman", "Courier New", "Georgia", "serif", "sans-serif",
}

var weightNames = map[string]int{
	"thin":       100,
	"extralight": 200,
	"light":      300,
	"regular":    400,
	"medium":     500,
	"semibold":   600,
	"bold":       700,
	"extrabold":  800,
	"black":      900,
}

type fontLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type fontState int

const (
	fontUnknown fontState = iota
	fontLoading
	fontReady
)

// FontLibrary resolves a family, weight and size to a face. Families are read
// from Dir on demand; anything missing falls back to the Go fonts.
type FontLibrary struct {
	Dir    string
	Logger fontLogger

	mu       sync.Mutex
	state    map[string]fontState
	families map[string]map[int]*opentype.Font
	waiters  map[string][]func()

	fallbackOnce sync.Once
	fallback     map[int]*truetype.Font
}

func NewFontLibrary(dir string) *FontLibrary {
	return &FontLibrary{
		Dir:      dir,
		state:    map[string]fontState{},
		families: map[string]map[int]*opentype.Font{},
		waiters:  map[string][]func(){},
	}
}

func familyKey(family string) string {
	return strings.ToLower(strings.ReplaceAll(family, " ", ""))
}

func isSystemFont(family string) bool {
	for _, f := range SystemFonts {
		if strings.EqualFold(f, family) {
			return true
		}
	}
	return false
}

// Ready reports whether family needs no further loading.
func (l *FontLibrary) Ready(family string) bool {
	if family == "" || isSystemFont(family) || l.Dir == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[familyKey(family)] == fontReady
}

// EnsureAsync loads family in the background and calls onReady once it is
// usable, whether or not any file was found. It returns false when the family
// is already ready; onReady is not called in that case.
func (l *FontLibrary) EnsureAsync(family string, onReady func()) bool {
	if l.Ready(family) {
		return false
	}
	key := familyKey(family)

	l.mu.Lock()
	if onReady != nil {
		l.waiters[key] = append(l.waiters[key], onReady)
	}
	if l.state[key] == fontLoading {
		l.mu.Unlock()
		return true
	}
	l.state[key] = fontLoading
	l.mu.Unlock()

	go func() {
		faces, err := l.loadFamily(family)
		if err != nil && l.Logger != nil {
			l.Logger.Errorf("fonts", "load %q: %v", family, err)
		} else if l.Logger != nil {
			l.Logger.Infof("fonts", "loaded %q with %d weights", family, len(faces))
		}

		l.mu.Lock()
		l.families[key] = faces
		l.state[key] = fontReady
		waiters := l.waiters[key]
		delete(l.waiters, key)
		l.mu.Unlock()

		for _, fn := range waiters {
			fn()
		}
	}()
	return true
}

// Load is the synchronous form of EnsureAsync, used by offline rendering.
func (l *FontLibrary) Load(family string) {
	if l.Ready(family) {
		return
	}
	done := make(chan struct{})
	if l.EnsureAsync(family, func() { close(done) }) {
		<-done
	}
}

func (l *FontLibrary) loadFamily(family string) (map[int]*opentype.Font, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	key := familyKey(family)
	faces := map[int]*opentype.Font{}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		name, weight := base, 400
		if i := strings.LastIndex(base, "-"); i > 0 {
			if w, ok := parseWeight(base[i+1:]); ok {
				name, weight = base[:i], w
			}
		}
		if familyKey(name) != key {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.Dir, entry.Name()))
		if err != nil {
			return faces, err
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return faces, err
		}
		faces[weight] = f
	}
	return faces, nil
}

func parseWeight(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil && n >= 100 && n <= 1000 {
		return n, true
	}
	w, ok := weightNames[strings.ToLower(s)]
	return w, ok
}

func (l *FontLibrary) loadFallback() {
	l.fallback = map[int]*truetype.Font{}
	for weight, data := range map[int][]byte{400: goregular.TTF, 500: gomedium.TTF, 700: gobold.TTF} {
		f, err := truetype.Parse(data)
		if err != nil {
			if l.Logger != nil {
				l.Logger.Errorf("fonts", "parse go font %d: %v", weight, err)
			}
			continue
		}
		l.fallback[weight] = f
	}
}

// Face returns a new face for family at weight and size in pixels. Faces are
// not safe for concurrent use, so callers keep their own.
func (l *FontLibrary) Face(family string, weight int, size float64) font.Face {
	if size <= 0 {
		size = 1
	}
	l.mu.Lock()
	loaded := l.families[familyKey(family)]
	l.mu.Unlock()

	if f := nearestWeight(loaded, weight); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			return face
		}
		if l.Logger != nil {
			l.Logger.Errorf("fonts", "face %q %d: %v", family, weight, err)
		}
	}

	l.fallbackOnce.Do(l.loadFallback)
	class := 400
	switch {
	case weight >= 650:
		class = 700
	case weight >= 500:
		class = 500
	}
	if f, ok := l.fallback[class]; ok {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	}
	return basicfont.Face7x13
}

func nearestWeight[F any](faces map[int]*F, weight int) *F {
	var best *F
	bestDist := 0
	for w, f := range faces {
		d := w - weight
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist || (d == bestDist && w > weight) {
			best, bestDist = f, d
		}
	}
	return best
}
