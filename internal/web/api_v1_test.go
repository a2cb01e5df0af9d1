package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/importer"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/tdewolff/test"
)

func newAPI(deps APIV1Deps) http.Handler {
	return NewDefaultMux("", APIV1Config{Deps: deps})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	test.Error(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func pngOf(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	test.Error(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPatchConfigMerges(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodPatch, "/api/v1/config", `{"template":"split","artist":{"fontSize":50}}`)
	test.T(t, rec.Code, http.StatusOK)

	cfg := store.Snapshot().Config
	test.T(t, cfg.Template, poster.Split)
	test.That(t, cfg.Artist.FontSize != nil, "artist size override set")
	test.Float(t, *cfg.Artist.FontSize, 50)
	test.T(t, cfg.Width, 1080)
	test.T(t, cfg.TextColor, "#000000")

	rec = do(t, h, http.MethodPatch, "/api/v1/config", `{"artist":{"fontSize":null}}`)
	test.T(t, rec.Code, http.StatusOK)
	test.That(t, store.Snapshot().Config.Artist.FontSize == nil, "null clears the override")
}

func TestPatchConfigRejectsInvalid(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})
	before := store.Snapshot().Revision

	rec := do(t, h, http.MethodPatch, "/api/v1/config", `{"width":0}`)
	test.T(t, rec.Code, http.StatusBadRequest)
	test.T(t, decode[apiError](t, rec).Error, "invalid_config")

	rec = do(t, h, http.MethodPatch, "/api/v1/config", `{"width":`)
	test.T(t, rec.Code, http.StatusBadRequest)
	test.T(t, decode[apiError](t, rec).Error, "invalid_json")

	test.T(t, store.Snapshot().Revision, before)
	test.T(t, store.Snapshot().Config.Width, 1080)
}

func TestPatchConfigKeepsTrigger(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})
	rec := do(t, h, http.MethodPatch, "/api/v1/config", `{"export":{"format":"jpg","trigger":99}}`)
	test.T(t, rec.Code, http.StatusOK)
	cfg := store.Snapshot().Config
	test.T(t, cfg.Export.Format, poster.JPG)
	test.T(t, cfg.Export.Trigger, uint64(0))
}

func TestPatchMetadata(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})
	rec := do(t, h, http.MethodPatch, "/api/v1/metadata", `{"album":"Night Drive"}`)
	test.T(t, rec.Code, http.StatusOK)
	meta := store.Snapshot().Metadata
	test.T(t, meta.Album, "Night Drive")
	test.T(t, meta.Artist, "Artist Name")
	test.T(t, len(meta.Tracks), 3)
}

func TestTracks(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodPost, "/api/v1/tracks", "")
	test.T(t, rec.Code, http.StatusCreated)
	tracks := decode[[]poster.Track](t, rec)
	test.T(t, len(tracks), 4)
	test.T(t, tracks[3], poster.NewTrack())

	rec = do(t, h, http.MethodPatch, "/api/v1/tracks/0", `{"title":"Intro"}`)
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, store.Snapshot().Metadata.Tracks[0], poster.Track{Title: "Intro", Duration: "3:45"})

	rec = do(t, h, http.MethodDelete, "/api/v1/tracks/1", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, len(store.Snapshot().Metadata.Tracks), 3)
	test.T(t, store.Snapshot().Metadata.Tracks[1].Title, "Track 03")

	rec = do(t, h, http.MethodDelete, "/api/v1/tracks/9", "")
	test.T(t, rec.Code, http.StatusNotFound)
	test.T(t, decode[apiError](t, rec).Error, "track_not_found")

	rec = do(t, h, http.MethodPatch, "/api/v1/tracks/x", `{}`)
	test.T(t, rec.Code, http.StatusBadRequest)
}

func TestExportTrigger(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodPost, "/api/v1/export", `{"format":"jpg","quality":0.8}`)
	test.T(t, rec.Code, http.StatusAccepted)
	test.T(t, decode[exportResponse](t, rec).Trigger, uint64(1))

	rec = do(t, h, http.MethodPost, "/api/v1/export", "")
	test.T(t, rec.Code, http.StatusAccepted)
	test.T(t, decode[exportResponse](t, rec).Trigger, uint64(2))

	cfg := store.Snapshot().Config
	test.T(t, cfg.Export.Format, poster.JPG)
	test.Float(t, cfg.Export.Quality, 0.8)

	rec = do(t, h, http.MethodPost, "/api/v1/export", `{"format":"svg"}`)
	test.T(t, rec.Code, http.StatusBadRequest)
	test.T(t, store.Snapshot().Config.Export.Trigger, uint64(2))

	rec = do(t, h, http.MethodGet, "/api/v1/export", "")
	test.T(t, rec.Code, http.StatusMethodNotAllowed)
	test.T(t, decode[apiError](t, rec).Error, "method_not_allowed")

	rec = do(t, h, http.MethodGet, "/api/v1/export/status", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, decode[state.ExportInfo](t, rec).Running, 0)
}

func TestLatestExport(t *testing.T) {
	sink := &export.MemorySink{}
	h := newAPI(APIV1Deps{Artifacts: sink})

	rec := do(t, h, http.MethodGet, "/api/v1/exports/latest", "")
	test.T(t, rec.Code, http.StatusNotFound)
	test.T(t, decode[apiError](t, rec).Error, "no_export")

	test.Error(t, sink.Deliver(context.Background(), export.Artifact{
		Name:      "poster-night-drive.png",
		MIME:      "image/png",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Data:      []byte("png bytes"),
	}))
	rec = do(t, h, http.MethodGet, "/api/v1/exports/latest", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, rec.Body.String(), "png bytes")
	test.T(t, rec.Header().Get("Content-Type"), "image/png")
	test.That(t, strings.Contains(rec.Header().Get("Content-Disposition"), "poster-night-drive.png"))
}

func TestPreview(t *testing.T) {
	rec := do(t, newAPI(APIV1Deps{}), http.MethodGet, "/api/v1/preview.png", "")
	test.T(t, rec.Code, http.StatusServiceUnavailable)

	surface := render.NewSurface(nil, nil)
	defer surface.Close()
	rec = do(t, newAPI(APIV1Deps{Surface: surface}), http.MethodGet, "/api/v1/preview.png", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, rec.Header().Get("Content-Type"), "image/png")
	img, err := png.Decode(rec.Body)
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 1080, 1350))
}

func TestUploadImage(t *testing.T) {
	store := state.NewStore()
	images := render.NewImageLoader()
	h := newAPI(APIV1Deps{Store: store, Images: images})

	data := pngOf(t, 6, 3, color.RGBA{R: 0xFF, A: 0xFF})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images?apply=1", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	test.T(t, rec.Code, http.StatusCreated)

	resp := decode[imageResponse](t, rec)
	test.That(t, strings.HasPrefix(resp.Ref, "blob:"), "blob reference")
	test.T(t, resp.Format, "png")
	test.T(t, resp.Width, 6)
	test.T(t, resp.Height, 3)
	test.T(t, store.Snapshot().Config.BackgroundImage, resp.Ref)

	stored, err := images.Bytes(resp.Ref)
	test.Error(t, err)
	test.T(t, stored, data)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/images", strings.NewReader("not an image"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	test.T(t, rec.Code, http.StatusUnsupportedMediaType)
}

func TestAnalyze(t *testing.T) {
	store := state.NewStore()
	images := render.NewImageLoader()
	h := newAPI(APIV1Deps{Store: store, Images: images})

	rec := do(t, h, http.MethodPost, "/api/v1/analyze", "")
	test.T(t, rec.Code, http.StatusBadRequest)
	test.T(t, decode[apiError](t, rec).Error, "no_image")

	ref := images.PutBlob(pngOf(t, 10, 10, color.RGBA{A: 0xFF}))
	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `{"ref":"`+ref+`"}`)
	test.T(t, rec.Code, http.StatusOK)
	resp := decode[analyzeResponse](t, rec)
	test.T(t, resp.Analysis.Background, "#000000")
	test.T(t, resp.Analysis.Text, "#ffffff")
	test.T(t, resp.Applied, false)
	test.T(t, store.Snapshot().Config.TextColor, "#000000")

	rec = do(t, h, http.MethodPost, "/api/v1/analyze?apply=1", `{"ref":"`+ref+`"}`)
	test.T(t, rec.Code, http.StatusOK)
	cfg := store.Snapshot().Config
	test.T(t, cfg.TextColor, "#ffffff")
	test.T(t, cfg.BackgroundColor, "linear-gradient(to bottom, #000000, #000000)")

	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `{"ref":"blob:missing"}`)
	test.T(t, rec.Code, http.StatusNotFound)
}

type fakeImporter struct {
	dir string
	res importer.Result
}

func (f *fakeImporter) FromMP3Dir(dir string) (importer.Result, error) {
	f.dir = dir
	return f.res, nil
}

func TestImport(t *testing.T) {
	store := state.NewStore()
	imp := &fakeImporter{res: importer.Result{
		Metadata: poster.Metadata{Artist: "Solar", Album: "Night Drive", Year: "2019", Tracks: []poster.Track{{Title: "First"}}},
		Cover:    "data:image/png;base64,AAAA",
		Files:    1,
	}}
	h := newAPI(APIV1Deps{Store: store, Importer: imp})

	rec := do(t, h, http.MethodPost, "/api/v1/import", `{"dir":"/music/solar"}`)
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, imp.dir, "/music/solar")
	snap := store.Snapshot()
	test.T(t, snap.Metadata.Album, "Night Drive")
	test.T(t, snap.Metadata.Tracks, []poster.Track{{Title: "First"}})
	test.T(t, snap.Config.BackgroundImage, "data:image/png;base64,AAAA")

	rec = do(t, newAPI(APIV1Deps{}), http.MethodPost, "/api/v1/import", `{"dir":"/music"}`)
	test.T(t, rec.Code, http.StatusUnprocessableEntity)
}

func TestPosters(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodPost, "/api/v1/posters", `{"name":" "}`)
	test.T(t, rec.Code, http.StatusBadRequest)

	rec = do(t, h, http.MethodPost, "/api/v1/posters", `{"name":"First"}`)
	test.T(t, rec.Code, http.StatusCreated)
	first := decode[posterSummary](t, rec)
	test.T(t, first.Name, "First")

	rec = do(t, h, http.MethodGet, "/api/v1/posters", "")
	list := decode[[]posterSummary](t, rec)
	test.T(t, len(list), 1)
	test.T(t, list[0].Current, true)

	rec = do(t, h, http.MethodPost, "/api/v1/posters/new", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, store.Snapshot().CurrentPosterID, "")

	do(t, h, http.MethodPatch, "/api/v1/metadata", `{"album":"Second"}`)
	rec = do(t, h, http.MethodPut, "/api/v1/posters/current", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, decode[posterSummary](t, rec).Name, "Second")
	test.T(t, len(store.Snapshot().SavedPosters), 2)

	rec = do(t, h, http.MethodPost, "/api/v1/posters/"+first.ID+"/load", "")
	test.T(t, rec.Code, http.StatusOK)
	snap := store.Snapshot()
	test.T(t, snap.CurrentPosterID, first.ID)
	test.T(t, snap.Metadata.Album, "Album Title")

	rec = do(t, h, http.MethodDelete, "/api/v1/posters/nope", "")
	test.T(t, rec.Code, http.StatusNotFound)
	test.T(t, decode[apiError](t, rec).Error, "poster_not_found")

	rec = do(t, h, http.MethodDelete, "/api/v1/posters/"+first.ID, "")
	test.T(t, rec.Code, http.StatusOK)
	snap = store.Snapshot()
	test.T(t, len(snap.SavedPosters), 1)
	test.T(t, snap.CurrentPosterID, "")
}

func TestViewAndReset(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodPut, "/api/v1/view", `{"view":"gallery"}`)
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, store.Snapshot().View, state.Gallery)

	rec = do(t, h, http.MethodPut, "/api/v1/view", `{"view":"kiosk"}`)
	test.T(t, rec.Code, http.StatusBadRequest)
	test.T(t, decode[apiError](t, rec).Error, "invalid_view")

	store.SavePosterAs("kept")
	rec = do(t, h, http.MethodPost, "/api/v1/reset", "")
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, len(store.Snapshot().SavedPosters), 0)
}

func TestSelect(t *testing.T) {
	rec := do(t, newAPI(APIV1Deps{}), http.MethodPost, "/api/v1/select", `{"role":"artist"}`)
	test.T(t, rec.Code, http.StatusNotFound)

	surface := render.NewSurface(nil, nil)
	defer surface.Close()
	h := newAPI(APIV1Deps{Surface: surface})

	rec = do(t, h, http.MethodPost, "/api/v1/select", `{"role":"artist"}`)
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, string(surface.Selection()), "artist")

	rec = do(t, h, http.MethodPost, "/api/v1/select", `{"role":"swatch"}`)
	test.T(t, rec.Code, http.StatusNotFound)
	test.T(t, decode[apiError](t, rec).Error, "element_not_found")

	rec = do(t, h, http.MethodPost, "/api/v1/select", `{}`)
	test.T(t, rec.Code, http.StatusOK)
	test.T(t, string(surface.Selection()), "")
}

func TestPresets(t *testing.T) {
	store := state.NewStore()
	h := newAPI(APIV1Deps{Store: store})

	rec := do(t, h, http.MethodGet, "/api/v1/presets", "")
	test.T(t, rec.Code, http.StatusOK)
	resp := decode[presetsResponse](t, rec)
	test.T(t, len(resp.Dimensions), 3)
	test.T(t, len(resp.Gradients), 4)
	test.T(t, len(resp.Print), 8)
	test.T(t, len(resp.Templates), 4)

	rec = do(t, h, http.MethodPut, "/api/v1/presets/dimension", `{"name":"Story"}`)
	test.T(t, rec.Code, http.StatusOK)
	cfg := store.Snapshot().Config
	test.T(t, cfg.Width, 1080)
	test.T(t, cfg.Height, 1920)

	rec = do(t, h, http.MethodPut, "/api/v1/presets/dimension", `{"name":"Banner"}`)
	test.T(t, rec.Code, http.StatusBadRequest)

	rec = do(t, h, http.MethodPut, "/api/v1/presets/print", `{"preset":"a4","dpi":300}`)
	test.T(t, rec.Code, http.StatusOK)
	cfg = store.Snapshot().Config
	test.T(t, cfg.Width, 2480)
	test.T(t, cfg.Height, 3508)
	test.T(t, cfg.Print.Preset, "a4")
}

func TestStaticUI(t *testing.T) {
	rec := do(t, newAPI(APIV1Deps{}), http.MethodGet, "/", "")
	test.T(t, rec.Code, http.StatusOK)
	test.That(t, strings.Contains(rec.Body.String(), "<html"), "embedded index served")
}

func TestDevCORS(t *testing.T) {
	h := WithDevCORS(newAPI(APIV1Deps{}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/config", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	test.T(t, rec.Code, http.StatusNoContent)
	test.T(t, rec.Header().Get("Access-Control-Allow-Origin"), "http://localhost:5173")
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv(EnvListenAddr, "")
	t.Setenv(EnvDevMode, "")
	t.Setenv(EnvStaticDir, "")
	cfg, err := DefaultServerConfigFromEnv(":8080")
	test.Error(t, err)
	test.T(t, cfg, ServerConfig{ListenAddr: ":8080"})

	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvDevMode, "true")
	cfg, err = DefaultServerConfigFromEnv(":8080")
	test.Error(t, err)
	test.T(t, cfg, ServerConfig{ListenAddr: "127.0.0.1:9000", DevMode: true})

	t.Setenv(EnvDevMode, "sometimes")
	_, err = DefaultServerConfigFromEnv(":8080")
	test.That(t, err != nil, "bad boolean rejected")
}

func TestServerConfigFrom(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want ServerConfig
	}{
		{nil, ServerConfig{ListenAddr: ":80"}},
		{map[string]string{EnvListenAddr: "  "}, ServerConfig{ListenAddr: ":80"}},
		{map[string]string{EnvListenAddr: " :9090 ", EnvStaticDir: "/srv/ui"}, ServerConfig{ListenAddr: ":9090", StaticDir: "/srv/ui"}},
		{map[string]string{EnvDevMode: "1"}, ServerConfig{ListenAddr: ":80", DevMode: true}},
	}
	for _, tt := range tests {
		lookup := func(key string) (string, bool) { v, ok := tt.env[key]; return v, ok }
		cfg, err := serverConfigFrom(lookup, ":80")
		test.Error(t, err)
		test.T(t, cfg, tt.want)
	}
}

func TestHTTPServerLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := state.NewStore()
	srv := NewHTTPServer(ServerConfig{ListenAddr: "127.0.0.1:0"})
	srv.Handler = newAPI(APIV1Deps{Store: store})
	test.Error(t, srv.Start(ctx))

	resp, err := http.Get("http://" + srv.Addr + "/api/v1/state")
	test.Error(t, err)
	defer resp.Body.Close()
	test.T(t, resp.StatusCode, http.StatusOK)

	var snap state.State
	test.Error(t, json.NewDecoder(resp.Body).Decode(&snap))
	test.T(t, snap.View, state.Editor)

	test.Error(t, srv.Stop())
	test.That(t, srv.Start(ctx) != nil, "stopped server cannot restart")
}
