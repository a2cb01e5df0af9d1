package web

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/rook-computer/postermaker/internal/colors"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/rook-computer/postermaker/internal/state"
)

type exportResponse struct {
	Trigger uint64 `json:"trigger"`
}

// handleExport bumps the export trigger. The export runner picks the change up
// from the store; the response does not wait for the artifact.
func handleExport(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var opts state.ExportOptions
	if !decodeJSON(w, r, &opts) {
		return
	}
	trigger, err := deps.Store.TriggerExport(opts)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	deps.Logger.Infof("web", "export requested, trigger=%d", trigger)
	writeJSON(w, http.StatusAccepted, exportResponse{Trigger: trigger})
}

func handleExportStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Export)
}

func handleLatestExport(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	art, ok := deps.Artifacts.Latest()
	if !ok {
		writeAPIError(w, http.StatusNotFound, "no_export", "nothing has been exported yet")
		return
	}
	setDownloadHeaders(w, art.Name, art.MIME)
	http.ServeContent(w, r, art.Name, art.CreatedAt, bytes.NewReader(art.Data))
}

func handlePreview(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := deps.Surface.Render(); err != nil {
		writeAPIError(w, http.StatusServiceUnavailable, "render_failed", err.Error())
		return
	}
	img := deps.Surface.Preview()
	if img == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "render_failed", "no preview available")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type imageResponse struct {
	Ref    string `json:"ref"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// handleImages stores an uploaded image and returns its reference. With
// ?apply=1 the image also becomes the poster background.
func handleImages(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := requireContentLength(r); err != nil {
		writeAPIError(w, http.StatusLengthRequired, "length_required", err.Error())
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeAPIError(w, http.StatusUnsupportedMediaType, "unsupported_image", err.Error())
		return
	}

	ref := deps.Images.PutBlob(data)
	if applyRequested(r) {
		err := deps.Store.UpdateConfig(func(c *poster.Configuration) { c.BackgroundImage = ref })
		if err != nil {
			writeStoreError(w, err)
			return
		}
	}
	deps.Logger.Infof("web", "image uploaded, %s %dx%d", format, cfg.Width, cfg.Height)
	writeJSON(w, http.StatusCreated, imageResponse{Ref: ref, Format: format, Width: cfg.Width, Height: cfg.Height})
}

type analyzeRequest struct {
	Ref string `json:"ref"`
}

type analyzeResponse struct {
	Analysis colors.Analysis `json:"analysis"`
	Applied  bool            `json:"applied"`
}

// handleAnalyze extracts artwork colors from ref, or from the current
// background image. With ?apply=1 the result themes the poster.
func handleAnalyze(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref := req.Ref
	if ref == "" {
		ref = deps.Store.Snapshot().Config.BackgroundImage
	}
	if ref == "" {
		writeAPIError(w, http.StatusBadRequest, "no_image", "no image to analyze")
		return
	}
	data, err := deps.Images.Bytes(ref)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "image_not_found", err.Error())
		return
	}

	analysis := colors.Extract(r.Context(), bytes.NewReader(data))
	resp := analyzeResponse{Analysis: analysis}
	if applyRequested(r) {
		if err := deps.Store.ApplyColorAnalysis(analysis); err != nil {
			writeStoreError(w, err)
			return
		}
		resp.Applied = true
	}
	writeJSON(w, http.StatusOK, resp)
}

type importRequest struct {
	Dir string `json:"dir"`
}

// handleImport replaces the metadata with tags read from a directory of MP3
// files. An embedded cover becomes the background image.
func handleImport(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Dir) == "" {
		writeAPIError(w, http.StatusBadRequest, "invalid_dir", "dir is required")
		return
	}
	res, err := deps.Importer.FromMP3Dir(req.Dir)
	if err != nil {
		writeAPIError(w, http.StatusUnprocessableEntity, "import_failed", err.Error())
		return
	}

	deps.Store.UpdateMetadata(func(meta *poster.Metadata) { *meta = res.Metadata.Clone() })
	if res.Cover != "" {
		if err := deps.Store.UpdateConfig(func(c *poster.Configuration) { c.BackgroundImage = res.Cover }); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	deps.Logger.Infof("web", "imported %d files from %s", res.Files, req.Dir)
	writeJSON(w, http.StatusOK, res)
}

type selectRequest struct {
	Role layout.Role `json:"role"`
}

// handleSelect marks a scene element as active. An empty role clears the
// selection.
func handleSelect(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		deps.Surface.ClearSelection()
		writeJSON(w, http.StatusOK, req)
		return
	}
	if !deps.Surface.Select(req.Role) {
		writeAPIError(w, http.StatusNotFound, "element_not_found", "no element with role "+string(req.Role))
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func applyRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("apply"))
	return err == nil && v
}
