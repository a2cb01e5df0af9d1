package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/state"
)

// maxBodyBytes bounds request bodies. Configurations may carry a background
// image as a data URL, so it is generous.
const maxBodyBytes = 32 << 20

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func apiV1Router(deps APIV1Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) { handleState(w, r, deps) })
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) { handleConfig(w, r, deps) })
	mux.HandleFunc("/metadata", func(w http.ResponseWriter, r *http.Request) { handleMetadata(w, r, deps) })
	mux.HandleFunc("/tracks", func(w http.ResponseWriter, r *http.Request) { handleTracks(w, r, deps) })
	mux.HandleFunc("/tracks/{index}", func(w http.ResponseWriter, r *http.Request) { handleTrack(w, r, deps) })

	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) { handleExport(w, r, deps) })
	mux.HandleFunc("/export/status", func(w http.ResponseWriter, r *http.Request) { handleExportStatus(w, r, deps) })
	mux.HandleFunc("/exports/latest", func(w http.ResponseWriter, r *http.Request) { handleLatestExport(w, r, deps) })
	mux.HandleFunc("/preview.png", func(w http.ResponseWriter, r *http.Request) { handlePreview(w, r, deps) })
	mux.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) { handleImages(w, r, deps) })
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) { handleAnalyze(w, r, deps) })
	mux.HandleFunc("/import", func(w http.ResponseWriter, r *http.Request) { handleImport(w, r, deps) })

	mux.HandleFunc("/posters", func(w http.ResponseWriter, r *http.Request) { handlePosters(w, r, deps) })
	mux.HandleFunc("/posters/current", func(w http.ResponseWriter, r *http.Request) { handleSavePoster(w, r, deps) })
	mux.HandleFunc("/posters/new", func(w http.ResponseWriter, r *http.Request) { handleNewPoster(w, r, deps) })
	mux.HandleFunc("/posters/{id}", func(w http.ResponseWriter, r *http.Request) { handleDeletePoster(w, r, deps) })
	mux.HandleFunc("/posters/{id}/load", func(w http.ResponseWriter, r *http.Request) { handleLoadPoster(w, r, deps) })

	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) { handleView(w, r, deps) })
	mux.HandleFunc("/select", func(w http.ResponseWriter, r *http.Request) { handleSelect(w, r, deps) })
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) { handleReset(w, r, deps) })
	mux.HandleFunc("/presets", func(w http.ResponseWriter, r *http.Request) { handlePresets(w, r, deps) })
	mux.HandleFunc("/presets/print", func(w http.ResponseWriter, r *http.Request) { handlePrintPreset(w, r, deps) })
	mux.HandleFunc("/presets/dimension", func(w http.ResponseWriter, r *http.Request) { handleDimensionPreset(w, r, deps) })
	return mux
}

func handleState(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot())
}

// handleConfig merges the JSON body into the live configuration. Fields that
// are absent keep their value; null clears an override.
func handleConfig(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, deps.Store.Snapshot().Config)
		return
	case http.MethodPatch:
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	candidate := deps.Store.Snapshot().Config
	if err := json.Unmarshal(body, &candidate); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	err := deps.Store.UpdateConfig(func(cfg *poster.Configuration) {
		_ = json.Unmarshal(body, cfg)
	})
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Config)
}

func handleMetadata(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, deps.Store.Snapshot().Metadata)
		return
	case http.MethodPatch:
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	candidate := deps.Store.Snapshot().Metadata
	if err := json.Unmarshal(body, &candidate); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	deps.Store.UpdateMetadata(func(meta *poster.Metadata) {
		_ = json.Unmarshal(body, meta)
	})
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Metadata)
}

func handleTracks(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		deps.Store.AddTrack()
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, deps.Store.Snapshot().Metadata.Tracks)
}

func handleTrack(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_index", "track index must be an integer")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		var candidate poster.Track
		if err := json.Unmarshal(body, &candidate); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		err = deps.Store.UpdateTrack(index, func(track *poster.Track) {
			_ = json.Unmarshal(body, track)
		})
	case http.MethodDelete:
		err = deps.Store.RemoveTrack(index)
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Metadata.Tracks)
}

type viewRequest struct {
	View state.View `json:"view"`
}

func handleView(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPut {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req viewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := deps.Store.SetView(req.View); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func handleReset(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	deps.Store.ResetData()
	deps.Logger.Infof("web", "poster data reset")
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// readBody reads a bounded request body. It writes the error response itself
// and reports false on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
			return nil, false
		}
		writeAPIError(w, http.StatusBadRequest, "read_failed", err.Error())
		return nil, false
	}
	return body, true
}

// decodeJSON decodes the body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func requireContentLength(r *http.Request) error {
	// Reject chunked/unknown length so uploads are bounded up front.
	if r.ContentLength <= 0 {
		return errLengthRequired
	}
	return nil
}

var errLengthRequired = &apiSimpleError{Message: "Content-Length header is required"}

type apiSimpleError struct{ Message string }

func (e *apiSimpleError) Error() string { return e.Message }

func setDownloadHeaders(w http.ResponseWriter, filename, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	cd := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	w.Header().Set("Content-Disposition", cd)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrPosterNotFound):
		writeAPIError(w, http.StatusNotFound, "poster_not_found", err.Error())
	case errors.Is(err, state.ErrTrackIndex):
		writeAPIError(w, http.StatusNotFound, "track_not_found", err.Error())
	case errors.Is(err, state.ErrInvalidView):
		writeAPIError(w, http.StatusBadRequest, "invalid_view", err.Error())
	case errors.Is(err, poster.ErrInvalidFormat),
		errors.Is(err, poster.ErrInvalidSize),
		errors.Is(err, poster.ErrInvalidTemplate),
		errors.Is(err, poster.ErrInvalidAlignment):
		writeAPIError(w, http.StatusBadRequest, "invalid_config", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
