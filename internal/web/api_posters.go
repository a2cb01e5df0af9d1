package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/rook-computer/postermaker/internal/geometry"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render"
)

type posterSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastModified time.Time `json:"lastModified"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Current      bool      `json:"current"`
}

func summarize(saved poster.SavedPoster, currentID string) posterSummary {
	return posterSummary{
		ID:           saved.ID,
		Name:         saved.Name,
		LastModified: saved.LastModified,
		Artist:       saved.Metadata.Artist,
		Album:        saved.Metadata.Album,
		Current:      saved.ID == currentID,
	}
}

type saveRequest struct {
	Name string `json:"name"`
}

func handlePosters(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	switch r.Method {
	case http.MethodGet:
		snap := deps.Store.Snapshot()
		out := make([]posterSummary, 0, len(snap.SavedPosters))
		for _, saved := range snap.SavedPosters {
			out = append(out, summarize(saved, snap.CurrentPosterID))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req saveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			writeAPIError(w, http.StatusBadRequest, "invalid_name", "name is required")
			return
		}
		saved := deps.Store.SavePosterAs(name)
		deps.Logger.Infof("web", "saved poster %s as %q", saved.ID, saved.Name)
		writeJSON(w, http.StatusCreated, summarize(saved, saved.ID))
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleSavePoster(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPut {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	saved := deps.Store.SavePoster()
	writeJSON(w, http.StatusOK, summarize(saved, saved.ID))
}

func handleNewPoster(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	deps.Store.CreateNewPoster()
	writeJSON(w, http.StatusOK, deps.Store.Snapshot())
}

func handleLoadPoster(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := deps.Store.LoadPoster(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot())
}

func handleDeletePoster(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodDelete {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := deps.Store.DeletePoster(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type printPresetOption struct {
	Key string `json:"key"`
	geometry.PaperPreset
}

type presetsResponse struct {
	Dimensions []poster.DimensionPreset `json:"dimensions"`
	Gradients  []string                 `json:"gradients"`
	Print      []printPresetOption      `json:"print"`
	Templates  []poster.Template        `json:"templates"`
	Fonts      []string                 `json:"fonts"`
}

func handlePresets(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	resp := presetsResponse{
		Dimensions: poster.DimensionPresets,
		Gradients:  poster.GradientPresets,
		Templates:  poster.Templates,
		Fonts:      render.SystemFonts,
	}
	for _, key := range geometry.PresetKeys() {
		resp.Print = append(resp.Print, printPresetOption{Key: key, PaperPreset: geometry.PrintPresets[key]})
	}
	writeJSON(w, http.StatusOK, resp)
}

type printPresetRequest struct {
	Preset string  `json:"preset"`
	DPI    float64 `json:"dpi"`
}

func handlePrintPreset(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPut {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req printPresetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Preset == "" {
		req.Preset = geometry.CustomPreset
	}
	if err := deps.Store.ApplyPrintPreset(req.Preset, req.DPI); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Config)
}

type dimensionPresetRequest struct {
	Name string `json:"name"`
}

func handleDimensionPreset(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPut {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req dimensionPresetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := poster.LookupDimensionPreset(req.Name); !ok {
		writeAPIError(w, http.StatusBadRequest, "unknown_preset", "unknown dimension preset "+req.Name)
		return
	}
	if err := deps.Store.ApplyDimensionPreset(req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps.Store.Snapshot().Config)
}
