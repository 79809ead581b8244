package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/gallery"
)

// GalleryResponse describes the current gallery snapshot.
type GalleryResponse struct {
	Count int      `json:"count"`
	Dim   int      `json:"dim"`
	Names []string `json:"names"`
}

// ReloadResponse summarizes a reload.
type ReloadResponse struct {
	Identities int             `json:"identities"`
	Report     *gallery.Report `json:"report"`
}

// GalleryHandler serves gallery inspection and reload endpoints.
type GalleryHandler struct {
	store    Snapshotter
	reloader Reloader
	log      logr.Logger
}

// NewGalleryHandler creates a new gallery handler. reloader may be nil when reloads are disabled.
func NewGalleryHandler(store Snapshotter, reloader Reloader, logger logr.Logger) *GalleryHandler {
	return &GalleryHandler{store: store, reloader: reloader, log: logger}
}

// List returns the identity names in the current snapshot.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	g := h.store.Snapshot()
	names := g.Names()
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, GalleryResponse{
		Count: g.Len(),
		Dim:   g.Dim(),
		Names: names,
	})
}

// Reload rebuilds the gallery. With ?force=true the persisted copy is discarded first.
func (h *GalleryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		respondError(w, http.StatusNotFound, "gallery reload is disabled")
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid force parameter")
			return
		}
		force = parsed
	}

	g, report, err := h.reloader.Reload(r.Context(), force)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.log.Error(err, "gallery reload failed")
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ReloadResponse{Identities: g.Len(), Report: report})
}
