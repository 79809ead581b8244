package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-search/internal/gallery"
)

// Snapshotter exposes the current immutable gallery.
type Snapshotter interface {
	Snapshot() *gallery.Gallery
}

// Reloader rebuilds the gallery and swaps the snapshot.
type Reloader interface {
	Reload(ctx context.Context, force bool) (*gallery.Gallery, *gallery.Report, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness plus the size of the loaded gallery.
type HealthResponse struct {
	Status     string `json:"status"`
	Identities int    `json:"identities"`
}

// respondJSON writes data as JSON. Responses are never cached: they depend on
// the uploaded probe or on the current gallery snapshot.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// Health returns the liveness handler. The server only starts listening after
// the gallery is loaded, so an empty gallery is reported but still healthy.
func Health(store Snapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Identities: store.Snapshot().Len(),
		})
	}
}
