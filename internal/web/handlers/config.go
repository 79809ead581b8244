package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-search/internal/config"
	"github.com/kozaktomas/face-search/internal/constants"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse exposes the matching settings a client needs to interpret results.
// Store and extractor addresses are not exposed.
type ConfigResponse struct {
	Threshold      float64  `json:"threshold"`
	UnknownName    string   `json:"unknown_name"`
	Extensions     []string `json:"extensions"`
	Source         string   `json:"source"` // "directory" or "bucket"
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	ReloadEnabled  bool     `json:"reload_enabled"`
}

// Get returns the public configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	source := "directory"
	if h.config.Bucket.Enabled() {
		source = "bucket"
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Threshold:      h.config.Match.Threshold,
		UnknownName:    constants.UnknownName,
		Extensions:     h.config.Gallery.Extensions,
		Source:         source,
		MaxUploadBytes: constants.MaxUploadSize,
		ReloadEnabled:  h.config.Web.AdminReload,
	})
}
