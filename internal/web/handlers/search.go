package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/extractor"
	"github.com/kozaktomas/face-search/internal/matcher"
)

const (
	errNoImage          = "No image provided"
	errNoGalleryEntries = "No face embeddings available in database"
	errImageTooLarge    = "image too large"
	errNoFace           = "no face detected in image"
)

// uploadOverhead is the room left for multipart boundaries and part headers on
// top of the image size limit.
const uploadOverhead = 1 << 20

// ProbeIDHeader carries the per-request probe id used in log lines.
const ProbeIDHeader = "X-Probe-ID"

// SearchResponse is the body of a successful /search call.
type SearchResponse struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Error    string  `json:"error,omitempty"`
}

// SearchHandler identifies the face in an uploaded image against the current gallery.
type SearchHandler struct {
	store     Snapshotter
	extractor extractor.Extractor
	matcher   *matcher.Matcher
	log       logr.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(store Snapshotter, ext extractor.Extractor, m *matcher.Matcher, logger logr.Logger) *SearchHandler {
	return &SearchHandler{
		store:     store,
		extractor: ext,
		matcher:   m,
		log:       logger,
	}
}

// Search handles POST /search with a multipart "image" field.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	probeID := uuid.NewString()
	w.Header().Set(ProbeIDHeader, probeID)
	log := h.log.WithValues("probe", probeID)

	bodyLimit := int64(constants.MaxUploadSize + uploadOverhead)
	if r.ContentLength > bodyLimit {
		respondError(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
			return
		}
		respondError(w, http.StatusBadRequest, errNoImage)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, errNoImage)
		return
	}
	if header.Size > constants.MaxUploadSize {
		file.Close()
		respondError(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		respondError(w, http.StatusBadRequest, errNoImage)
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, errNoImage)
		return
	}

	log.V(1).Info("received probe", "filename", sanitizeForLog(header.Filename), "bytes", len(data))

	embedding, err := h.extractor.Extract(r.Context(), data)
	switch {
	case errors.Is(err, extractor.ErrNoFaceDetected):
		log.Info("no face detected in probe")
		respondError(w, http.StatusUnprocessableEntity, errNoFace)
		return
	case err != nil && r.Context().Err() != nil:
		// The timeout middleware (or the departed client) owns the response.
		log.Info("probe extraction abandoned", "reason", context.Cause(r.Context()).Error())
		return
	case err != nil:
		log.Error(err, "probe extraction failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.matcher.Match(embedding, h.store.Snapshot())
	if err != nil {
		log.Error(err, "probe rejected by matcher")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.Status == matcher.StatusEmptyGallery {
		respondJSON(w, http.StatusOK, SearchResponse{
			Name:     result.Name,
			Distance: result.Distance,
			Error:    errNoGalleryEntries,
		})
		return
	}

	log.Info("probe matched", "name", result.Name, "distance", result.Distance)
	respondJSON(w, http.StatusOK, SearchResponse{Name: result.Name, Distance: result.Distance})
}
