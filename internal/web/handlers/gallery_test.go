package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/gallery"
)

func TestGalleryHandler_List(t *testing.T) {
	handler := NewGalleryHandler(&fakeStore{gallery: twoPeople()}, nil, logr.Discard())
	recorder := httptest.NewRecorder()

	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/gallery", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp GalleryResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 || resp.Dim != 3 {
		t.Errorf("expected 2 identities of dim 3, got %+v", resp)
	}
	if !slices.Equal(resp.Names, []string{"alice", "bob"}) {
		t.Errorf("expected sorted names, got %v", resp.Names)
	}
}

func TestGalleryHandler_ListEmpty(t *testing.T) {
	handler := NewGalleryHandler(&fakeStore{gallery: gallery.Empty()}, nil, logr.Discard())
	recorder := httptest.NewRecorder()

	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/gallery", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	names, ok := resp["names"].([]any)
	if !ok || len(names) != 0 {
		t.Errorf("expected empty names array, got %v", resp["names"])
	}
}

func TestGalleryHandler_Reload(t *testing.T) {
	store := &fakeStore{
		gallery: gallery.Empty(),
		next:    twoPeople(),
	}
	handler := NewGalleryHandler(store, store, logr.Discard())
	recorder := httptest.NewRecorder()

	handler.Reload(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/gallery/reload?force=true", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp ReloadResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Identities != 2 {
		t.Errorf("expected 2 identities after reload, got %d", resp.Identities)
	}
	if !slices.Equal(store.forced, []bool{true}) {
		t.Errorf("expected one forced reload, got %v", store.forced)
	}
	if store.Snapshot().Len() != 2 {
		t.Error("expected snapshot swapped")
	}
}

func TestGalleryHandler_ReloadErrors(t *testing.T) {
	tests := []struct {
		name           string
		store          *fakeStore
		disabled       bool
		url            string
		expectedStatus int
	}{
		{"disabled", &fakeStore{gallery: gallery.Empty()}, true, "/api/v1/gallery/reload", http.StatusNotFound},
		{"bad force", &fakeStore{gallery: gallery.Empty()}, false, "/api/v1/gallery/reload?force=maybe", http.StatusBadRequest},
		{"canceled", &fakeStore{gallery: gallery.Empty(), reloadErr: context.Canceled}, false, "/api/v1/gallery/reload", http.StatusServiceUnavailable},
		{"failed", &fakeStore{gallery: gallery.Empty(), reloadErr: errors.New("boom")}, false, "/api/v1/gallery/reload", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var reloader Reloader = tc.store
			if tc.disabled {
				reloader = nil
			}
			handler := NewGalleryHandler(tc.store, reloader, logr.Discard())
			recorder := httptest.NewRecorder()

			handler.Reload(recorder, httptest.NewRequest(http.MethodPost, tc.url, nil))

			assertStatusCode(t, recorder, tc.expectedStatus)
		})
	}
}
