package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-search/internal/gallery"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         any
		expectedBody string
	}{
		{"object", http.StatusOK, map[string]int{"count": 2}, "{\"count\":2}\n"},
		{"created", http.StatusCreated, []string{"a"}, "[\"a\"]\n"},
		{"nil body", http.StatusNoContent, nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.status, tc.data)

			assertStatusCode(t, recorder, tc.status)
			assertContentType(t, recorder, "application/json")
			if recorder.Header().Get("Cache-Control") != "no-store" {
				t.Errorf("expected Cache-Control no-store, got %q", recorder.Header().Get("Cache-Control"))
			}
			if recorder.Body.String() != tc.expectedBody {
				t.Errorf("expected body %q, got %q", tc.expectedBody, recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		store      *fakeStore
		identities int
	}{
		{"loaded", &fakeStore{gallery: gallery.New([]gallery.Entry{{Name: "alice", Embedding: []float32{1, 0}}})}, 1},
		{"empty", &fakeStore{gallery: gallery.Empty()}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			Health(tc.store)(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

			assertStatusCode(t, recorder, http.StatusOK)
			var body HealthResponse
			parseJSONResponse(t, recorder, &body)
			if body.Status != "ok" || body.Identities != tc.identities {
				t.Errorf("unexpected health body %+v", body)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("evil\r\nname.jpg"); got != "evilname.jpg" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}
