package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/extractor"
	"github.com/kozaktomas/face-search/internal/gallery"
	"github.com/kozaktomas/face-search/internal/matcher"
)

// fakeStore serves a fixed snapshot and records reloads.
type fakeStore struct {
	mu        sync.Mutex
	gallery   *gallery.Gallery
	next      *gallery.Gallery
	reloadErr error
	forced    []bool
}

func (s *fakeStore) Snapshot() *gallery.Gallery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gallery
}

func (s *fakeStore) Reload(_ context.Context, force bool) (*gallery.Gallery, *gallery.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = append(s.forced, force)
	if s.reloadErr != nil {
		return nil, nil, s.reloadErr
	}
	if s.next != nil {
		s.gallery = s.next
	}
	return s.gallery, &gallery.Report{Identities: s.gallery.Len()}, nil
}

// stubExtractor maps image content to embeddings.
func stubExtractor(embeddings map[string][]float32) extractor.Extractor {
	return extractor.Func(func(_ context.Context, image []byte) ([]float32, error) {
		switch string(image) {
		case "noface":
			return nil, extractor.ErrNoFaceDetected
		case "broken":
			return nil, extractor.ErrExtraction
		}
		if emb, ok := embeddings[string(image)]; ok {
			return emb, nil
		}
		return []float32{0, 0, 1}, nil
	})
}

func testMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	m, err := matcher.New(constants.DefaultMatchThreshold, logr.Discard())
	if err != nil {
		t.Fatalf("matcher.New failed: %v", err)
	}
	return m
}

// multipartRequest builds a POST with one file part.
func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
