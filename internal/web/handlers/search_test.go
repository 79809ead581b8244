package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/extractor"
	"github.com/kozaktomas/face-search/internal/gallery"
)

func newSearchHandler(t *testing.T, g *gallery.Gallery) *SearchHandler {
	t.Helper()
	ext := stubExtractor(map[string][]float32{
		"alice-probe": {1, 0, 0},
		"mismatch":    {1, 0},
		"zero":        {0, 0, 0},
	})
	return NewSearchHandler(&fakeStore{gallery: g}, ext, testMatcher(t), logr.Discard())
}

func twoPeople() *gallery.Gallery {
	return gallery.New([]gallery.Entry{
		{Name: "alice", Embedding: []float32{1, 0.05, 0}},
		{Name: "bob", Embedding: []float32{0, 1, 0}},
	})
}

func TestSearchHandler_Match(t *testing.T) {
	handler := newSearchHandler(t, twoPeople())
	recorder := httptest.NewRecorder()

	handler.Search(recorder, multipartRequest(t, "/search", "image", "probe.jpg", []byte("alice-probe")))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp SearchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Name != "alice" {
		t.Errorf("expected alice, got %s", resp.Name)
	}
	if resp.Distance < 0 || resp.Distance > 0.01 {
		t.Errorf("expected small distance, got %v", resp.Distance)
	}
	if resp.Error != "" {
		t.Errorf("expected no error, got %s", resp.Error)
	}
	if _, err := uuid.Parse(recorder.Header().Get(ProbeIDHeader)); err != nil {
		t.Errorf("expected uuid probe id header, got %q", recorder.Header().Get(ProbeIDHeader))
	}
}

func TestSearchHandler_Unknown(t *testing.T) {
	handler := newSearchHandler(t, twoPeople())
	recorder := httptest.NewRecorder()

	// default extractor output (0,0,1) is orthogonal to both identities
	handler.Search(recorder, multipartRequest(t, "/search", "image", "probe.jpg", []byte("stranger")))

	assertStatusCode(t, recorder, http.StatusOK)
	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"name":"Unknown","distance":-1}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestSearchHandler_EmptyGallery(t *testing.T) {
	handler := newSearchHandler(t, gallery.Empty())
	recorder := httptest.NewRecorder()

	handler.Search(recorder, multipartRequest(t, "/search", "image", "probe.jpg", []byte("alice-probe")))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp SearchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Name != "Unknown" || resp.Distance != -1 {
		t.Errorf("expected Unknown/-1, got %+v", resp)
	}
	if resp.Error != "No face embeddings available in database" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
}

func TestSearchHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		request        func(t *testing.T) *http.Request
		expectedStatus int
		expectedError  string
	}{
		{
			name: "wrong field name",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "file", "probe.jpg", []byte("alice-probe"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No image provided",
		},
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"image":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No image provided",
		},
		{
			name: "empty file",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "image", "probe.jpg", nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No image provided",
		},
		{
			name: "no face",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "image", "probe.jpg", []byte("noface"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "no face detected in image",
		},
		{
			name: "extraction failure",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "image", "probe.jpg", []byte("broken"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "embedding extraction failed",
		},
		{
			name: "dimension mismatch",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "image", "probe.jpg", []byte("mismatch"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "invalid probe embedding: dimension mismatch: probe has 2 dimensions, gallery has 3",
		},
		{
			name: "zero vector",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/search", "image", "probe.jpg", []byte("zero"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "invalid probe embedding: zero vector",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newSearchHandler(t, twoPeople())
			recorder := httptest.NewRecorder()

			handler.Search(recorder, tc.request(t))

			assertStatusCode(t, recorder, tc.expectedStatus)
			assertJSONError(t, recorder, tc.expectedError)
		})
	}
}

func TestSearchHandler_UploadLimits(t *testing.T) {
	tests := []struct {
		name           string
		imageSize      int
		unknownLength  bool
		expectedStatus int
	}{
		{"image at limit", constants.MaxUploadSize, false, http.StatusOK},
		{"image over limit", constants.MaxUploadSize + 1, false, http.StatusRequestEntityTooLarge},
		{"body over limit", constants.MaxUploadSize + uploadOverhead + 1, false, http.StatusRequestEntityTooLarge},
		{"chunked body over limit", constants.MaxUploadSize + uploadOverhead + 1, true, http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newSearchHandler(t, twoPeople())
			recorder := httptest.NewRecorder()
			req := multipartRequest(t, "/search", "image", "probe.jpg", bytes.Repeat([]byte{0xff}, tc.imageSize))
			if tc.unknownLength {
				req.ContentLength = -1
			}

			handler.Search(recorder, req)

			assertStatusCode(t, recorder, tc.expectedStatus)
			if tc.expectedStatus == http.StatusRequestEntityTooLarge {
				assertJSONError(t, recorder, "image too large")
			}
		})
	}
}

func TestSearchHandler_CanceledRequestWritesNothing(t *testing.T) {
	ext := extractor.Func(func(ctx context.Context, _ []byte) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	handler := NewSearchHandler(&fakeStore{gallery: twoPeople()}, ext, testMatcher(t), logr.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	req := multipartRequest(t, "/search", "image", "probe.jpg", []byte("alice-probe")).WithContext(ctx)
	recorder := httptest.NewRecorder()

	handler.Search(recorder, req)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected no body once the request is done, got %s", recorder.Body.String())
	}
}
