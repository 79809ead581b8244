package handlers

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/kozaktomas/face-search/internal/config"
)

func TestConfigHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		bucket         string
		adminReload    bool
		expectedSource string
	}{
		{"directory source", "", false, "directory"},
		{"bucket source", "faces", true, "bucket"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Match.Threshold = 0.35
			cfg.Gallery.Extensions = []string{".jpg", ".png"}
			cfg.Bucket.Bucket = tc.bucket
			cfg.Web.AdminReload = tc.adminReload

			recorder := httptest.NewRecorder()
			NewConfigHandler(cfg).Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))

			assertStatusCode(t, recorder, http.StatusOK)
			assertContentType(t, recorder, "application/json")

			var resp ConfigResponse
			parseJSONResponse(t, recorder, &resp)
			if resp.Threshold != 0.35 || resp.UnknownName != "Unknown" {
				t.Errorf("unexpected matching settings %+v", resp)
			}
			if resp.Source != tc.expectedSource || resp.ReloadEnabled != tc.adminReload {
				t.Errorf("unexpected source settings %+v", resp)
			}
			if !slices.Equal(resp.Extensions, []string{".jpg", ".png"}) {
				t.Errorf("unexpected extensions %v", resp.Extensions)
			}
		})
	}
}
