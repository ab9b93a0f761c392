package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeClientSubmit(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		accepted bool
	}{
		{name: "result success", status: http.StatusOK, body: `{"result":"success"}`, accepted: true},
		{name: "status success on error code", status: http.StatusBadGateway, body: `{"status":"success"}`, accepted: true},
		{name: "ok transport with other result", status: http.StatusOK, body: `{"result":"error"}`, accepted: true},
		{name: "failure body and error code", status: http.StatusInternalServerError, body: `{"result":"failure"}`, accepted: false},
		{name: "unparseable body", status: http.StatusOK, body: `not json`, accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewIntakeClient(srv.Client()).Submit(context.Background(), srv.URL, models.SubmissionPayload{})
			if tt.accepted {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIntakeClientSendsPayloadAsJSON(t *testing.T) {
	var got map[string]any
	var method, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"result":"success"}`)
	}))
	defer srv.Close()

	payload := models.NewSubmissionPayload(
		models.ApplicationRecord{FirstName: "Ada", Subjects: []string{"Music", "History"}, Consent: true},
		models.ApplicationFiles{PassportCopy: &models.AttachedFile{Name: "p.png", Type: "image/png", Size: 1, Base64: "AA=="}},
	)

	resp, err := NewIntakeClient(srv.Client()).Submit(context.Background(), srv.URL, payload)
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Result)
	assert.Equal(t, http.StatusOK, resp.HTTPStatus)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "Music, History", got["subjects"])
	files := got["files"].(map[string]any)
	assert.Nil(t, files["cv"])
	assert.Equal(t, "p.png", files["passportCopy"].(map[string]any)["name"])
}

func TestIntakeClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewIntakeClient(nil).Submit(context.Background(), url, models.SubmissionPayload{})
	assert.Error(t, err)
}
