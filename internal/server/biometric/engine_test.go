package biometric

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_Detect(t *testing.T) {
	var gotImage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/faces" {
			http.NotFound(w, r)
			return
		}
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		gotImage = req.Image
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces":[{"embedding":[0.5,-0.5],"confidence":0.97}]}`))
	}))
	defer srv.Close()

	eng := NewHTTPEngine(srv.URL+"/", time.Second)
	faces, err := eng.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, []float64{0.5, -0.5}, faces[0].Embedding)
	assert.Equal(t, 0.97, faces[0].Confidence)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), gotImage)
}

func TestHTTPEngine_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"faces":`))
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{"faces":[]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			eng := NewHTTPEngine(srv.URL, 100*time.Millisecond)
			_, err := eng.Detect(context.Background(), []byte("img"))
			require.Error(t, err)
		})
	}
}

func TestHTTPEngine_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	eng := NewHTTPEngine(url, time.Second)
	_, err := eng.Detect(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Error(t, eng.Ping(context.Background()))
}

func TestHTTPEngine_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPEngine(srv.URL, time.Second).Ping(context.Background()))
}
