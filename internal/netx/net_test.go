package netx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value string `json:"value"`
}

func TestPostJSON(t *testing.T) {
	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod, gotCT string
		var got payload
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"value":"pong"}`))
		}))
		defer ts.Close()

		var out payload
		err := PostJSON(context.Background(), ts.Client(), ts.URL, payload{Value: "ping"}, &out, 1<<10)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, "ping", got.Value)
		assert.Equal(t, "pong", out.Value)
	})

	t.Run("non-200 includes status and body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad image", http.StatusUnprocessableEntity)
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), ts.Client(), ts.URL, payload{}, &payload{}, 1<<10)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
		assert.Equal(t, "bad image", se.Body)
	})

	t.Run("response over limit fails to decode", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"value":"` + strings.Repeat("x", 100) + `"}`))
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), ts.Client(), ts.URL, payload{}, &payload{}, 16)
		require.Error(t, err)
	})

	t.Run("bad url", func(t *testing.T) {
		err := PostJSON(context.Background(), http.DefaultClient, "://bad-url", payload{}, &payload{}, 16)
		require.Error(t, err)
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		err := PostJSON(context.Background(), http.DefaultClient, url, payload{}, &payload{}, 16)
		require.Error(t, err)
	})
}

func TestProbe(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNotFound} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		got, err := Probe(context.Background(), ts.Client(), ts.URL)
		ts.Close()
		require.NoError(t, err)
		assert.Equal(t, code, got)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	_, err := Probe(context.Background(), ts.Client(), ts.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}
