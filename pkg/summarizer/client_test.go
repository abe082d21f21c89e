package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var v Vehicle
		require.NoError(t, json.NewDecoder(r.Body).Decode(&v))
		assert.Equal(t, "X1", v.ChassisNumber)
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": " A tidy sedan. "})
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, "key", time.Second).Summarize(context.Background(), Vehicle{ChassisNumber: "X1"})
	require.NoError(t, err)
	assert.Equal(t, "A tidy sedan.", text)
}

func TestClientSummarizeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Summarize(context.Background(), Vehicle{})
	require.Error(t, err)

	_, err = NewClient(srv.URL+"/empty", "", time.Second).Summarize(context.Background(), Vehicle{})
	require.Error(t, err)
}

func TestClientSummarizeHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, "", time.Second).Summarize(ctx, Vehicle{})
	require.Error(t, err)
}
