package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVendorStub(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient("app-1", "token-1", "secret-1", srv.URL)
	return srv, c
}

func TestSubmitReturnsTaskID(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/submit", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.Equal(t, "app-1", r.Header.Get("X-App-Id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example.com/ep.mp3", body["audio_url"])

		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": "task-42"})
	})
	defer srv.Close()

	taskID, err := c.Submit(context.Background(), "https://cdn.example.com/ep.mp3")
	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)
}

func TestSubmitFallsBackToIDField(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "task-43"})
	})
	defer srv.Close()

	taskID, err := c.Submit(context.Background(), "url")
	require.NoError(t, err)
	assert.Equal(t, "task-43", taskID)
}

func TestSubmitNoTaskID(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	defer srv.Close()

	_, err := c.Submit(context.Background(), "url")
	require.Error(t, err)
}

func TestSubmitVendorRejection(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer srv.Close()

	_, err := c.Submit(context.Background(), "url")
	require.Error(t, err)
}

func TestQuerySuccessJoinsUtterances(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state": "SUCCESS",
			"utterances": []map[string]any{
				{"text": "first line"},
				{"text": "second line"},
			},
		})
	})
	defer srv.Close()

	res := c.Query(context.Background(), "task-42")
	assert.Equal(t, StateSuccess, res.State)
	assert.Equal(t, "first line\nsecond line", res.Text)
}

func TestQueryFailed(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "FAILED"})
	})
	defer srv.Close()

	res := c.Query(context.Background(), "task-42")
	assert.Equal(t, StateFailed, res.State)
}

func TestQueryPendingIsRunning(t *testing.T) {
	srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "PENDING"})
	})
	defer srv.Close()

	res := c.Query(context.Background(), "task-42")
	assert.Equal(t, StateRunning, res.State)
}

// Transient trouble on the poll path must read as still-running, never as a
// terminal failure.
func TestQueryTransientErrorsMapToRunning(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		defer srv.Close()
		assert.Equal(t, StateRunning, c.Query(context.Background(), "t").State)
	})

	t.Run("garbage body", func(t *testing.T) {
		srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		defer srv.Close()
		assert.Equal(t, StateRunning, c.Query(context.Background(), "t").State)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv, c := newVendorStub(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()
		assert.Equal(t, StateRunning, c.Query(context.Background(), "t").State)
	})
}
