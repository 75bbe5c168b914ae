package nifi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/nifi"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestDevModeSkipsAuthWithoutCredentials(t *testing.T) {
	called := false
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/access/token" {
			called = true
			t.Fatal("token endpoint should not be called without credentials")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":        "proc-1",
			"revision":  map[string]any{"version": 0},
			"component": map[string]any{"name": "GenerateFlowFile"},
		})
	})

	c := nifi.New("srv1", srv.URL)
	_, err := c.GetProcessor(context.Background(), "proc-1")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestAuthenticatesWithCredentials(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/access/token":
			_, _ = w.Write([]byte("test-token"))
		case "/processors/proc-1":
			auth := r.Header.Get("Authorization")
			assert.Equal(t, "Bearer test-token", auth)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":        "proc-1",
				"revision":  map[string]any{"version": 1},
				"component": map[string]any{"name": "LogAttribute"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	c := nifi.New("srv1", srv.URL, nifi.WithCredentials("admin", "password12345678"))
	e, err := c.GetProcessor(context.Background(), "proc-1")
	require.NoError(t, err)
	assert.Equal(t, "proc-1", e.ID)
	assert.EqualValues(t, 1, e.Revision.Version)
}

func TestDevModeFallbackOnPlaintextHTTPConflict(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/access/token":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("Access tokens are only issued over HTTPS."))
		case "/processors/proc-1":
			assert.Empty(t, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":       "proc-1",
				"revision": map[string]any{"version": 0},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	c := nifi.New("srv1", srv.URL, nifi.WithCredentials("admin", "password12345678"))
	_, err := c.GetProcessor(context.Background(), "proc-1")
	require.NoError(t, err)
}

func TestNotFoundMapsToAppErr(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	})

	c := nifi.New("srv1", srv.URL)
	_, err := c.GetProcessor(context.Background(), "missing")
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestDeleteProcessorIgnoresAlreadyGone(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := nifi.New("srv1", srv.URL)
	err := c.DeleteProcessor(context.Background(), "gone", nifi.Revision{Version: 3})
	assert.NoError(t, err)
}

func TestConflictCarriesStaleVersionKind(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("NiFi Flow is out of date"))
	})

	c := nifi.New("srv1", srv.URL)
	_, err := c.UpdateProcessorProperties(context.Background(), "proc-1", nifi.Revision{Version: 0}, map[string]any{"name": "new"})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
}

func TestGetPortFallsBackFromInputToOutput(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/input-ports/port-1":
			w.WriteHeader(http.StatusNotFound)
		case "/output-ports/port-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":       "port-1",
				"revision": map[string]any{"version": 0},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	c := nifi.New("srv1", srv.URL)
	e, kind, err := c.GetPort(context.Background(), "port-1")
	require.NoError(t, err)
	assert.Equal(t, nifi.OutputPort, kind)
	assert.Equal(t, "port-1", e.ID)
}

func TestGetPortSurfacesNotFoundWhenNeitherKindExists(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := nifi.New("srv1", srv.URL)
	_, _, err := c.GetPort(context.Background(), "nonexistent")
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestBulletinBoardSanitizesRawNewlines(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flow/bulletin-board", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// Deliberately emit a raw, unescaped newline inside a JSON string
		// value, which encoding/json would otherwise reject outright.
		_, _ = w.Write([]byte("{\"bulletinBoard\":{\"bulletins\":[{\"id\":1,\"bulletin\":{\"message\":\"boom\nstack trace line\"}}]}}"))
	})

	c := nifi.New("srv1", srv.URL)
	bulletins, err := c.GetBulletins(context.Background(), "proc-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, bulletins, 1)
	assert.Contains(t, bulletins[0].Bulletin["message"], "boom")
}

func TestSearchFlowWalksNestedGroups(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flow/process-groups/root":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"processGroupFlow": map[string]any{
					"id": "root",
					"flow": map[string]any{
						"processors": []any{
							map[string]any{"id": "p1", "revision": map[string]any{"version": 0}, "component": map[string]any{"name": "FetchS3Object"}},
						},
						"processGroups": []any{
							map[string]any{"id": "child", "revision": map[string]any{"version": 0}, "component": map[string]any{"name": "Child Group"}},
						},
					},
				},
			})
		case "/flow/process-groups/child":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"processGroupFlow": map[string]any{
					"id": "child",
					"flow": map[string]any{
						"processors": []any{
							map[string]any{"id": "p2", "revision": map[string]any{"version": 0}, "component": map[string]any{"name": "PutS3Object"}},
						},
					},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	c := nifi.New("srv1", srv.URL)
	matches, err := c.SearchFlow(context.Background(), "root", "s3")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "p1", matches[0].Entity.ID)
	assert.Equal(t, []string{"root"}, matches[0].GroupPath)
	assert.Equal(t, "p2", matches[1].Entity.ID)
	assert.Equal(t, []string{"root", "child"}, matches[1].GroupPath)
}
