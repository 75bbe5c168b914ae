package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/config"
	"github.com/stackoverflowed/nifimcp/internal/httpapi"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflows"
)

type fakeClient struct{ id string }

func (f fakeClient) ServerID() string { return f.id }

func testDeps(t *testing.T, handlers map[string]toolregistry.Handler) httpapi.Deps {
	t.Helper()
	reg := toolregistry.New()
	for name, h := range handlers {
		reg.Register(toolregistry.Descriptor{
			Name:        name,
			Description: "test tool " + name,
			Schema:      map[string]any{"type": "object"},
			Phases:      []string{"Review"},
			Handler:     h,
		})
	}
	return httpapi.Deps{
		Servers: []config.NiFiServer{{ID: "prod", DisplayName: "Prod NiFi", URL: "https://nifi.example.com"}},
		Clients: map[string]reqctx.NiFiClient{"prod": fakeClient{id: "prod"}},
		Tools:   reg,
		Workflows: workflows.NewCatalog(reg),
		ActionCeiling: 10,
	}
}

func TestListNiFiServersOmitsCredentials(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))
	req := httptest.NewRequest(http.MethodGet, "/config/nifi-servers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "prod", body[0]["id"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestListToolsFiltersByPhase(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, map[string]toolregistry.Handler{
		"list_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) { return nil, nil },
	}))

	req := httptest.NewRequest(http.MethodGet, "/tools?phase=Review", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "list_nifi_objects", body[0]["name"])

	req2 := httptest.NewRequest(http.MethodGet, "/tools?phase=Build", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	var empty []map[string]any
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &empty))
	assert.Empty(t, empty)
}

func TestCallToolUnknownNameReturns404(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))
	req := httptest.NewRequest(http.MethodPost, "/tools/does_not_exist", strings.NewReader(`{"arguments":{}}`))
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallToolMissingServerHeaderReturns400(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, map[string]toolregistry.Handler{
		"list_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) { return nil, nil },
	}))
	req := httptest.NewRequest(http.MethodPost, "/tools/list_nifi_objects", strings.NewReader(`{"arguments":{}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallToolUnknownServerIDReturns400(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, map[string]toolregistry.Handler{
		"list_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) { return nil, nil },
	}))
	req := httptest.NewRequest(http.MethodPost, "/tools/list_nifi_objects", strings.NewReader(`{"arguments":{}}`))
	req.Header.Set("X-Nifi-Server-Id", "does-not-exist")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallToolSuccessRoundTripsResult(t *testing.T) {
	var sawServerID string
	router := httpapi.NewRouter(testDeps(t, map[string]toolregistry.Handler{
		"list_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) {
			rc, _ := reqctx.FromContext(ctx)
			sawServerID = rc.Client.ServerID()
			return map[string]any{"items": []string{"a", "b"}}, nil
		},
	}))

	req := httptest.NewRequest(http.MethodPost, "/tools/list_nifi_objects", strings.NewReader(`{"arguments":{"object_type":"processor"}}`))
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prod", sawServerID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, result["items"])
}

func TestStreamToolEmitsStartAndCompleteEvents(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, map[string]toolregistry.Handler{
		"list_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"ok": true}, nil
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/sse/tools/list_nifi_objects", nil)
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: start")
	assert.Contains(t, body, "event: complete")
}

func TestListAndGetWorkflow(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	req2 := httptest.NewRequest(http.MethodGet, "/workflows/build_and_start_simple_flow", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)

	req3 := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req3)
	assert.Equal(t, http.StatusNotFound, rec3.Code)
}

func TestValidateWorkflow(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))
	req := httptest.NewRequest(http.MethodGet, "/workflows/validate/investigate_stalled_connection", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["valid"])
}

func TestExecuteWorkflowUnknownNameReturns404(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))
	req := httptest.NewRequest(http.MethodPost, "/workflows/execute", strings.NewReader(`{"workflow_name":"missing","input":{}}`))
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteWorkflowMissingNameReturns400(t *testing.T) {
	router := httpapi.NewRouter(testDeps(t, nil))
	req := httptest.NewRequest(http.MethodPost, "/workflows/execute", strings.NewReader(`{}`))
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteWorkflowSurfacesActionLimitErrorType(t *testing.T) {
	trivialSuccess := func(ctx context.Context, args map[string]any) (any, error) { return map[string]any{"id": "x"}, nil }
	deps := testDeps(t, map[string]toolregistry.Handler{
		"create_nifi_process_group": trivialSuccess,
		"create_nifi_processor":     trivialSuccess,
		"create_nifi_connections":   trivialSuccess,
		"operate_nifi_objects":      trivialSuccess,
	})
	deps.ActionCeiling = 0
	deps.Workflows = workflows.NewCatalog(deps.Tools)
	router := httpapi.NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/workflows/execute", strings.NewReader(`{"workflow_name":"build_and_start_simple_flow","input":{}}`))
	req.Header.Set("X-Nifi-Server-Id", "prod")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "action_limit_exceeded", body["error_type"])

	steps, ok := body["steps"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, steps)
	first := steps[0].(map[string]any)
	assert.Equal(t, float64(0), first["action_count"])
}
