package apperr_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Auth("bad creds"), http.StatusServiceUnavailable},
		{apperr.NotFound("no such tool %q", "foo"), http.StatusNotFound},
		{apperr.Conflict(3, "stale revision"), http.StatusBadRequest},
		{apperr.BadRequest("missing field"), http.StatusBadRequest},
		{apperr.Timeout("drop request %s", "abc"), http.StatusBadRequest},
		{apperr.Tool("ambiguous name"), http.StatusBadRequest},
		{apperr.Internal(fmt.Errorf("boom"), "serialize"), http.StatusInternalServerError},
		{fmt.Errorf("plain error"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, apperr.HTTPStatus(c.err))
	}
}

func TestErrorIsKind(t *testing.T) {
	err := apperr.Conflict(5, "stale version")
	wrapped := fmt.Errorf("update processor: %w", err)

	e, ok := apperr.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, int64(5), e.StaleVersion)
}

func TestWithHint(t *testing.T) {
	base := apperr.Conflict(0, "cannot delete process group")
	hinted := apperr.WithHint(base, "ensure the group is stopped and empty")
	assert.Contains(t, hinted.Error(), "ensure the group is stopped and empty")
	assert.NotContains(t, base.Error(), "hint")
}
