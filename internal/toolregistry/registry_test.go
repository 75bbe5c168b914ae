package toolregistry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

func echoDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "echo",
		Description: "echoes its input",
		Phases:      []string{"review"},
		Schema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"message": map[string]any{"type": "string"}},
			"required":             []any{"message"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return args["message"], nil
		},
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := toolregistry.New()
	_, err := r.Dispatch(context.Background(), "nope", nil)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindTool, ae.Kind)
}

func TestDispatchValidatesAgainstSchema(t *testing.T) {
	r := toolregistry.New()
	r.Register(echoDescriptor())

	_, err := r.Dispatch(context.Background(), "echo", map[string]any{"wrong": "field"})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
}

func TestDispatchSucceeds(t *testing.T) {
	r := toolregistry.New()
	r.Register(echoDescriptor())

	out, err := r.Dispatch(context.Background(), "echo", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestListFiltersByPhase(t *testing.T) {
	r := toolregistry.New()
	r.Register(echoDescriptor())
	r.Register(toolregistry.Descriptor{
		Name:   "other",
		Phases: []string{"build"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		},
	})

	all := r.List()
	assert.Len(t, all, 2)

	reviewOnly := r.List("review")
	require.Len(t, reviewOnly, 1)
	assert.Equal(t, "echo", reviewOnly[0].Name)
}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	r := toolregistry.New()
	r.Register(echoDescriptor())
	assert.Panics(t, func() { r.Register(echoDescriptor()) })
}
