package reqctx_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/reqctx"
)

type fakeClient struct{ id string }

func (f fakeClient) ServerID() string { return f.id }

func TestFromContextMissing(t *testing.T) {
	_, ok := reqctx.FromContext(context.Background())
	assert.False(t, ok)

	uid, aid := reqctx.CorrelationIDs(context.Background())
	assert.Equal(t, "-", uid)
	assert.Equal(t, "-", aid)
}

func TestNewAndFromContext(t *testing.T) {
	rc := &reqctx.Context{
		Client:        fakeClient{id: "prod"},
		UserRequestID: "req-1",
		ActionID:      "act-1",
	}
	ctx := reqctx.New(context.Background(), rc)

	got, ok := reqctx.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "prod", got.Client.ServerID())

	uid, aid := reqctx.CorrelationIDs(ctx)
	assert.Equal(t, "req-1", uid)
	assert.Equal(t, "act-1", aid)
}

func TestCorrelationIDsDefaultDash(t *testing.T) {
	ctx := reqctx.New(context.Background(), &reqctx.Context{})
	uid, aid := reqctx.CorrelationIDs(ctx)
	assert.Equal(t, "-", uid)
	assert.Equal(t, "-", aid)
}

func TestExpired(t *testing.T) {
	past := reqctx.New(context.Background(), &reqctx.Context{Deadline: time.Now().Add(-time.Second)})
	assert.True(t, reqctx.Expired(past))

	future := reqctx.New(context.Background(), &reqctx.Context{Deadline: time.Now().Add(time.Hour)})
	assert.False(t, reqctx.Expired(future))

	noDeadline := reqctx.New(context.Background(), &reqctx.Context{})
	assert.False(t, reqctx.Expired(noDeadline))
}
