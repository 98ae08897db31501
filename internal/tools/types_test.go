package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"coco/internal/cocoerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnknownToolReturnsUnknownToolKind(t *testing.T) {
	r := NewRegistry()
	res := r.Dispatch(context.Background(), "nope", nil)
	assert.False(t, res.OK)
	assert.Equal(t, cocoerr.UnknownTool, res.ErrorKind)
}

func TestDispatchSuccess(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{
		Name: "echo",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			return "hello", nil
		},
	})
	res := r.Dispatch(context.Background(), "echo", nil)
	assert.True(t, res.OK)
	assert.Equal(t, "hello", res.Value)
}

func TestDispatchHandlerErrorPreservesKind(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{
		Name: "bad",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			return nil, cocoerr.New(cocoerr.InvalidInput, "bad input")
		},
	})
	res := r.Dispatch(context.Background(), "bad", nil)
	assert.False(t, res.OK)
	assert.Equal(t, cocoerr.InvalidInput, res.ErrorKind)
}

func TestDispatchPanicRecoversAsInternal(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{
		Name: "panics",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			panic("boom")
		},
	})
	res := r.Dispatch(context.Background(), "panics", nil)
	assert.False(t, res.OK)
	assert.Equal(t, cocoerr.Internal, res.ErrorKind)
}

func TestDispatchTimeoutReportsExternalFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{
		Name:      "slow",
		TimeoutMS: 10,
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			select {
			case <-time.After(time.Second):
				return "too slow", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	res := r.Dispatch(context.Background(), "slow", nil)
	assert.False(t, res.OK)
	assert.Equal(t, cocoerr.ExternalFailure, res.ErrorKind)
}

func TestSchemasForLLMExcludesUnavailableTools(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{Name: "avail", Handler: func(ctx context.Context, raw json.RawMessage) (any, error) { return "", nil }})
	r.Register(Definition{Name: "unavail", Handler: func(ctx context.Context, raw json.RawMessage) (any, error) { return "", nil }, Probe: func() bool { return false }})

	schemas := r.SchemasForLLM()
	require.Len(t, schemas, 1)
	assert.Equal(t, "avail", schemas[0].Name)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{Name: "x"})
	assert.Panics(t, func() {
		r.Register(Definition{Name: "x"})
	})
}

func TestOnDispatchHookFires(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{Name: "echo", Handler: func(ctx context.Context, raw json.RawMessage) (any, error) { return "hi", nil }})

	var got DispatchEvent
	r.OnDispatch(func(ev DispatchEvent) { got = ev })
	r.Dispatch(context.Background(), "echo", json.RawMessage(`{}`))

	assert.Equal(t, "echo", got.Name)
	assert.True(t, got.Result.OK)
}
