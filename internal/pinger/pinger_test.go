package pinger

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
)

type fakeTransport struct {
	result *core.CallResult
	err    error
}

func (f *fakeTransport) Call(_ context.Context, _ *core.RequestData) (*core.CallResult, error) {
	return f.result, f.err
}

func statusPtr(code int) *int { return &code }

func TestPingSuccess(t *testing.T) {
	transport := &fakeTransport{result: &core.CallResult{StatusCode: statusPtr(200), Headers: http.Header{}}}
	p := New(transport)

	err := p.Ping(context.Background(), "http://a", time.Second)
	assert.NoError(t, err)
}

func TestPingRecoverableTransportFailure(t *testing.T) {
	transport := &fakeTransport{err: core.NewPipelineError(core.BadResponse, errors.New("refused"))}
	p := New(transport)

	err := p.Ping(context.Background(), "http://a", time.Second)
	require.Error(t, err)
	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.PingFailure, perr.Kind)
	assert.True(t, perr.Recoverable)
}

func TestPingNonRecoverableTransportFailure(t *testing.T) {
	transport := &fakeTransport{err: core.NewNonRecoverablePipelineError(core.BadAuthentication, errors.New("401"))}
	p := New(transport)

	err := p.Ping(context.Background(), "http://a", time.Second)
	require.Error(t, err)
	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Recoverable)
}

func TestPingBadStatusIsFailure(t *testing.T) {
	transport := &fakeTransport{result: &core.CallResult{StatusCode: statusPtr(500), Headers: http.Header{}}}
	p := New(transport)

	err := p.Ping(context.Background(), "http://a", time.Second)
	assert.Error(t, err)
}

func TestEnabledDefaults(t *testing.T) {
	assert.False(t, Enabled(poolstate.SingleNode, 1))
	assert.True(t, Enabled(poolstate.Static, 2))
	assert.True(t, Enabled(poolstate.Sniffing, 1))
	assert.False(t, Enabled(poolstate.Static, 1))
}
