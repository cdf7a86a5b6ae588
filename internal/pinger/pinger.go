package pinger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
)

const defaultPath = "/"

// Pinger performs a minimal liveness probe against a node before the
// pipeline attempts the real call.
type Pinger struct {
	transport core.HTTPTransport
	method    string
	path      string
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithProbe overrides the method/path used for the probe. The default is
// a HEAD request to "/", matching a typical cluster root/liveness
// endpoint.
func WithProbe(method, path string) Option {
	return func(p *Pinger) {
		p.method = method
		p.path = path
	}
}

// New builds a Pinger that probes nodes through transport.
func New(transport core.HTTPTransport, opts ...Option) *Pinger {
	p := &Pinger{transport: transport, method: "HEAD", path: defaultPath}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether pinging should run by default for a pool of
// the given kind and node count: true iff the pool is sniffable or has
// more than one node.
func Enabled(kind poolstate.Kind, nodeCount int) bool {
	return kind.Sniffable() || nodeCount > 1
}

// Ping probes nodeURI, bounded by pingTimeout. A recoverable failure
// means the caller should sniff-on-failure and try another node; a
// non-recoverable one means the caller should abort the whole request.
func (p *Pinger) Ping(ctx context.Context, nodeURI string, pingTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	result, err := p.transport.Call(ctx, &core.RequestData{
		Method:         p.method,
		Path:           p.path,
		Node:           nodeURI,
		RequestTimeout: pingTimeout,
	})
	if err != nil {
		var perr *core.PipelineError
		if errors.As(err, &perr) {
			return &core.PipelineError{Kind: core.PingFailure, Recoverable: perr.Recoverable, Cause: perr}
		}
		return core.NewPipelineError(core.PingFailure, err)
	}
	if result.Body != nil {
		_ = result.Body.Close()
	}
	if result.StatusCode != nil && core.IsAuthenticationFailure(*result.StatusCode) {
		return core.NewNonRecoverablePipelineError(core.BadAuthentication, fmt.Errorf("ping against %s: bad authentication", nodeURI))
	}
	if result.StatusCode == nil || *result.StatusCode < 200 || *result.StatusCode >= 300 {
		return core.NewPipelineError(core.PingFailure, fmt.Errorf("ping against %s: unexpected status", nodeURI))
	}
	return nil
}
