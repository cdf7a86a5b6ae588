package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/pinger"
	"github.com/dreamware/estransport/internal/poolstate"
	"github.com/dreamware/estransport/internal/sniffer"
)

const defaultPingTimeout = 2 * time.Second

// Result is one terminal, non-error outcome of Run: an attempt that
// either succeeded or landed on a known application-level error,
// carrying everything ResponseBuilder needs plus the full audit trail
// accumulated across every node this request visited.
type Result struct {
	StatusCode *int
	Headers    http.Header
	Body       io.ReadCloser
	Warnings   []string
	AuditTrail []core.AuditEvent
}

// Options configures a Pipeline. Sniffer and Pinger may be nil to
// disable sniffing/pinging outright (e.g. a single-node pool never
// sniffs and a one-node pool by default never pings).
type Options struct {
	Pool      *poolstate.Pool
	Sniffer   *sniffer.Sniffer
	Pinger    *pinger.Pinger
	Transport core.HTTPTransport

	PingEnabled            bool
	SniffOnStartup         bool
	SniffOnConnectionFault bool
	SniffOnStale           bool

	// MaxRetryTimeout bounds the wall-clock duration of the whole outer
	// loop across every node attempted for one request. Zero disables
	// the cap. Exhausting it is distinct from the caller's own ctx being
	// cancelled: it surfaces as a terminal MaxTimeoutReached
	// core.PipelineError rather than as ctx.Err().
	MaxRetryTimeout time.Duration
}

// Pipeline drives one logical request through bootstrap, node
// iteration, sniff-on-stale/sniff-on-failure, ping, the call, and
// liveness marking, advancing through Fresh -> Bootstrapped ->
// Iterating -> {Succeeded | Failed} without ever materializing those
// states as an explicit enum: each is just a point in Run's control
// flow, since nothing outside one call to Run observes the state.
type Pipeline struct {
	opts Options
}

// New builds a Pipeline. Pool and Transport are required.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes the full state machine for one logical request. On
// success or known-server-error it returns a non-nil *Result and a nil
// error. On a terminal pipeline failure it returns a nil *Result and a
// *core.PipelineError carrying every PipelineError seen along the way.
// A cancellation originating from the caller's own ctx returns ctx.Err()
// directly, never wrapped; exhausting MaxRetryTimeout instead surfaces
// as a terminal MaxTimeoutReached *core.PipelineError, since that
// deadline is this pipeline's own budget, not the caller's.
func (p *Pipeline) Run(ctx context.Context, req *core.RequestData) (*Result, error) {
	callerCtx := ctx
	if p.opts.MaxRetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.MaxRetryTimeout)
		defer cancel()
	}

	trail := core.NewAuditTrail()
	var prior []*core.PipelineError
	sniffedOnFailure := false

	record := func(kind core.AuditKind, nodeURI string, err error) {
		trail = append(trail, core.AuditEvent{Kind: kind, NodeURI: nodeURI, Timestamp: time.Now(), Err: err})
	}

	// checkDeadline reports whether ctx has ended, distinguishing the
	// caller's own cancellation (surfaced as ctx.Err() verbatim) from
	// this pipeline's own MaxRetryTimeout budget expiring (surfaced as a
	// terminal MaxTimeoutReached PipelineError).
	checkDeadline := func(nodeURI string) (error, bool) {
		if ctx.Err() == nil {
			return nil, false
		}
		if callerCtx.Err() != nil {
			record(core.CancellationRequested, nodeURI, callerCtx.Err())
			return callerCtx.Err(), true
		}
		record(core.AuditMaxTimeoutReached, nodeURI, ctx.Err())
		return p.terminal(core.NewNonRecoverablePipelineError(core.MaxTimeoutReached, errMaxRetryTimeout), trail, prior), true
	}

	if err, done := checkDeadline(""); done {
		return nil, err
	}

	// Fresh -> Bootstrapped: the one-shot startup sniff, serialised
	// across every concurrent caller by the Sniffer's own barrier.
	if p.opts.SniffOnStartup && p.opts.Sniffer != nil {
		if err := p.opts.Sniffer.EnsureStartup(ctx, req.SniffTimeout); err != nil {
			if derr, done := checkDeadline(""); done {
				return nil, derr
			}
			record(core.AuditSniffFailure, "", err)
			return nil, p.terminal(core.NewNonRecoverablePipelineError(core.CouldNotStartSniffOnStartup, err), trail, prior)
		}
		record(core.SniffOnStartup, "", nil)
	}

	// Bootstrapped -> Iterating(0).
	nodes := p.opts.Pool.NextNode(req.MaxRetries)
	if len(nodes) == 0 {
		record(core.NoNodesAttempted, "", nil)
		return nil, p.terminal(core.NewNonRecoverablePipelineError(core.NoNodesAttemptedError, errNoNodes), trail, prior)
	}

	for _, node := range nodes {
		if err, done := checkDeadline(node.URI); done {
			return nil, err
		}

		if p.opts.SniffOnStale && p.opts.Sniffer != nil && p.opts.Sniffer.StaleDue() {
			if err := p.opts.Sniffer.Sniff(ctx, sniffer.Stale, req.SniffTimeout); err != nil {
				if derr, done := checkDeadline(node.URI); done {
					return nil, derr
				}
				record(core.AuditSniffFailure, node.URI, err)
			} else {
				record(core.SniffSuccess, node.URI, nil)
			}
		}

		if err, done := checkDeadline(node.URI); done {
			return nil, err
		}

		req.Node = node.URI

		if p.opts.PingEnabled && p.opts.Pinger != nil {
			pingTimeout := req.PingTimeout
			if pingTimeout <= 0 {
				pingTimeout = defaultPingTimeout
			}
			if err := p.opts.Pinger.Ping(ctx, node.URI, pingTimeout); err != nil {
				if derr, done := checkDeadline(node.URI); done {
					return nil, derr
				}
				record(core.AuditPingFailure, node.URI, err)

				var perr *core.PipelineError
				if errors.As(err, &perr) {
					if perr.Recoverable && !sniffedOnFailure {
						sniffedOnFailure = true
						p.sniffOnFailure(ctx, node.URI, req.SniffTimeout, record)
					}
					p.opts.Pool.MarkDead(node.URI)
					record(core.MarkDead, node.URI, perr)
					if !perr.Recoverable {
						return nil, p.terminal(perr, trail, prior)
					}
					prior = append(prior, perr)
					continue
				}
				return nil, p.terminal(core.NewNonRecoverablePipelineError(core.Unexpected, err), trail, prior)
			}
			record(core.PingSuccess, node.URI, nil)
		}

		if err, done := checkDeadline(node.URI); done {
			return nil, err
		}

		result, callErr := p.opts.Transport.Call(ctx, req)
		if callErr != nil {
			if derr, done := checkDeadline(node.URI); done {
				return nil, derr
			}

			var perr *core.PipelineError
			if !errors.As(callErr, &perr) {
				return nil, p.terminal(core.NewNonRecoverablePipelineError(core.Unexpected, callErr), trail, prior)
			}

			p.opts.Pool.MarkDead(node.URI)
			record(core.MarkDead, node.URI, perr)
			if !perr.Recoverable {
				return nil, p.terminal(perr, trail, prior)
			}
			prior = append(prior, perr)
			continue
		}

		if result.StatusCode != nil && core.IsAuthenticationFailure(*result.StatusCode) {
			drainAndClose(result.Body)
			p.opts.Pool.MarkAlive(node.URI)
			record(core.MarkAlive, node.URI, nil)
			record(core.AuditBadResponse, node.URI, errBadAuthentication)
			return nil, p.terminal(core.NewNonRecoverablePipelineError(core.BadAuthentication, errBadAuthentication), trail, prior)
		}

		success := false
		if result.StatusCode != nil {
			success = core.IsSuccess(req.Method, *result.StatusCode, req.AllowedStatusCodes)
		}
		if result.StatusCode != nil && core.SuccessOrKnownError(success, *result.StatusCode) {
			p.opts.Pool.MarkAlive(node.URI)
			record(core.MarkAlive, node.URI, nil)
			if success {
				record(core.HealthyResponse, node.URI, nil)
			} else {
				record(core.AuditBadResponse, node.URI, nil)
			}
			return &Result{
				StatusCode: result.StatusCode,
				Headers:    result.Headers,
				Body:       result.Body,
				Warnings:   result.Warnings,
				AuditTrail: trail,
			}, nil
		}

		// A transient 5xx pattern (or a missing status code that
		// somehow carried no transport error): treat it like a
		// connection failure — mark dead, sniff-on-failure, advance.
		drainAndClose(result.Body)
		p.opts.Pool.MarkDead(node.URI)
		record(core.MarkDead, node.URI, nil)
		if !sniffedOnFailure {
			sniffedOnFailure = true
			p.sniffOnFailure(ctx, node.URI, req.SniffTimeout, record)
		}
		prior = append(prior, core.NewPipelineError(core.BadResponse, errBadStatus))
	}

	record(core.MaxRetriesReached, "", nil)
	return nil, p.terminal(core.NewNonRecoverablePipelineError(core.MaxRetriesReachedError, errMaxRetries), trail, prior)
}

// sniffOnFailure fires the Failure-triggered sniff. Callers guard this
// with the sniffedOnFailure flag so it runs at most once per request,
// per spec. Suppressed entirely for non-sniffable pools (the Sniffer
// itself already no-ops for those, but skipping the call avoids an
// audit event for a sniff that could never have happened).
func (p *Pipeline) sniffOnFailure(ctx context.Context, nodeURI string, sniffTimeout time.Duration, record func(core.AuditKind, string, error)) {
	if !p.opts.SniffOnConnectionFault || p.opts.Sniffer == nil || !p.opts.Pool.Kind().Sniffable() {
		return
	}
	if err := p.opts.Sniffer.Sniff(ctx, sniffer.Failure, sniffTimeout); err != nil {
		record(core.AuditSniffFailure, nodeURI, err)
		return
	}
	record(core.SniffSuccess, nodeURI, nil)
}

// terminal attaches the accumulated prior PipelineErrors and the
// partial HttpDetails (so a caller that only gets an error back can
// still inspect which nodes were tried and why) to err before
// returning it. The method/URI fields are left empty: the caller
// (Transport) owns the authoritative RequestData and fills in its own
// HttpDetails from it; this partial copy exists only to carry the
// AuditTrail back out through the error.
func (p *Pipeline) terminal(err *core.PipelineError, trail []core.AuditEvent, prior []*core.PipelineError) *core.PipelineError {
	out := err.WithPrior(prior...)
	details := core.NewHttpDetails("", "")
	details.AuditTrail = trail
	out.Details = details
	return out
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

var (
	errNoNodes           = errors.New("pipeline: no nodes available to attempt")
	errMaxRetries        = errors.New("pipeline: retry budget exhausted")
	errBadStatus         = errors.New("pipeline: transient server error")
	errBadAuthentication = errors.New("pipeline: node reported bad authentication")
	errMaxRetryTimeout   = errors.New("pipeline: max retry timeout exceeded")
)
