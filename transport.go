// Package estransport is a client-side request transport for a
// clustered search engine: given a logical request (method, path,
// optional body, per-call parameters), it selects a live node from a
// pool, performs optional liveness/sniffing side-requests, executes
// the HTTP call, handles per-node failure with failover, and returns a
// typed response carrying full audit metadata.
package estransport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/httptransport"
	"github.com/dreamware/estransport/internal/pinger"
	"github.com/dreamware/estransport/internal/pipeline"
	"github.com/dreamware/estransport/internal/poolstate"
	"github.com/dreamware/estransport/internal/response"
	"github.com/dreamware/estransport/internal/sniffer"
)

// Transport is the outer orchestration loop: it iterates the nodes a
// RequestPipeline yields for one logical request, classifies whatever
// comes back, and decides the terminal outcome. One Transport is built
// once per cluster and reused across many concurrent requests.
type Transport struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	pool     *poolstate.Pool
}

// New builds a Transport from cfg, constructing its NodePool, Sniffer,
// and Pinger and resolving every default described on Config's fields.
// At least one seed is required.
func New(cfg Config) (*Transport, error) {
	if len(cfg.Seeds) == 0 {
		return nil, errors.New("estransport: at least one seed node is required")
	}

	kind := cfg.PoolKind
	if kind == poolstate.SingleNode && len(cfg.Seeds) > 1 {
		kind = poolstate.Static
	}

	deadTimeout := cfg.DeadTimeout
	if deadTimeout <= 0 {
		deadTimeout = poolstate.DefaultDeadTimeout
	}
	maxDeadTimeout := cfg.MaxDeadTimeout
	if maxDeadTimeout <= 0 {
		maxDeadTimeout = poolstate.DefaultMaxDeadTimeout
	}
	pool := poolstate.New(kind, cfg.Seeds, poolstate.WithDeadTimeouts(deadTimeout, maxDeadTimeout))

	httpTransport := cfg.HTTPTransport
	if httpTransport == nil {
		httpTransport = httptransport.New(nil)
	}

	serializer := cfg.Serializer
	if serializer == nil {
		serializer = httptransport.JSONSerializer{}
	}

	var snf *sniffer.Sniffer
	if kind.Sniffable() {
		sniffPath := cfg.SniffPath
		if sniffPath == "" {
			sniffPath = defaultSniffPath
		}
		parse := cfg.MembershipParser
		if parse == nil {
			parse = sniffer.JSONMembershipParser
		}
		snf = sniffer.New(pool, httpTransport, sniffPath, parse, cfg.SniffLifeSpan)
	}

	pingEnabled := pinger.Enabled(kind, len(cfg.Seeds))
	if cfg.PingEnabled != nil {
		pingEnabled = *cfg.PingEnabled
	}

	sniffOnStartup := kind.Sniffable()
	if cfg.SniffOnStartup != nil {
		sniffOnStartup = *cfg.SniffOnStartup
	}
	sniffOnConnectionFault := kind.Sniffable()
	if cfg.SniffOnConnectionFault != nil {
		sniffOnConnectionFault = *cfg.SniffOnConnectionFault
	}

	pipe := pipeline.New(pipeline.Options{
		Pool:                   pool,
		Sniffer:                snf,
		Pinger:                 pinger.New(httpTransport),
		Transport:              httpTransport,
		PingEnabled:            pingEnabled,
		SniffOnStartup:         sniffOnStartup,
		SniffOnConnectionFault: sniffOnConnectionFault,
		SniffOnStale:           cfg.SniffLifeSpan > 0,
		MaxRetryTimeout:        cfg.MaxRetryTimeout,
	})

	cfg.Serializer = serializer
	return &Transport{cfg: cfg, pipeline: pipe, pool: pool}, nil
}

// RequestOption customises a single call's RequestData, layered on top
// of Transport's Config defaults.
type RequestOption func(*core.RequestData)

// WithBody attaches a request body.
func WithBody(body []byte) RequestOption {
	return func(r *core.RequestData) { r.Body = body }
}

// WithAllowedStatusCodes extends the set of status codes treated as
// success beyond [200,299] and the HEAD-404 special case. Passing -1
// allows any status code.
func WithAllowedStatusCodes(codes ...int) RequestOption {
	return func(r *core.RequestData) {
		for _, c := range codes {
			r.AllowedStatusCodes[c] = true
		}
	}
}

// WithCustomConverter overrides the configured Serializer for this
// call's response body.
func WithCustomConverter(fn func(io.Reader) (any, error)) RequestOption {
	return func(r *core.RequestData) { r.CustomConverter = fn }
}

// WithMaxRetries overrides the retry budget for this call only; pass 0
// for exactly one attempt (no failover).
func WithMaxRetries(n int) RequestOption {
	return func(r *core.RequestData) { r.MaxRetries = n }
}

// WithDisableDirectStreaming forces this call's response body to be
// buffered into memory even for a kind that would otherwise stream.
func WithDisableDirectStreaming() RequestOption {
	return func(r *core.RequestData) { r.DisableDirectStreaming = true }
}

func (t *Transport) newRequestData(method, path string) *core.RequestData {
	maxRetries := t.cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	requestTimeout := t.cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	pingTimeout := t.cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	sniffTimeout := t.cfg.SniffTimeout
	if sniffTimeout <= 0 {
		sniffTimeout = defaultSniffTimeout
	}
	return &core.RequestData{
		Method:                            method,
		Path:                              path,
		AllowedStatusCodes:                map[int]bool{},
		SkipDeserializationForStatusCodes: t.cfg.SkipDeserializationForStatusCodes,
		MaxRetries:                        maxRetries,
		RequestTimeout:                    requestTimeout,
		PingTimeout:                       pingTimeout,
		SniffTimeout:                      sniffTimeout,
		DisableDirectStreaming:            t.cfg.DisableDirectStreaming,
	}
}

// Perform issues one logical request and materialises a typed
// Response[T] per kind. It acquires the pipeline, drives it to a
// terminal state, and invokes OnRequestDataCreated/OnRequestCompleted
// exactly once each, on every exit path including a panic from deep
// inside the HTTP stack.
//
// Perform is a free function rather than a method because Go does not
// allow a method to introduce its own type parameter.
func Perform[T any](ctx context.Context, t *Transport, kind response.Kind, method, path string, opts ...RequestOption) (resp *response.Response[T], err error) {
	req := t.newRequestData(method, path)
	for _, opt := range opts {
		opt(req)
	}

	if t.cfg.OnRequestDataCreated != nil {
		t.cfg.OnRequestDataCreated(req)
	}

	var details *core.HttpDetails
	defer func() {
		if r := recover(); r != nil {
			if details == nil {
				details = core.NewHttpDetails(req.Method, req.Node)
			}
			details.OriginalException = fmt.Errorf("estransport: unexpected panic: %v", r)
			if t.cfg.OnRequestCompleted != nil {
				t.cfg.OnRequestCompleted(details)
			}
			panic(r)
		}
	}()

	result, runErr := t.pipeline.Run(ctx, req)
	if runErr != nil {
		details = detailsFromErr(req, runErr)
		if t.cfg.OnRequestCompleted != nil {
			t.cfg.OnRequestCompleted(details)
		}
		return nil, runErr
	}

	resp, buildErr := response.Build[T](kind, response.Input{
		Request:    req,
		Serializer: t.cfg.Serializer,
		StatusCode: result.StatusCode,
		Headers:    result.Headers,
		Warnings:   result.Warnings,
		Body:       result.Body,
		AuditTrail: result.AuditTrail,
	})
	if buildErr != nil {
		details = core.NewHttpDetails(req.Method, req.Node)
		details.AuditTrail = result.AuditTrail
		details.OriginalException = buildErr
		if t.cfg.OnRequestCompleted != nil {
			t.cfg.OnRequestCompleted(details)
		}
		return nil, buildErr
	}

	details = resp.ApiCall
	if t.cfg.OnRequestCompleted != nil {
		t.cfg.OnRequestCompleted(details)
	}
	return resp, nil
}

// detailsFromErr recovers the partial HttpDetails a terminal
// PipelineError carries (see core.PipelineError.Details), falling back
// to a freshly allocated, audit-trail-only HttpDetails for errors this
// package didn't originate (context cancellation, for instance).
func detailsFromErr(req *core.RequestData, err error) *core.HttpDetails {
	var perr *core.PipelineError
	if errors.As(err, &perr) && perr.Details != nil {
		d := perr.Details
		d.Method = req.Method
		d.URI = req.Node
		d.OriginalException = perr
		return d
	}
	d := core.NewHttpDetails(req.Method, req.Node)
	d.OriginalException = err
	return d
}

// Pool exposes the Transport's underlying NodePool, primarily for
// diagnostics and tests that want to assert on alive/dead state
// directly rather than through a request's audit trail.
func (t *Transport) Pool() *poolstate.Pool {
	return t.pool
}
