package estransport

import (
	"time"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
	"github.com/dreamware/estransport/internal/sniffer"
)

// Config is the recognised option surface for building a Transport.
// Every field is a struct field rather than an environment variable,
// since a library has no process environment of its own to read.
type Config struct {
	// Seeds are the initial node URIs to populate the pool with.
	Seeds []string
	// PoolKind selects the pool's selection/refresh strategy. The zero
	// value is poolstate.SingleNode; New promotes it to
	// poolstate.Static automatically when len(Seeds) > 1, since a
	// caller who supplies several seeds and never mentions PoolKind
	// almost certainly wants them all considered, not just the first.
	PoolKind poolstate.Kind

	// HTTPTransport performs the socket-level exchange. Defaults to
	// httptransport.New(nil), a plain net/http.Client wrapper.
	HTTPTransport core.HTTPTransport
	// Serializer deserializes typed response bodies. Defaults to
	// httptransport.JSONSerializer{}.
	Serializer core.Serializer

	// SniffPath is the path queried for cluster membership. Defaults
	// to "/_nodes/http".
	SniffPath string
	// MembershipParser decodes the sniff response body into node URIs.
	// Defaults to sniffer.JSONMembershipParser.
	MembershipParser sniffer.MembershipParser

	// MaxRetries overrides the retry budget. Zero (the Go zero value,
	// meaning "caller left this unset") is treated the same as the
	// sentinel -1 ("use the pool default of liveNodeCount-1"). Per-request
	// callers who genuinely want zero retries use WithMaxRetries(0) on
	// that one call instead.
	MaxRetries int
	// RequestTimeout bounds each individual HTTP attempt. Default 60s.
	RequestTimeout time.Duration
	// MaxRetryTimeout bounds the wall-clock duration of the whole outer
	// loop across every node attempted for one request, independent of
	// how many attempts that budget allows. Zero disables the cap.
	MaxRetryTimeout time.Duration
	// PingTimeout bounds each liveness probe. Default 2s.
	PingTimeout time.Duration
	// SniffTimeout bounds each membership refresh. Default 2s.
	SniffTimeout time.Duration

	// SniffOnStartup, SniffOnConnectionFault default to true for
	// sniffable pools and false otherwise; set explicitly to override.
	SniffOnStartup         *bool
	SniffOnConnectionFault *bool
	// SniffLifeSpan enables the Stale sniff trigger when positive.
	// Default off.
	SniffLifeSpan time.Duration

	// PingEnabled defaults to pinger.Enabled(PoolKind, len(Seeds)).
	// Set explicitly to override.
	PingEnabled *bool

	// DeadTimeout, MaxDeadTimeout bound the exponential node-revival
	// backoff. Defaults: poolstate.DefaultDeadTimeout,
	// poolstate.DefaultMaxDeadTimeout.
	DeadTimeout    time.Duration
	MaxDeadTimeout time.Duration

	// DisableDirectStreaming forces every response body to be buffered
	// into memory, even ones that would otherwise stream.
	DisableDirectStreaming bool
	// SkipDeserializationForStatusCodes lists status codes whose body
	// is never run through the serializer.
	SkipDeserializationForStatusCodes map[int]bool

	// OnRequestDataCreated is invoked synchronously before the first
	// node attempt of every request.
	OnRequestDataCreated func(*core.RequestData)
	// OnRequestCompleted is invoked synchronously exactly once after
	// every request reaches a terminal state, successful or not.
	OnRequestCompleted func(*core.HttpDetails)
}

const (
	defaultRequestTimeout = 60 * time.Second
	defaultPingTimeout    = 2 * time.Second
	defaultSniffTimeout   = 2 * time.Second
	defaultSniffPath      = "/_nodes/http"
)
