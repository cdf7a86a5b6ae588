package sniffer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
)

// defaultSniffTimeout bounds a membership refresh attempt against one
// candidate node when the caller passes a zero timeout.
const defaultSniffTimeout = 2 * time.Second

// Reason identifies why a sniff was triggered.
type Reason int

const (
	Startup Reason = iota
	Stale
	Failure
)

func (r Reason) String() string {
	switch r {
	case Startup:
		return "Startup"
	case Stale:
		return "Stale"
	case Failure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// MembershipParser turns the body of a sniff response into the set of
// node URIs now in the cluster.
type MembershipParser func(io.Reader) ([]string, error)

type barrierState int

const (
	notStarted barrierState = iota
	inProgress
	done
)

// Sniffer refreshes a Pool's membership from the cluster.
type Sniffer struct {
	pool      *poolstate.Pool
	transport core.HTTPTransport
	parse     MembershipParser
	sniffPath string

	barrierMu  sync.Mutex
	barrierCnd *sync.Cond
	barrier    barrierState
	barrierErr error

	metaMu        sync.Mutex
	lastSniff     time.Time
	sniffLifeSpan time.Duration
}

// New builds a Sniffer over pool, using transport for the out-of-band
// membership request against sniffPath, parsed by parse. sniffLifeSpan
// of 0 disables the Stale trigger.
func New(pool *poolstate.Pool, transport core.HTTPTransport, sniffPath string, parse MembershipParser, sniffLifeSpan time.Duration) *Sniffer {
	s := &Sniffer{
		pool:          pool,
		transport:     transport,
		parse:         parse,
		sniffPath:     sniffPath,
		sniffLifeSpan: sniffLifeSpan,
	}
	s.barrierCnd = sync.NewCond(&s.barrierMu)
	return s
}

// StaleDue reports whether enough time has passed since the last
// successful sniff for a Stale-triggered refresh to fire.
func (s *Sniffer) StaleDue() bool {
	if s.sniffLifeSpan <= 0 {
		return false
	}
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	return s.lastSniff.IsZero() || time.Since(s.lastSniff) >= s.sniffLifeSpan
}

// EnsureStartup runs the one-shot startup sniff exactly once across all
// concurrent callers. The first caller performs it and holds the
// barrier for its whole duration; every other caller waits on the same
// barrier and then returns the first caller's result. sniffTimeout
// bounds each candidate attempt the same way it does for Sniff; a zero
// value falls back to defaultSniffTimeout.
func (s *Sniffer) EnsureStartup(ctx context.Context, sniffTimeout time.Duration) error {
	s.barrierMu.Lock()
	switch s.barrier {
	case done:
		defer s.barrierMu.Unlock()
		return s.barrierErr
	case inProgress:
		for s.barrier == inProgress {
			s.barrierCnd.Wait()
		}
		defer s.barrierMu.Unlock()
		return s.barrierErr
	default:
		s.barrier = inProgress
		s.barrierMu.Unlock()

		err := s.Sniff(ctx, Startup, sniffTimeout)

		s.barrierMu.Lock()
		s.barrier = done
		s.barrierErr = err
		s.barrierCnd.Broadcast()
		s.barrierMu.Unlock()
		return err
	}
}

// Sniff performs the out-of-band membership request, trying candidate
// nodes from the pool in order until one answers, and replaces the
// pool's node set on success. If every candidate fails, it returns a
// non-recoverable SniffFailure PipelineError. Each candidate attempt is
// bounded by sniffTimeout (falling back to defaultSniffTimeout when
// zero), the same way Pinger.Ping bounds each ping.
func (s *Sniffer) Sniff(ctx context.Context, reason Reason, sniffTimeout time.Duration) error {
	if !s.pool.Kind().Sniffable() && reason != Startup {
		return nil
	}
	if sniffTimeout <= 0 {
		sniffTimeout = defaultSniffTimeout
	}

	candidates := s.pool.NextNode(-1)
	if len(candidates) == 0 {
		return core.NewNonRecoverablePipelineError(core.SniffFailure, errNoCandidates)
	}

	var lastErr error
	for _, node := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		uris, err := s.sniffOne(ctx, node.URI, sniffTimeout)
		if err != nil {
			lastErr = err
			continue
		}

		s.pool.Sniff(uris)
		s.metaMu.Lock()
		s.lastSniff = time.Now()
		s.metaMu.Unlock()
		return nil
	}

	return core.NewNonRecoverablePipelineError(core.SniffFailure, lastErr)
}

func (s *Sniffer) sniffOne(ctx context.Context, nodeURI string, sniffTimeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, sniffTimeout)
	defer cancel()

	result, err := s.transport.Call(ctx, &core.RequestData{
		Method:         "GET",
		Path:           s.sniffPath,
		Node:           nodeURI,
		RequestTimeout: sniffTimeout,
	})
	if err != nil {
		return nil, err
	}
	if result.Body == nil {
		return nil, errEmptySniffBody
	}
	defer result.Body.Close()

	if result.StatusCode == nil || *result.StatusCode < 200 || *result.StatusCode > 299 {
		return nil, errBadSniffStatus
	}

	return s.parse(result.Body)
}
