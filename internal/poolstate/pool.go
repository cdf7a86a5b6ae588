package poolstate

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"
)

// Kind identifies the selection/refresh strategy a Pool implements.
type Kind int

const (
	// SingleNode pools hold exactly one node. They are never sniffed and
	// never mark their node dead, since there is no other node to fail
	// over to.
	SingleNode Kind = iota
	// Static pools hold a fixed set of nodes, round-robinned, never
	// refreshed by a sniff.
	Static
	// Sniffing pools hold a set of nodes that may be wholesale replaced
	// by Sniff, round-robinned otherwise.
	Sniffing
	// Sticky pools behave like Sniffing but prefer repeating the last
	// node a request succeeded against before falling back to
	// round-robin, to avoid needless connection churn.
	Sticky
)

// Sniffable reports whether nodes of this pool kind may be refreshed from
// the cluster at runtime.
func (k Kind) Sniffable() bool {
	return k == Sniffing || k == Sticky
}

// Node is a single addressable cluster instance as seen by the pool.
// Fields are mutated only by the owning Pool's MarkAlive/MarkDead/Sniff.
// Eligibility for NextNode is governed by DeadUntil alone, not IsAlive:
// IsAlive records the outcome of the most recent attempt for
// diagnostics, while DeadUntil is what actually revives a node once its
// backoff elapses, even before anyone calls MarkAlive on it again.
type Node struct {
	URI            string
	IsAlive        bool
	DeadUntil      time.Time
	FailedAttempts int
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// Defaults for the exponential dead-time backoff.
const (
	DefaultDeadTimeout    = 60 * time.Second
	DefaultMaxDeadTimeout = 30 * time.Minute
)

// Pool enumerates candidate nodes for one cluster and tracks their
// alive/dead state. Pool is safe for concurrent use; mutation holds the
// lock only for the snapshot swap or field update, never across I/O.
type Pool struct {
	mu             sync.RWMutex
	nodes          []*Node
	kind           Kind
	cursor         atomic.Uint64
	lastSuccessURI string
	deadTimeout    time.Duration
	maxDeadTimeout time.Duration
}

// Option configures a new Pool.
type Option func(*Pool)

// WithDeadTimeouts overrides the exponential backoff bounds used by
// MarkDead. Defaults are DefaultDeadTimeout and DefaultMaxDeadTimeout.
func WithDeadTimeouts(deadTimeout, maxDeadTimeout time.Duration) Option {
	return func(p *Pool) {
		p.deadTimeout = deadTimeout
		p.maxDeadTimeout = maxDeadTimeout
	}
}

// New creates a Pool of the given kind seeded with uris. At least one URI
// is required; SingleNode pools use only the first.
func New(kind Kind, uris []string, opts ...Option) *Pool {
	p := &Pool{
		kind:           kind,
		deadTimeout:    DefaultDeadTimeout,
		maxDeadTimeout: DefaultMaxDeadTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if kind == SingleNode && len(uris) > 0 {
		uris = uris[:1]
	}
	p.nodes = make([]*Node, 0, len(uris))
	for _, u := range uris {
		p.nodes = append(p.nodes, &Node{URI: u, IsAlive: true})
	}
	return p
}

// Kind returns the pool's selection/refresh strategy.
func (p *Pool) Kind() Kind {
	return p.kind
}

// Len returns the current number of nodes known to the pool, alive or
// dead.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.nodes)
}

// snapshot returns a deep copy of the current node list, safe for the
// caller to inspect and mutate without affecting the pool.
func (p *Pool) snapshot() []*Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Node, len(p.nodes))
	for i, n := range p.nodes {
		out[i] = n.clone()
	}
	return out
}

// retryBudget computes the number of nodes a single request may attempt:
// min(maxRetries+1, liveNodeCount), defaulting maxRetries to
// liveNodeCount-1, and never less than 1.
//
// maxRetries < 0 is the sentinel for "use the default".
func retryBudget(maxRetries, liveNodeCount int) int {
	if liveNodeCount <= 0 {
		return 0
	}
	if maxRetries < 0 {
		maxRetries = liveNodeCount - 1
	}
	budget := maxRetries + 1
	if budget > liveNodeCount {
		budget = liveNodeCount
	}
	if budget < 1 {
		budget = 1
	}
	return budget
}

// NextNode returns the ordered sequence of nodes one request should
// attempt, bounded by the retry budget derived from maxRetries (pass -1
// to use the default of liveNodeCount-1).
//
// Selection is round-robin, using a cursor that persists across calls,
// over every node whose DeadUntil has elapsed — a node revives the
// moment its backoff window passes, independent of whether MarkAlive
// was ever called on it again. If every node is still within its
// DeadUntil window, the one with the earliest DeadUntil is returned
// alone as a last-resort revival attempt. Sticky pools additionally
// prefer the last node a request succeeded against.
func (p *Pool) NextNode(maxRetries int) []*Node {
	nodes := p.snapshot()
	if len(nodes) == 0 {
		return nil
	}

	now := time.Now()
	alive := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.DeadUntil.After(now) {
			alive = append(alive, n)
		}
	}

	if len(alive) == 0 {
		// Last-resort revival: the node with the earliest DeadUntil.
		earliest := nodes[0]
		for _, n := range nodes[1:] {
			if n.DeadUntil.Before(earliest.DeadUntil) {
				earliest = n
			}
		}
		return []*Node{earliest}
	}

	if p.kind == SingleNode {
		return alive[:1]
	}

	budget := retryBudget(maxRetries, len(alive))

	p.mu.RLock()
	lastSuccessURI := p.lastSuccessURI
	p.mu.RUnlock()

	ordered := make([]*Node, 0, budget)
	if p.kind == Sticky && lastSuccessURI != "" {
		if idx := slices.IndexFunc(alive, func(n *Node) bool { return n.URI == lastSuccessURI }); idx >= 0 {
			ordered = append(ordered, alive[idx])
			alive = slices.Delete(alive, idx, idx+1)
		}
	}

	for len(ordered) < budget && len(alive) > 0 {
		idx := int(p.cursor.Add(1)-1) % len(alive)
		ordered = append(ordered, alive[idx])
		alive = slices.Delete(alive, idx, idx+1)
	}

	return ordered
}

// MarkAlive resets a node's failure count and revives it immediately.
// It is a no-op if the URI is not known to the pool.
func (p *Pool) MarkAlive(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if n.URI == uri {
			n.IsAlive = true
			n.FailedAttempts = 0
			n.DeadUntil = time.Time{}
			break
		}
	}
	if p.kind == Sticky {
		p.lastSuccessURI = uri
	}
}

// MarkDead records a failed attempt against a node, computing its next
// DeadUntil via exponential backoff bounded by maxDeadTimeout. It is a
// no-op for SingleNode pools and for URIs not known to the pool.
func (p *Pool) MarkDead(uri string) {
	if p.kind == SingleNode {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if n.URI == uri {
			n.FailedAttempts++
			n.IsAlive = false
			n.DeadUntil = time.Now().Add(backoff(n.FailedAttempts, p.deadTimeout, p.maxDeadTimeout))
			break
		}
	}
}

func backoff(failedAttempts int, deadTimeout, maxDeadTimeout time.Duration) time.Duration {
	d := deadTimeout
	for i := 1; i < failedAttempts && d < maxDeadTimeout; i++ {
		d *= 2
	}
	if d > maxDeadTimeout {
		d = maxDeadTimeout
	}
	return d
}

// Sniff atomically replaces the node set with uris, preserving the
// cursor position modulo the new length so round-robin continuity is
// kept as close as possible across a membership change. It is a no-op
// for pool kinds that are not Sniffable.
func (p *Pool) Sniff(uris []string) {
	if !p.kind.Sniffable() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	existing := make(map[string]*Node, len(p.nodes))
	for _, n := range p.nodes {
		existing[n.URI] = n
	}

	next := make([]*Node, 0, len(uris))
	for _, u := range uris {
		if n, ok := existing[u]; ok {
			next = append(next, n)
			continue
		}
		next = append(next, &Node{URI: u, IsAlive: true})
	}
	p.nodes = next

	if len(next) > 0 {
		p.cursor.Store(p.cursor.Load() % uint64(len(next)))
	}
}

// AliveURIs returns the URIs of every currently alive node, for
// diagnostics and tests.
func (p *Pool) AliveURIs() []string {
	nodes := p.snapshot()
	now := time.Now()
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if !n.DeadUntil.After(now) {
			out = append(out, n.URI)
		}
	}
	return out
}
