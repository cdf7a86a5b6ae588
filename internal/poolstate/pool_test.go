package poolstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		uris     []string
		wantLen  int
		wantKind Kind
	}{
		{name: "single node truncates to one", kind: SingleNode, uris: []string{"http://a", "http://b"}, wantLen: 1, wantKind: SingleNode},
		{name: "static keeps all", kind: Static, uris: []string{"http://a", "http://b", "http://c"}, wantLen: 3, wantKind: Static},
		{name: "sniffing keeps all", kind: Sniffing, uris: []string{"http://a"}, wantLen: 1, wantKind: Sniffing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.kind, tt.uris)
			assert.Equal(t, tt.wantLen, p.Len())
			assert.Equal(t, tt.wantKind, p.Kind())
		})
	}
}

func TestKindSniffable(t *testing.T) {
	assert.False(t, SingleNode.Sniffable())
	assert.False(t, Static.Sniffable())
	assert.True(t, Sniffing.Sniffable())
	assert.True(t, Sticky.Sniffable())
}

func TestRetryBudget(t *testing.T) {
	tests := []struct {
		name            string
		maxRetries      int
		liveNodeCount   int
		wantBudget      int
	}{
		{name: "unset defaults to liveNodeCount-1 retries, budget=liveNodeCount", maxRetries: -1, liveNodeCount: 3, wantBudget: 3},
		{name: "zero max retries means one attempt", maxRetries: 0, liveNodeCount: 5, wantBudget: 1},
		{name: "capped at liveNodeCount", maxRetries: 10, liveNodeCount: 2, wantBudget: 2},
		{name: "single live node always budget one", maxRetries: -1, liveNodeCount: 1, wantBudget: 1},
		{name: "zero live nodes means zero budget", maxRetries: -1, liveNodeCount: 0, wantBudget: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantBudget, retryBudget(tt.maxRetries, tt.liveNodeCount))
		})
	}
}

func TestNextNodeRoundRobin(t *testing.T) {
	p := New(Static, []string{"http://a", "http://b", "http://c"})

	first := p.NextNode(-1)
	require.Len(t, first, 3)

	// Round-robin cursor persists: the next call should start where the
	// previous one's consumption left off.
	second := p.NextNode(0)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].URI, second[0].URI, "cursor wraps back to the first node after a full round")
}

func TestNextNodeSkipsDeadNodes(t *testing.T) {
	p := New(Static, []string{"http://a", "http://b"})
	p.MarkDead("http://a")

	seq := p.NextNode(-1)
	require.Len(t, seq, 1)
	assert.Equal(t, "http://b", seq[0].URI)
}

func TestNextNodeRevivesOnceDeadUntilElapsesWithoutMarkAlive(t *testing.T) {
	p := New(Static, []string{"http://a", "http://b"}, WithDeadTimeouts(time.Millisecond, time.Hour))
	p.MarkDead("http://a")

	time.Sleep(5 * time.Millisecond)

	seq := p.NextNode(-1)
	var uris []string
	for _, n := range seq {
		uris = append(uris, n.URI)
	}
	assert.ElementsMatch(t, []string{"http://a", "http://b"}, uris,
		"a node's DeadUntil elapsing revives it for round-robin even though MarkAlive was never called")
}

func TestNextNodeLastResortRevival(t *testing.T) {
	p := New(Static, []string{"http://a", "http://b"}, WithDeadTimeouts(time.Millisecond, time.Hour))
	p.MarkDead("http://a")
	p.MarkDead("http://b")

	seq := p.NextNode(-1)
	require.Len(t, seq, 1, "all nodes dead: exactly one last-resort node is surfaced")
}

func TestMarkAliveResetsFailures(t *testing.T) {
	p := New(Static, []string{"http://a"})
	p.MarkDead("http://a")
	p.MarkAlive("http://a")

	nodes := p.snapshot()
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsAlive)
	assert.Equal(t, 0, nodes[0].FailedAttempts)
	assert.True(t, nodes[0].DeadUntil.IsZero())
}

func TestMarkDeadBackoffDoubles(t *testing.T) {
	p := New(Static, []string{"http://a"}, WithDeadTimeouts(time.Second, time.Hour))
	before := time.Now()
	p.MarkDead("http://a")
	p.MarkDead("http://a")

	nodes := p.snapshot()
	require.Len(t, nodes, 1)
	assert.Equal(t, 2, nodes[0].FailedAttempts)
	// Second failure backs off ~2x the base dead timeout.
	assert.True(t, nodes[0].DeadUntil.Sub(before) >= 2*time.Second)
}

func TestMarkDeadSingleNodeIsNoop(t *testing.T) {
	p := New(SingleNode, []string{"http://a"})
	p.MarkDead("http://a")

	nodes := p.snapshot()
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsAlive)
}

func TestSniffReplacesMembershipPreservingKnownNodes(t *testing.T) {
	p := New(Sniffing, []string{"http://a", "http://b"})
	p.MarkDead("http://b")

	p.Sniff([]string{"http://a", "http://c"})

	nodes := p.snapshot()
	require.Len(t, nodes, 2)
	byURI := map[string]*Node{}
	for _, n := range nodes {
		byURI[n.URI] = n
	}
	assert.True(t, byURI["http://a"].IsAlive)
	assert.True(t, byURI["http://c"].IsAlive, "new node starts alive")
	_, stillTracked := byURI["http://b"]
	assert.False(t, stillTracked, "dropped node is no longer tracked")
}

func TestSniffIsNoopForNonSniffablePools(t *testing.T) {
	p := New(Static, []string{"http://a"})
	p.Sniff([]string{"http://b"})

	assert.Equal(t, []string{"http://a"}, p.AliveURIs())
}

func TestStickyPoolPrefersLastSuccess(t *testing.T) {
	p := New(Sticky, []string{"http://a", "http://b", "http://c"})
	p.MarkAlive("http://b")

	seq := p.NextNode(0)
	require.Len(t, seq, 1)
	assert.Equal(t, "http://b", seq[0].URI)
}

func TestNextNodeEmptyPool(t *testing.T) {
	p := New(Static, nil)
	assert.Nil(t, p.NextNode(-1))
}
