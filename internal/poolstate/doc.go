// Package poolstate implements the client-side node pool: the set of cluster
// nodes a transport considers, their alive/dead bookkeeping, and the
// round-robin selection strategy used to hand out nodes to a request.
//
// # Overview
//
// A pool is a mutable snapshot of cluster membership. Nodes are never
// removed individually — a node is marked dead (with a timed revival) or
// the whole snapshot is replaced wholesale by a sniff. Per-node state is
// mutated under one mutex, and reads are served from point-in-time
// copies.
//
// # Pool kinds
//
// Four kinds are supported, in increasing order of sophistication:
//
//   - SingleNode: exactly one node, never sniffed, never marked dead (there
//     is nowhere else to fail over to).
//   - Static: a fixed set of nodes, round-robinned, never sniffed.
//   - Sniffing: a set of nodes that can be wholesale replaced by a sniff,
//     round-robinned.
//   - Sticky: sniffable like Sniffing, but prefers repeating the last node
//     that succeeded before falling back to round-robin, to avoid needless
//     connection churn for chatty callers.
//
// # Concurrency
//
// Pool is safe for concurrent use by multiple goroutines. All mutation
// (MarkAlive, MarkDead, Sniff) takes an exclusive lock only for the
// pointer-swap or counter-bump itself, never across network I/O — the
// network calls that decide whether to mark a node dead happen entirely
// outside the pool.
package poolstate
