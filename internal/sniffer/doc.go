// Package sniffer refreshes a node pool's membership from the cluster.
// It implements the three sniff reasons — Startup,
// Stale, and Failure — and the one-shot cross-request barrier that lets
// exactly one caller perform the startup sniff while concurrent callers
// wait on the same barrier.
//
// The out-of-band membership request is routed through the same
// HTTPTransport every other call in this module uses, rather than
// standing up a second transport stack just for sniffing.
package sniffer
