// Package config loads a ClusterConfig bootstrap fixture — seed node
// URIs, pool kind, and timeouts — from YAML. It is deliberately not a
// full connection-string-parsing DSL; it is a thin, internal seed-list
// loader whose only behavior beyond parsing is resolving the pool kind
// name.
package config
