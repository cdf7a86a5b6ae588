// Package pinger implements the optional cheap liveness probe performed
// against a node before the real call: a minimal HTTP request with its
// own short timeout, reporting only success/failure rather than any
// payload.
package pinger
