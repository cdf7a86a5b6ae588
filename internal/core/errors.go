package core

import "fmt"

// PipelineErrorKind classifies a PipelineError so the outer loop can
// branch on recoverability explicitly instead of relying on exception
// type identity or string matching.
type PipelineErrorKind int

const (
	BadResponse PipelineErrorKind = iota
	BadAuthentication
	PingFailure
	SniffFailure
	CouldNotStartSniffOnStartup
	MaxTimeoutReached
	MaxRetriesReachedError
	NoNodesAttemptedError
	Unexpected
)

func (k PipelineErrorKind) String() string {
	switch k {
	case BadResponse:
		return "BadResponse"
	case BadAuthentication:
		return "BadAuthentication"
	case PingFailure:
		return "PingFailure"
	case SniffFailure:
		return "SniffFailure"
	case CouldNotStartSniffOnStartup:
		return "CouldNotStartSniffOnStartup"
	case MaxTimeoutReached:
		return "MaxTimeoutReached"
	case MaxRetriesReachedError:
		return "MaxRetriesReached"
	case NoNodesAttemptedError:
		return "NoNodesAttempted"
	case Unexpected:
		return "Unexpected"
	default:
		return "Unknown"
	}
}

// recoverableKinds are the PipelineErrorKinds that mean "try another
// node". Every other kind terminates the outer loop immediately.
var recoverableKinds = map[PipelineErrorKind]bool{
	BadResponse:   true,
	PingFailure:   true,
	SniffFailure:  true,
}

// PipelineError is the result type for every failure the pipeline can
// produce. Recoverable means the outer Transport loop should try
// another node; non-recoverable means it should stop immediately.
type PipelineError struct {
	Kind        PipelineErrorKind
	Recoverable bool
	Cause       error
	// Prior accumulates every PipelineError seen earlier in the same
	// request, so the terminal error carries the full trail.
	Prior []*PipelineError
	// Details carries the HttpDetails accumulated before the request
	// terminated without ever reaching ResponseBuilder, so a caller that
	// only gets an error back can still inspect the audit trail (which
	// nodes were tried, in what order, and why each one failed).
	Details *HttpDetails
}

// NewPipelineError builds a PipelineError with the kind's default
// recoverability. Use NewNonRecoverablePipelineError to force a
// failure terminal even when its kind (e.g. BadResponse, SniffFailure)
// is recoverable by default.
func NewPipelineError(kind PipelineErrorKind, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Recoverable: recoverableKinds[kind], Cause: cause}
}

// NewNonRecoverablePipelineError builds a PipelineError forced
// non-recoverable regardless of its kind's default.
func NewNonRecoverablePipelineError(kind PipelineErrorKind, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Recoverable: false, Cause: cause}
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithPrior returns a copy of e with prior appended to its Prior list,
// used by the pipeline to accumulate every recoverable failure seen
// before the terminal one.
func (e *PipelineError) WithPrior(prior ...*PipelineError) *PipelineError {
	next := *e
	next.Prior = append(append([]*PipelineError{}, e.Prior...), prior...)
	return &next
}
