package core

import (
	"bytes"
	"io"
	"time"
)

// RequestData is the immutable-after-construction description of one
// logical call. The Node field is a mutable slot: the pipeline fills it
// in with the URI of whichever node the current attempt targets.
type RequestData struct {
	Method string
	Path   string
	Body   []byte

	// AllowedStatusCodes are status codes that count as success beyond
	// the normal [200,299] range and the HEAD-404 special case.
	// A set containing -1 means "any status code is allowed".
	AllowedStatusCodes map[int]bool

	// SkipDeserializationForStatusCodes lists status codes whose body
	// should not be run through the serializer even when the call
	// otherwise succeeds.
	SkipDeserializationForStatusCodes map[int]bool

	// CustomConverter, if set, is used instead of the configured
	// Serializer to turn a response body into a typed value.
	CustomConverter func(io.Reader) (any, error)

	// Node is filled in by the pipeline with the URI of the node the
	// current attempt is targeting.
	Node string

	// MemoryStreamFactory produces the buffer ResponseBuilder uses when
	// it needs to buffer a body into memory, allowing callers to pool
	// buffers instead of allocating one per call.
	MemoryStreamFactory func() *bytes.Buffer

	RequestTimeout time.Duration
	PingTimeout    time.Duration
	SniffTimeout   time.Duration

	// MaxRetries overrides the retry budget; -1 means "use the pool's
	// default of liveNodeCount-1".
	MaxRetries int

	// DisableDirectStreaming forces ResponseBuilder to buffer the body
	// into memory even for types that would otherwise stream.
	DisableDirectStreaming bool
}

// DefaultMemoryStreamFactory allocates a fresh, empty buffer. It is used
// when RequestData.MemoryStreamFactory is nil.
func DefaultMemoryStreamFactory() *bytes.Buffer {
	return new(bytes.Buffer)
}
