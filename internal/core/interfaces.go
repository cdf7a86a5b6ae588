package core

import (
	"context"
	"io"
	"net/http"
)

// CallResult is what an HTTPTransport returns for one attempt against one
// node. A genuine connection-level failure is reported through Call's
// error instead, with no CallResult; StatusCode is nil only if a
// transport returns a result that carries no HTTP status.
type CallResult struct {
	StatusCode *int
	Headers    http.Header
	Body       io.ReadCloser
	Warnings   []string
}

// HTTPTransport performs the socket-level exchange for one attempt. It
// must not return an error for HTTP status codes — those are reported
// via CallResult.StatusCode and handled by the caller's success rules.
// It must return a *PipelineError for transport-level failures (connect,
// TLS, timeout), with Recoverable set appropriately.
type HTTPTransport interface {
	Call(ctx context.Context, req *RequestData) (*CallResult, error)
}

// Serializer is the request/response body codec consumed by
// ResponseBuilder. The core treats it as an opaque configuration object;
// the default implementation is JSON (internal/httptransport).
type Serializer interface {
	Deserialize(r io.Reader, out any) error
	Serialize(body any) ([]byte, error)
}
