package response

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/dreamware/estransport/internal/core"
)

// Input bundles everything Build needs about one completed attempt: the
// request that was sent, the exception or status code it got back, any
// deprecation warnings, and the raw response stream. It exists so
// Build's signature stays stable as fields are added.
type Input struct {
	Request    *core.RequestData
	Serializer core.Serializer
	Exception  error
	StatusCode *int
	Headers    http.Header
	Warnings   []string
	Body       io.ReadCloser

	// AuditTrail carries every audit event recorded by earlier attempts
	// in the same request (sniffs, pings, mark-dead/alive decisions), so
	// the final HttpDetails reflects the whole request, not just its
	// last attempt.
	AuditTrail []core.AuditEvent
}

// Build materialises a typed Response from in. The
// Kind determines T's expected shape; passing a Kind/T combination that
// don't match (e.g. KindString with T other than string) is a
// programmer error and returns a descriptive error rather than
// panicking.
func Build[T any](kind Kind, in Input) (*Response[T], error) {
	h := core.NewHttpDetails(in.Request.Method, in.Request.Node)
	h.AuditTrail = append(h.AuditTrail, in.AuditTrail...)
	h.HTTPStatusCode = in.StatusCode
	h.OriginalException = in.Exception
	h.RequestBodyBytes = in.Request.Body
	h.DeprecationWarnings = in.Warnings
	if in.StatusCode != nil {
		h.Success = core.IsSuccess(in.Request.Method, *in.StatusCode, in.Request.AllowedStatusCodes)
	}

	body := in.Body
	var bodyErr error
	if bufferingRequired(kind, in.Request.DisableDirectStreaming) && body != nil {
		body, h.ResponseBodyBytes, bodyErr = buffer(in.Request, body)
		if bodyErr != nil {
			closeQuietly(body)
			return nil, fmt.Errorf("buffering response body: %w", bodyErr)
		}
	}

	// Stream ownership: the builder closes the body on every exit path
	// except KindStream, where the caller takes over.
	if kind != KindStream {
		defer closeQuietly(body)
	}

	switch kind {
	case KindString:
		return buildSpecial[T](kind, h, stringBody(h.ResponseBodyBytes))
	case KindBytes:
		return buildSpecial[T](kind, h, h.ResponseBodyBytes)
	case KindVoid:
		if body != nil {
			_, _ = io.Copy(io.Discard, body)
		}
		var zero T
		return &Response[T]{Body: zero, ApiCall: h}, nil
	case KindStream:
		if body == nil {
			var zero T
			return &Response[T]{Body: zero, ApiCall: h}, nil
		}
		return buildSpecial[T](kind, h, body)
	default:
		return buildTyped[T](in, h, body)
	}
}

func buildSpecial[T any](kind Kind, h *core.HttpDetails, value any) (*Response[T], error) {
	typed, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("response kind %s: value of type %T does not match requested type %T", kind, value, typed)
	}
	return &Response[T]{Body: typed, ApiCall: h}, nil
}

func buildTyped[T any](in Input, h *core.HttpDetails, body io.ReadCloser) (*Response[T], error) {
	var out T
	if body == nil {
		return &Response[T]{Body: out, ApiCall: h}, nil
	}
	if in.StatusCode != nil && in.Request.SkipDeserializationForStatusCodes[*in.StatusCode] {
		return &Response[T]{Body: out, ApiCall: h}, nil
	}
	if in.Request.CustomConverter != nil {
		value, err := in.Request.CustomConverter(body)
		if err != nil {
			return nil, fmt.Errorf("custom converter: %w", err)
		}
		typed, ok := value.(T)
		if !ok {
			return nil, fmt.Errorf("custom converter returned %T, expected %T", value, typed)
		}
		return &Response[T]{Body: typed, ApiCall: h}, nil
	}
	if in.Serializer == nil {
		return nil, fmt.Errorf("response: no serializer configured for typed response")
	}
	if err := in.Serializer.Deserialize(body, &out); err != nil {
		return nil, fmt.Errorf("deserializing response body: %w", err)
	}
	return &Response[T]{Body: out, ApiCall: h}, nil
}

// buffer reads body fully into a caller-supplied (or default) memory
// buffer and returns a fresh, replayable ReadCloser over the buffered
// bytes alongside the raw bytes themselves. It always closes the
// incoming body — the caller only ever sees the returned NopCloser from
// here on, so this is the only chance to release the real connection.
func buffer(req *core.RequestData, body io.ReadCloser) (io.ReadCloser, []byte, error) {
	defer closeQuietly(body)

	factory := req.MemoryStreamFactory
	if factory == nil {
		factory = core.DefaultMemoryStreamFactory
	}
	buf := factory()
	buf.Reset()
	if _, err := io.Copy(buf, body); err != nil {
		return nil, nil, err
	}
	raw := append([]byte(nil), buf.Bytes()...)
	return io.NopCloser(bytes.NewReader(raw)), raw, nil
}

func stringBody(b []byte) string {
	return string(b)
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	_ = c.Close()
}
