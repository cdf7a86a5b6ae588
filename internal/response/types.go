package response

import "github.com/dreamware/estransport/internal/core"

// Kind selects which of the closed set of response shapes Build
// materialises, in place of dynamic dispatch on runtime type identity,
// as an explicit, caller-chosen tag.
type Kind int

const (
	// KindTyped deserializes the body through the configured Serializer
	// (or a CustomConverter), into whatever T the caller asked for.
	KindTyped Kind = iota
	// KindString decodes the buffered body as UTF-8 text. T must be string.
	KindString
	// KindBytes returns the buffered body verbatim. T must be []byte.
	KindBytes
	// KindVoid drains and discards the body. T is typically struct{}.
	KindVoid
	// KindStream hands the body to the caller, who owns closing it. The
	// body is the raw, unbuffered stream unless DisableDirectStreaming is
	// set, in which case it is a replayable in-memory copy. T must be
	// io.ReadCloser.
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindTyped:
		return "Typed"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindVoid:
		return "Void"
	case KindStream:
		return "Stream"
	default:
		return "Unknown"
	}
}

// bufferingRequired reports whether Build must read the whole body into
// memory before proceeding.
func bufferingRequired(kind Kind, disableDirectStreaming bool) bool {
	return disableDirectStreaming || kind == KindString || kind == KindBytes
}

// Response is the typed result handed back to callers, pairing the
// deserialized body with the full audit metadata of how the call was
// actually carried out.
type Response[T any] struct {
	Body    T
	ApiCall *core.HttpDetails
}
