// Package response implements the ResponseBuilder state machine:
// materialising a typed Response from a raw status code, exception,
// warnings, and byte stream.
//
// # Tagged variant, not dynamic dispatch
//
// Special-case handling for string bodies, raw bytes, void calls, and
// raw streams could be keyed on runtime type identity, but this package
// instead models it as a closed tagged variant: callers pick a Kind up
// front — String, Bytes, Void, Stream, or Typed — and Build dispatches on
// that tag instead of reflecting over T.
//
// # Stream ownership
//
// The builder closes the raw body on every exit path except Stream,
// where ownership transfers to the caller — the builder never closes a
// stream it has handed out for the caller to read at their own pace.
package response
