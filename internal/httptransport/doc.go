// Package httptransport provides the default core.HTTPTransport and
// core.Serializer implementations: a thin net/http.Client wrapper and
// an encoding/json codec.
//
// One method-agnostic Call serves every method/path/body. It classifies
// connect and timeout failures as recoverable core.PipelineErrors and
// TLS certificate failures as non-recoverable ones.
package httptransport
