package core

import "time"

// HttpDetails is the "ApiCall" attached to every response: full audit
// metadata about how the request was actually carried out, independent
// of whether the caller's typed body could be produced.
type HttpDetails struct {
	Success             bool
	HTTPStatusCode      *int
	OriginalException   error
	RequestBodyBytes    []byte
	ResponseBodyBytes   []byte
	URI                 string
	Method              string
	DeprecationWarnings []string
	AuditTrail          []AuditEvent
}

// NewHttpDetails allocates an HttpDetails with a non-nil, empty audit
// trail. The pipeline builds one at every terminal failure and
// ResponseBuilder builds one per response, so every path that ends a
// request, including a failure before any node is selected, hands back
// a non-nil HttpDetails.
func NewHttpDetails(method, uri string) *HttpDetails {
	return &HttpDetails{
		Method:     method,
		URI:        uri,
		AuditTrail: NewAuditTrail(),
	}
}

// Append records an audit event with the current time.
func (h *HttpDetails) Append(kind AuditKind, nodeURI string, err error) {
	h.AuditTrail = append(h.AuditTrail, AuditEvent{
		Kind:      kind,
		NodeURI:   nodeURI,
		Timestamp: time.Now(),
		Err:       err,
	})
}

// IsSuccess reports whether statusCode counts as success for method:
//
//	success ⇔ status ∈ [200,299] ∨ (method = HEAD ∧ status = 404)
//	        ∨ status ∈ allowedStatusCodes ∨ -1 ∈ allowedStatusCodes
func IsSuccess(method string, statusCode int, allowed map[int]bool) bool {
	if statusCode >= 200 && statusCode <= 299 {
		return true
	}
	if method == "HEAD" && statusCode == 404 {
		return true
	}
	if allowed[-1] {
		return true
	}
	return allowed[statusCode]
}

// connectionLevelStatusCodes are HTTP statuses that arrive with a real
// response but still signal a broken upstream rather than a considered
// answer from the application: Bad Gateway, Service Unavailable, and
// Gateway Timeout. The pipeline treats these like a genuine connection
// failure (mark-dead, sniff-on-failure, advance) instead of surfacing
// them as a known application-level error.
var connectionLevelStatusCodes = map[int]bool{
	502: true,
	503: true,
	504: true,
}

// authenticationFailureStatusCode is the HTTP status a node uses to
// signal bad credentials — a condition no amount of failover fixes,
// since every node in the pool was handed the same credentials.
const authenticationFailureStatusCode = 401

// IsAuthenticationFailure reports whether statusCode is the
// non-recoverable bad-credentials status. This overrides
// AllowedStatusCodes: 401 always aborts the request rather than being
// offered to the caller as a known application-level error.
func IsAuthenticationFailure(statusCode int) bool {
	return statusCode == authenticationFailureStatusCode
}

// SuccessOrKnownError reports the signal used for retry decisions: true
// for success or for any well-formed HTTP error response the caller
// should be handed back as-is, false when the attempt never got a
// status code at all or landed on one of connectionLevelStatusCodes. A
// genuine connection failure has no status code at all (statusCode ==
// nil upstream); callers must check that separately before calling
// this.
func SuccessOrKnownError(success bool, statusCode int) bool {
	if success {
		return true
	}
	if connectionLevelStatusCodes[statusCode] {
		return false
	}
	return statusCode >= 400 && statusCode <= 599
}
