package core

import "time"

// AuditKind identifies the reason an AuditEvent was recorded. The set is
// closed and covers every retry, sniff, and ping decision the pipeline
// makes on the way to a terminal result.
type AuditKind string

const (
	SniffOnStartup         AuditKind = "SniffOnStartup"
	SniffSuccess           AuditKind = "SniffSuccess"
	AuditSniffFailure      AuditKind = "SniffFailure"
	PingSuccess            AuditKind = "PingSuccess"
	AuditPingFailure       AuditKind = "PingFailure"
	HealthyResponse        AuditKind = "HealthyResponse"
	AuditBadResponse       AuditKind = "BadResponse"
	MaxRetriesReached      AuditKind = "MaxRetriesReached"
	AuditMaxTimeoutReached AuditKind = "MaxTimeoutReached"
	NoNodesAttempted       AuditKind = "NoNodesAttempted"
	CancellationRequested  AuditKind = "CancellationRequested"
	MarkAlive              AuditKind = "MarkAlive"
	MarkDead               AuditKind = "MarkDead"
)

// AuditEvent is one entry in a request's audit trail. Events are
// append-only and totally ordered by Timestamp within one request.
type AuditEvent struct {
	Kind      AuditKind
	NodeURI   string
	Timestamp time.Time
	Err       error
}

// NewAuditTrail returns an empty, non-nil audit trail ready to be
// appended to. Starting from a non-nil empty slice rather than a nil
// one keeps every terminal HttpDetails carrying a trail, even on the
// earliest possible failure path.
func NewAuditTrail() []AuditEvent {
	return make([]AuditEvent, 0, 4)
}
