package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventStateResolved   ActivityEventType = "auth.state.resolved"
	ActivityEventHydrationFailed ActivityEventType = "auth.hydration.failed"
	ActivityEventSignInPrepared  ActivityEventType = "auth.signin.prepared"
	ActivityEventSignInVerified  ActivityEventType = "auth.signin.verified"
	ActivityEventSignInRejected  ActivityEventType = "auth.signin.rejected"
)

// ActivityEvent captures audit-friendly information about a resolution.
type ActivityEvent struct {
	EventType  ActivityEventType
	Status     AuthStatus
	Reason     Reason
	SubjectID  string
	SessionID  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best effort: errors are logged and never change a resolution.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
