package signin

import "time"

// EventType names a challenge session transition.
type EventType string

const (
	EventStarted           EventType = "started"
	EventFactorSelected    EventType = "factor_selected"
	EventStrategiesToggled EventType = "strategies_toggled"
	EventPrepared          EventType = "prepared"
	EventVerified          EventType = "verified"
	EventRejected          EventType = "rejected"
	EventExhausted         EventType = "exhausted"
)

// Event describes a completed transition.
type Event struct {
	Type        EventType
	ChallengeID string
	State       State
	Strategy    Strategy
	FactorKey   string
	Attempts    int
	OccurredAt  time.Time
}

// EventHook observes transitions. Hooks run after the session lock is
// released and must not block.
type EventHook func(Event)
