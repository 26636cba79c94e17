package auth

import (
	"context"

	"github.com/goliatone/go-auth-state/signin"
)

// SignInActivityHook forwards challenge transitions that matter for auditing
// to sink. Selection and toggle events are dropped.
func SignInActivityHook(ctx context.Context, sink ActivitySink, subjectID string, logger Logger) signin.EventHook {
	sink = normalizeActivitySink(sink)
	if logger == nil {
		logger = defLogger()
	}

	return func(ev signin.Event) {
		eventType, ok := signInActivityType(ev.Type)
		if !ok {
			return
		}

		event := ActivityEvent{
			EventType: eventType,
			SubjectID: subjectID,
			Metadata: map[string]any{
				"challenge_id": ev.ChallengeID,
				"strategy":     string(ev.Strategy),
				"factor_key":   ev.FactorKey,
				"attempts":     ev.Attempts,
			},
			OccurredAt: ev.OccurredAt,
		}
		if ev.Type == signin.EventExhausted {
			event.Metadata["exhausted"] = true
		}

		if err := sink.Record(ctx, event); err != nil {
			logger.Warn("sign in activity sink error", "error", err)
		}
	}
}

func signInActivityType(t signin.EventType) (ActivityEventType, bool) {
	switch t {
	case signin.EventPrepared:
		return ActivityEventSignInPrepared, true
	case signin.EventVerified:
		return ActivityEventSignInVerified, true
	case signin.EventRejected, signin.EventExhausted:
		return ActivityEventSignInRejected, true
	default:
		return "", false
	}
}
