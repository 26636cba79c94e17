package resource

import "time"

// SessionStatus mirrors the hosted session lifecycle.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusEnded     SessionStatus = "ended"
	SessionStatusExpired   SessionStatus = "expired"
	SessionStatusRemoved   SessionStatus = "removed"
	SessionStatusReplaced  SessionStatus = "replaced"
	SessionStatusRevoked   SessionStatus = "revoked"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Session is the hosted session record.
type Session struct {
	ID           string        `json:"id"`
	ClientID     string        `json:"client_id"`
	UserID       string        `json:"user_id"`
	Status       SessionStatus `json:"status"`
	LastActiveAt *time.Time    `json:"last_active_at,omitempty"`
	ExpireAt     *time.Time    `json:"expire_at,omitempty"`
	AbandonAt    *time.Time    `json:"abandon_at,omitempty"`
	CreatedAt    *time.Time    `json:"created_at"`
	UpdatedAt    *time.Time    `json:"updated_at"`
}

// IsActive reports whether the session is active and not past ExpireAt.
func (s *Session) IsActive(now time.Time) bool {
	if s == nil || s.Status != SessionStatusActive {
		return false
	}
	return s.ExpireAt == nil || now.Before(*s.ExpireAt)
}

// ParseSession projects a session payload.
func ParseSession(data []byte) (*Session, error) {
	res, err := parseObject(data, "session")
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:           res.Get("id").String(),
		ClientID:     res.Get("client_id").String(),
		UserID:       res.Get("user_id").String(),
		Status:       SessionStatus(res.Get("status").String()),
		LastActiveAt: unixEpochToTime(res.Get("last_active_at")),
		ExpireAt:     unixEpochToTime(res.Get("expire_at")),
		AbandonAt:    unixEpochToTime(res.Get("abandon_at")),
		CreatedAt:    unixEpochToTime(res.Get("created_at")),
		UpdatedAt:    unixEpochToTime(res.Get("updated_at")),
	}, nil
}
