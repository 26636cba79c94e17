package signin

import (
	"encoding/json"
	"slices"
	"time"
)

// Snapshot is an immutable copy of a ChallengeSession.
type Snapshot struct {
	ID              string
	State           State
	Factors         []SecondFactor
	Current         SecondFactor
	LastPreparedKey string
	ShowingAll      bool
	Attempts        int
	MaxAttempts     int
	CreatedAt       time.Time
}

// Snapshot copies the session state.
func (s *ChallengeSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:              s.id,
		State:           s.stateLocked(),
		Factors:         slices.Clone(s.factors),
		Current:         s.current,
		LastPreparedKey: s.lastPreparedKey,
		ShowingAll:      s.showingAll,
		Attempts:        s.attempts,
		MaxAttempts:     s.maxAttempts,
		CreatedAt:       s.createdAt,
	}
}

// Restore rebuilds a session from a snapshot. Options are applied after the
// snapshot, so hooks and clocks can be reattached.
func Restore(snap Snapshot, opts ...Option) *ChallengeSession {
	s := &ChallengeSession{
		id:              snap.ID,
		factors:         compactFactors(snap.Factors),
		current:         snap.Current,
		lastPreparedKey: snap.LastPreparedKey,
		showingAll:      snap.ShowingAll,
		started:         snap.State != StateLoading && snap.State != "",
		attempts:        snap.Attempts,
		maxAttempts:     snap.MaxAttempts,
		createdAt:       snap.CreatedAt,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FactorRecord is the serialized form of a SecondFactor.
type FactorRecord struct {
	Strategy       string `json:"strategy"`
	PhoneNumberID  string `json:"phone_number_id,omitempty"`
	SafeIdentifier string `json:"safe_identifier,omitempty"`
	Default        bool   `json:"default,omitempty"`
	Raw            string `json:"raw,omitempty"`
}

type recordVisitor struct{}

func (recordVisitor) PhoneCode(f PhoneCodeFactor) FactorRecord {
	return FactorRecord{
		Strategy:       string(StrategyPhoneCode),
		PhoneNumberID:  f.PhoneNumberID,
		SafeIdentifier: f.SafeIdentifier,
		Default:        f.Default,
	}
}

func (recordVisitor) TOTP(TOTPFactor) FactorRecord {
	return FactorRecord{Strategy: string(StrategyTOTP)}
}

func (recordVisitor) BackupCode(BackupCodeFactor) FactorRecord {
	return FactorRecord{Strategy: string(StrategyBackupCode)}
}

func (recordVisitor) Unknown(f UnknownFactor) FactorRecord {
	return FactorRecord{Strategy: f.Name, Raw: f.Raw}
}

// RecordOf converts a factor to its serialized form.
func RecordOf(f SecondFactor) FactorRecord {
	return Visit[FactorRecord](f, recordVisitor{})
}

// Factor converts a record back to a SecondFactor.
func (r FactorRecord) Factor() SecondFactor {
	switch Strategy(r.Strategy) {
	case StrategyPhoneCode:
		return PhoneCodeFactor{
			PhoneNumberID:  r.PhoneNumberID,
			SafeIdentifier: r.SafeIdentifier,
			Default:        r.Default,
		}
	case StrategyTOTP:
		return TOTPFactor{}
	case StrategyBackupCode:
		return BackupCodeFactor{}
	default:
		return UnknownFactor{Name: r.Strategy, Raw: r.Raw}
	}
}

type snapshotJSON struct {
	ID              string         `json:"id"`
	State           State          `json:"state"`
	Factors         []FactorRecord `json:"factors"`
	Current         *FactorRecord  `json:"current,omitempty"`
	LastPreparedKey string         `json:"last_prepared_key,omitempty"`
	ShowingAll      bool           `json:"showing_all"`
	Attempts        int            `json:"attempts"`
	MaxAttempts     int            `json:"max_attempts"`
	CreatedAt       time.Time      `json:"created_at"`
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		ID:              s.ID,
		State:           s.State,
		Factors:         make([]FactorRecord, 0, len(s.Factors)),
		LastPreparedKey: s.LastPreparedKey,
		ShowingAll:      s.ShowingAll,
		Attempts:        s.Attempts,
		MaxAttempts:     s.MaxAttempts,
		CreatedAt:       s.CreatedAt,
	}
	for _, f := range s.Factors {
		out.Factors = append(out.Factors, RecordOf(f))
	}
	if s.Current != nil {
		rec := RecordOf(s.Current)
		out.Current = &rec
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*s = Snapshot{
		ID:              in.ID,
		State:           in.State,
		Factors:         make([]SecondFactor, 0, len(in.Factors)),
		LastPreparedKey: in.LastPreparedKey,
		ShowingAll:      in.ShowingAll,
		Attempts:        in.Attempts,
		MaxAttempts:     in.MaxAttempts,
		CreatedAt:       in.CreatedAt,
	}
	for _, rec := range in.Factors {
		s.Factors = append(s.Factors, rec.Factor())
	}
	if in.Current != nil {
		s.Current = in.Current.Factor()
	}
	return nil
}
