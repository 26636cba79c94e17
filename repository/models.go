package repository

import (
	"time"

	"github.com/goliatone/go-auth-state/resource"
	"github.com/uptrace/bun"
)

// UserModel is the Bun model for locally mirrored users.
type UserModel struct {
	bun.BaseModel `bun:"table:auth_users,alias:usr"`

	ID                    string                  `bun:"id,pk"`
	Username              *string                 `bun:"username"`
	FirstName             *string                 `bun:"first_name"`
	LastName              *string                 `bun:"last_name"`
	ProfileImageURL       *string                 `bun:"profile_image_url"`
	PrimaryEmailAddressID *string                 `bun:"primary_email_address_id"`
	PrimaryPhoneNumberID  *string                 `bun:"primary_phone_number_id"`
	EmailAddresses        []resource.EmailAddress `bun:"email_addresses,type:jsonb"`
	PhoneNumbers          []resource.PhoneNumber  `bun:"phone_numbers,type:jsonb"`
	TwoFactorEnabled      bool                    `bun:"two_factor_enabled,notnull"`
	TOTPEnabled           bool                    `bun:"totp_enabled,notnull"`
	BackupCodeEnabled     bool                    `bun:"backup_code_enabled,notnull"`
	LastSignInAt          *time.Time              `bun:"last_sign_in_at,nullzero"`
	CreatedAt             *time.Time              `bun:"created_at,nullzero"`
	UpdatedAt             *time.Time              `bun:"updated_at,nullzero"`
}

// SessionModel is the Bun model for locally mirrored sessions.
type SessionModel struct {
	bun.BaseModel `bun:"table:auth_sessions,alias:ses"`

	ID           string     `bun:"id,pk"`
	ClientID     string     `bun:"client_id"`
	UserID       string     `bun:"user_id,notnull"`
	Status       string     `bun:"status,notnull"`
	LastActiveAt *time.Time `bun:"last_active_at,nullzero"`
	ExpireAt     *time.Time `bun:"expire_at,nullzero"`
	AbandonAt    *time.Time `bun:"abandon_at,nullzero"`
	CreatedAt    *time.Time `bun:"created_at,nullzero"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero"`
}

func toUser(m *UserModel) *resource.User {
	return &resource.User{
		ID:                    m.ID,
		Username:              m.Username,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		ProfileImageURL:       m.ProfileImageURL,
		PrimaryEmailAddressID: m.PrimaryEmailAddressID,
		PrimaryPhoneNumberID:  m.PrimaryPhoneNumberID,
		EmailAddresses:        m.EmailAddresses,
		PhoneNumbers:          m.PhoneNumbers,
		TwoFactorEnabled:      m.TwoFactorEnabled,
		TOTPEnabled:           m.TOTPEnabled,
		BackupCodeEnabled:     m.BackupCodeEnabled,
		LastSignInAt:          utc(m.LastSignInAt),
		CreatedAt:             utc(m.CreatedAt),
		UpdatedAt:             utc(m.UpdatedAt),
	}
}

func fromUser(u *resource.User) *UserModel {
	return &UserModel{
		ID:                    u.ID,
		Username:              u.Username,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		ProfileImageURL:       u.ProfileImageURL,
		PrimaryEmailAddressID: u.PrimaryEmailAddressID,
		PrimaryPhoneNumberID:  u.PrimaryPhoneNumberID,
		EmailAddresses:        u.EmailAddresses,
		PhoneNumbers:          u.PhoneNumbers,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		TOTPEnabled:           u.TOTPEnabled,
		BackupCodeEnabled:     u.BackupCodeEnabled,
		LastSignInAt:          u.LastSignInAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func toSession(m *SessionModel) *resource.Session {
	return &resource.Session{
		ID:           m.ID,
		ClientID:     m.ClientID,
		UserID:       m.UserID,
		Status:       resource.SessionStatus(m.Status),
		LastActiveAt: utc(m.LastActiveAt),
		ExpireAt:     utc(m.ExpireAt),
		AbandonAt:    utc(m.AbandonAt),
		CreatedAt:    utc(m.CreatedAt),
		UpdatedAt:    utc(m.UpdatedAt),
	}
}

func fromSession(s *resource.Session) *SessionModel {
	return &SessionModel{
		ID:           s.ID,
		ClientID:     s.ClientID,
		UserID:       s.UserID,
		Status:       string(s.Status),
		LastActiveAt: s.LastActiveAt,
		ExpireAt:     s.ExpireAt,
		AbandonAt:    s.AbandonAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
