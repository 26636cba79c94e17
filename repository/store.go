// Package repository mirrors hosted users and sessions into a SQL database
// so hydration can run without calling the hosted API.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-auth-state/resource"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const textCodeRecordNotFound = "RECORD_NOT_FOUND"

// ErrRecordNotFound is returned when a user or session is not mirrored.
var ErrRecordNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeRecordNotFound).
	WithCode(goerrors.CodeNotFound)

var (
	userColumns = []string{
		"username", "first_name", "last_name", "profile_image_url",
		"primary_email_address_id", "primary_phone_number_id",
		"email_addresses", "phone_numbers",
		"two_factor_enabled", "totp_enabled", "backup_code_enabled",
		"last_sign_in_at", "created_at", "updated_at",
	}
	sessionColumns = []string{
		"client_id", "user_id", "status",
		"last_active_at", "expire_at", "abandon_at",
		"created_at", "updated_at",
	}
)

// Store reads and writes mirrored records. It satisfies auth.Backend.
type Store struct {
	db bun.IDB
}

// NewStore creates a store on db.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// CreateTables creates the tables if they do not exist.
func (s *Store) CreateTables(ctx context.Context) error {
	for _, model := range []any{(*UserModel)(nil), (*SessionModel)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*SessionModel)(nil)).
		Index("idx_auth_sessions_user_id").
		IfNotExists().
		Column("user_id").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create index")
	}

	return nil
}

// RunInTx runs f inside a transaction with a Store bound to it.
func (s *Store) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx *Store) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
			return f(ctx, NewStore(tx))
		})
	}
}

func (s *Store) GetUser(ctx context.Context, userID string) (*resource.User, error) {
	var model UserModel
	err := s.db.NewSelect().
		Model(&model).
		Where("?TableAlias.id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}
	return toUser(&model), nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*resource.Session, error) {
	var model SessionModel
	err := s.db.NewSelect().
		Model(&model).
		Where("?TableAlias.id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "session", sessionID)
	}
	return toSession(&model), nil
}

// ListSessions returns the sessions of a user, newest first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]*resource.Session, error) {
	var models []SessionModel
	err := s.db.NewSelect().
		Model(&models).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*resource.Session{}, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list sessions")
	}

	out := make([]*resource.Session, len(models))
	for i := range models {
		out[i] = toSession(&models[i])
	}
	return out, nil
}

// UpsertUser inserts or replaces a user record.
func (s *Store) UpsertUser(ctx context.Context, user *resource.User) error {
	if user == nil || user.ID == "" {
		return goerrors.New("user id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	_, err := s.db.NewInsert().
		Model(fromUser(user)).
		On("CONFLICT (id) DO UPDATE").
		Set(excluded(userColumns)).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upsert user")
	}
	return nil
}

// UpsertSession inserts or replaces a session record.
func (s *Store) UpsertSession(ctx context.Context, session *resource.Session) error {
	if session == nil || session.ID == "" {
		return goerrors.New("session id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	_, err := s.db.NewInsert().
		Model(fromSession(session)).
		On("CONFLICT (id) DO UPDATE").
		Set(excluded(sessionColumns)).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upsert session")
	}
	return nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.NewDelete().
		Model((*SessionModel)(nil)).
		Where("id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}
	return nil
}

func excluded(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	return strings.Join(parts, ", ")
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound.Clone().WithMetadata(map[string]any{
			"resource": kind,
			"id":       id,
		})
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load "+kind)
}
