// Package redisstore persists signin challenge sessions in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-auth-state/signin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "authstate:challenge"
	defaultTTL    = 10 * time.Minute
)

// Store is a signin.Store backed by a Redis client. Each session is one
// JSON value that expires after the configured TTL.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ signin.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets the session lifetime. Every Save refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a Store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

// Save implements signin.Store.
func (s *Store) Save(ctx context.Context, snap signin.Snapshot) error {
	if snap.ID == "" {
		return goerrors.New("challenge snapshot has no id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "encode challenge snapshot")
	}

	if err := s.client.Set(ctx, s.key(snap.ID), payload, s.ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "save challenge snapshot")
	}
	return nil
}

// Load implements signin.Store. Missing and expired sessions return
// signin.ErrChallengeNotFound.
func (s *Store) Load(ctx context.Context, id string) (signin.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return signin.Snapshot{}, signin.ErrChallengeNotFound
	}
	if err != nil {
		return signin.Snapshot{}, goerrors.Wrap(err, goerrors.CategoryExternal, "load challenge snapshot")
	}

	var snap signin.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return signin.Snapshot{}, goerrors.Wrap(err, goerrors.CategoryInternal, "decode challenge snapshot")
	}
	return snap, nil
}

// Delete implements signin.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "delete challenge snapshot")
	}
	return nil
}
