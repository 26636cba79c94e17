package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/activitymap"
	"github.com/goliatone/go-auth-state/backend"
	"github.com/goliatone/go-auth-state/config"
	"github.com/goliatone/go-auth-state/repository"
	"github.com/goliatone/go-auth-state/signin"
	"github.com/goliatone/go-auth-state/signin/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// closers collects cleanup funcs in reverse order of creation.
type closers []func()

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func newVerifier(cfg *config.Config, logger *slog.Logger) (auth.TokenVerifier, closers, error) {
	opts := append(auth.ConfigVerifierOptions(cfg), auth.WithVerifierLogger(logger))

	var (
		verifiers []auth.TokenVerifier
		cleanup   closers
	)

	if cfg.JWKSURL != "" {
		v, err := auth.NewJWKSVerifier(cfg.JWKSURL, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating jwks verifier: %w", err)
		}
		verifiers = append(verifiers, v)
		cleanup = append(cleanup, v.Close)
	}

	if cfg.HMACSecret != "" {
		verifiers = append(verifiers, auth.NewHMACVerifier([]byte(cfg.HMACSecret), opts...))
	}

	if len(verifiers) == 1 {
		return verifiers[0], cleanup, nil
	}
	return auth.NewMultiVerifier(verifiers...), cleanup, nil
}

// newBackend prefers a local mirror database over the hosted API. It
// returns nil when neither is configured.
func newBackend(ctx context.Context, cfg *config.Config, dbPath string, logger *slog.Logger) (auth.Backend, closers, error) {
	if dbPath != "" {
		sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening mirror database: %w", err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())

		store := repository.NewStore(db)
		if err := store.CreateTables(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("hydrating from mirror database", "path", dbPath)
		return store, closers{func() { _ = db.Close() }}, nil
	}

	if cfg.HydrationEnabled() {
		logger.Info("hydrating from backend api", "url", cfg.BackendURL)
		return backend.NewClient(cfg.SecretKey,
			backend.WithBaseURL(cfg.BackendURL),
			backend.WithLogger(logger),
		), nil, nil
	}

	return nil, nil, nil
}

func newChallengeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (signin.Store, closers, error) {
	if cfg.RedisAddr == "" {
		logger.Info("challenge sessions kept in memory")
		return signin.NewMemoryStore(), nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info("challenge sessions kept in redis", "addr", cfg.RedisAddr)
	return redisstore.New(client, redisstore.WithTTL(cfg.ChallengeTTL)), closers{func() { _ = client.Close() }}, nil
}

func newActivitySink(logger *slog.Logger) auth.ActivitySink {
	return activitymap.Sink(func(ctx context.Context, n activitymap.Normalized) error {
		logger.DebugContext(ctx, "auth activity",
			"verb", n.Verb,
			"actor_id", n.ActorID,
			"object_id", n.ObjectID,
			"metadata", n.Metadata,
		)
		return nil
	})
}

func newResolver(cfg *config.Config, verifier auth.TokenVerifier, be auth.Backend, logger *slog.Logger) (*auth.Resolver, error) {
	return auth.NewResolverFromConfig(cfg, verifier, be,
		auth.WithResolverLogger(logger),
		auth.WithResolverActivitySink(newActivitySink(logger)),
	)
}
