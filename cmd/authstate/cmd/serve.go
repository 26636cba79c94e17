package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-auth-state/middleware/authstate"
	"github.com/goliatone/go-auth-state/signin"
	"github.com/goliatone/go-auth-state/signin/challengeapi"
	"github.com/spf13/cobra"
)

var (
	mirrorDB    string
	backupCodes []string
	devCode     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the auth state and challenge endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var cleanup closers
		defer func() { cleanup.Close() }()

		verifier, c, err := newVerifier(cfg, logger)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, c...)

		be, c, err := newBackend(ctx, cfg, mirrorDB, logger)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, c...)

		store, c, err := newChallengeStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, c...)

		resolver, err := newResolver(cfg, verifier, be, logger)
		if err != nil {
			return err
		}

		attempter, err := newAttempter(backupCodes, devCode)
		if err != nil {
			return err
		}

		handler := newRouter(routerDeps{
			resolver:    resolver,
			hydrate:     be != nil,
			store:       store,
			attempter:   attempter,
			maxAttempts: cfg.ChallengeMaxAttempts,
			logger:      logger,
		})

		server := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		logger.Info("listening", "addr", cfg.ListenAddr, "environment", cfg.Environment)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&mirrorDB, "mirror-db", "", "SQLite DSN of a local user/session mirror used for hydration")
	serveCmd.Flags().StringSliceVar(&backupCodes, "backup-code", nil, "Backup codes accepted by the challenge endpoints")
	serveCmd.Flags().StringVar(&devCode, "dev-code", "", "Code accepted for phone and totp factors (development only)")
}

type routerDeps struct {
	resolver    *auth.Resolver
	hydrate     bool
	store       signin.Store
	attempter   signin.Attempter
	maxAttempts int
	logger      *slog.Logger
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(authstate.NewHTTP(authstate.Config{
			Resolver:    deps.resolver,
			LoadUser:    deps.hydrate,
			LoadSession: deps.hydrate,
			Logger:      deps.logger,
		}))

		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			result, _ := auth.FromContext(r.Context())
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(result)
		})

		api := challengeapi.New(deps.store, dispatchPreparer(deps.logger), deps.attempter,
			challengeapi.WithMaxAttempts(deps.maxAttempts),
			challengeapi.WithLogger(deps.logger),
			challengeapi.WithHookFactory(func(req *http.Request) signin.EventHook {
				var subject string
				if data, ok := auth.AuthDataFromContext(req.Context()); ok {
					subject = data.UserID
				}
				return auth.SignInActivityHook(req.Context(), newActivitySink(deps.logger), subject, deps.logger)
			}),
		)
		r.Mount("/signin/challenges", api.Router())
	})

	return r
}

// dispatchPreparer only logs: code delivery belongs to the hosted API.
func dispatchPreparer(logger *slog.Logger) signin.Preparer {
	return signin.PreparerFunc(func(ctx context.Context, f signin.SecondFactor) error {
		logger.InfoContext(ctx, "second factor challenge dispatched", "factor_key", signin.Key(f))
		return nil
	})
}

func newAttempter(codes []string, dev string) (signin.Attempter, error) {
	hashes, err := signin.HashBackupCodes(codes, 0)
	if err != nil {
		return nil, fmt.Errorf("hashing backup codes: %w", err)
	}
	backup := signin.NewBackupCodeAttempter(hashes)

	return signin.AttempterFunc(func(ctx context.Context, f signin.SecondFactor, code string) (bool, error) {
		if f.Strategy() == signin.StrategyBackupCode {
			return backup.AttemptSecondFactor(ctx, f, code)
		}
		return dev != "" && code == dev, nil
	}), nil
}
