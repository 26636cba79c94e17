package cmd

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-auth-state"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

var inspectFlags struct {
	token         string
	cookie        string
	clientUAT     string
	host          string
	origin        string
	forwardedHost string
	loadUser      bool
	loadSession   bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Resolve a token offline and print the resulting auth state",
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

		verifier, cleanup, err := newVerifier(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup.Close()

		be, beCleanup, err := newBackend(ctx, cfg, "", logger)
		if err != nil {
			return err
		}
		defer beCleanup.Close()

		resolver, err := newResolver(cfg, verifier, be, logger)
		if err != nil {
			return err
		}

		result := resolver.Resolve(ctx, inspectBundle(), inspectResolveOptions()...)
		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(result))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.token, "token", "", "Bearer token, as sent in the Authorization header")
	f.StringVar(&inspectFlags.cookie, "cookie", "", "Session cookie token")
	f.StringVar(&inspectFlags.clientUAT, "client-uat", "", "Client UAT cookie value")
	f.StringVar(&inspectFlags.host, "host", "", "Host header")
	f.StringVar(&inspectFlags.origin, "origin", "", "Origin header")
	f.StringVar(&inspectFlags.forwardedHost, "forwarded-host", "", "X-Forwarded-Host header")
	f.BoolVar(&inspectFlags.loadUser, "load-user", false, "Hydrate the user record")
	f.BoolVar(&inspectFlags.loadSession, "load-session", false, "Hydrate the session record")
}

func inspectBundle() *auth.CredentialBundle {
	return &auth.CredentialBundle{
		HeaderToken:   inspectFlags.token,
		CookieToken:   inspectFlags.cookie,
		ClientUAT:     inspectFlags.clientUAT,
		Host:          inspectFlags.host,
		Origin:        inspectFlags.origin,
		ForwardedHost: inspectFlags.forwardedHost,
	}
}

func inspectResolveOptions() []auth.ResolveOption {
	var opts []auth.ResolveOption
	if inspectFlags.loadUser {
		opts = append(opts, auth.WithLoadUser())
	}
	if inspectFlags.loadSession {
		opts = append(opts, auth.WithLoadSession())
	}
	return opts
}
