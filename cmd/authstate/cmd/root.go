package cmd

import (
	"os"

	"github.com/goliatone/go-auth-state/config"
	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "authstate",
	Short: "Resolve hosted session credentials into an auth state",
	Long: `authstate classifies requests as signed in, signed out, interstitial or
unknown from their session cookie or bearer token, and serves second factor
challenge sessions for sign ins that need one.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to load before reading the environment")
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFiles...)
}
