package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "authcode",
		Short: "Walk through the OAuth 2.0 authorization code grant",
		Long: `authcode builds an authorization URI, waits for the redirected URI,
checks the anti-CSRF state and exchanges the code at the token endpoint.

Settings come from environment variables (CLIENT_ID, REDIRECT_URI, SCOPE,
AUTHORIZATION_URI, TOKEN_URI, PKCE, PKCE_METHOD, PKCE_VERIFIER_LENGTH,
IO_TIMEOUT, LOG_LEVEL), then the --config YAML file. Missing endpoint and
client settings are prompted for.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noBrowser, _ := cmd.Flags().GetBool("no-browser")
			listen, _ := cmd.Flags().GetBool("listen")
			return run(configFile, func(c config.Config) error {
				return authorize(cmd.Context(), c, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), !noBrowser, listen)
			})
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	root.Flags().Bool("no-browser", false, "print the authorization URI without opening a browser")
	root.Flags().Bool("listen", false, "receive the redirect on the loopback REDIRECT_URI instead of reading it from stdin")

	root.AddCommand(&cobra.Command{
		Use:          "refresh",
		Short:        "Exchange a refresh token for a new access token",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(configFile, func(c config.Config) error {
				return refreshToken(cmd.Context(), c, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
			})
		},
	})
	return root
}

// run loads the configuration, sets up logging and calls fn, turning a panic into an error.
func run(configFile string, fn func(config.Config) error) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New(configFile)
	if err != nil {
		return err
	}
	setupLogging(c.GetLogLevel())
	displayAppname(c.GetAppName())
	return fn(c)
}

func setupLogging(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
