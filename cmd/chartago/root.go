package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/internal/logging"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// app carries what every command needs. Config, logger and client are built
// in the root command's PersistentPreRunE.
type app struct {
	out    io.Writer
	in     *os.File
	cfg    *config.ClientConfig
	logger *logging.Logger
	client *chartago.Client

	baseURL     string
	sessionFile string
	verbose     bool
}

// Execute runs the CLI and returns the process exit code
func Execute(args []string) int {
	a := &app{out: os.Stdout, in: os.Stdin}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		printError(os.Stderr, chartago.UserMessage(err))
		if a.logger != nil {
			a.logger.Sugar().Debugw("Command failed", "error", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chartago",
		Short: "chartagoPM from the terminal",
		Long: `chartago - manage chartagoPM projects, tasks and teams from the terminal.

The session is kept in a file between runs. An expired access token is
refreshed silently; when the refresh fails you are asked to sign in again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL (overrides CHARTAGO_BASE_URL)")
	root.PersistentFlags().StringVar(&a.sessionFile, "session-file", "", "session file (overrides CHARTAGO_SESSION_FILE)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProjectsCmd(a),
		newTasksCmd(a),
		newTeamsCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.sessionFile != "" {
		cfg.SessionFile = a.sessionFile
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	if cfg.LogDev {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.LogLevel
	if a.logger, err = logging.New(logCfg); err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.client, err = chartago.NewClient(cfg.ClientOptions(a.logger.Client()))
	return err
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// signedIn makes sure there is a session, signing in with CHARTAGO_EMAIL and
// CHARTAGO_PASSWORD when the session file holds none
func (a *app) signedIn(ctx context.Context) error {
	if a.client.Session().Authenticated() {
		return nil
	}
	if a.cfg.Email == "" || a.cfg.Password == "" {
		return chartago.ErrNotAuthenticated
	}
	_, err := a.client.Auth.Login(ctx, a.cfg.Email, a.cfg.Password)
	return err
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}
