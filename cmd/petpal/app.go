package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"petpal/internal/api"
	"petpal/internal/config"
	"petpal/internal/discovery"
	"petpal/internal/logger"
	"petpal/internal/notify"
	"petpal/internal/optimistic"
	"petpal/internal/output"
	"petpal/internal/session"
	"petpal/internal/tokenstore"
	"petpal/internal/views"
)

// app holds the collaborators shared by every command
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	printer  *output.Printer
	sessions *session.Manager
	notifier notify.Notifier
	toggler  *optimistic.Toggler
	gate     *views.Gate

	client *api.Client
}

type globalOptions struct {
	output   string
	logLevel string
	envFile  string
}

func newApp(ctx context.Context, opts *globalOptions, stdout io.Writer) (*app, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return nil, err
	}

	log := logger.Build(cfg.LogLevel, cfg.LogFormat)
	store := tokenstore.Open(cfg, log)
	sessions := session.NewManager(ctx, store, session.WithLogger(log))
	notifier := notify.NewLogNotifier(log.Named("notify"))

	return &app{
		cfg:      cfg,
		log:      log,
		printer:  output.New(stdout, format),
		sessions: sessions,
		notifier: notifier,
		toggler:  optimistic.New(sessions, notifier, log),
		gate:     views.NewGate(sessions),
	}, nil
}

// API returns the REST client, resolving the backend on first use
func (a *app) API(ctx context.Context) (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	baseURL, err := discovery.ResolveBaseURL(ctx, a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("resolve backend: %w", err)
	}
	a.client = api.NewClient(baseURL,
		api.WithLogger(a.log),
		api.WithTokenSource(a.sessions),
		api.WithUnauthorizedHandler(a.sessions.Logout),
	)
	return a.client, nil
}

func (a *app) boardDeps() views.BoardDeps {
	return views.BoardDeps{Sessions: a.sessions, Toggler: a.toggler, Notifier: a.notifier, Log: a.log}
}

func (a *app) close() {
	_ = a.log.Sync()
}

// cli wires the command tree to a lazily built app
type cli struct {
	opts globalOptions
	app  *app
}

func (c *cli) setup(cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), &c.opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.close()
	}
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := &cli{}
	defer c.teardown()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Client for the petpal adoption and community platform",
		Long: `petpal talks to the pet-adoption platform from the terminal.

Browse and favorite adoptable pets, like and comment on community posts,
and message pet owners. The session token is kept in the configured token
store between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&c.opts.output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.PersistentFlags().StringVar(&c.opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&c.opts.envFile, "env-file", "", "Load configuration from this .env file")

	cmd.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.petsCmd(),
		c.postsCmd(),
		c.commentsCmd(),
		c.chatCmd(),
		c.profileCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}
