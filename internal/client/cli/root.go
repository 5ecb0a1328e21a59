package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/config"
	"github.com/dmitrijs2005/codemap/internal/client/services"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags and the App built from them.
type rootOptions struct {
	configFile string
	dotEnv     string
	baseURL    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	storage    string
	logLevel   string
	verbose    bool
	noAuth     bool

	streams Streams
	app     *App
}

// loadConfig layers the command-line flags that were actually set over
// defaults, the config file and the environment.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Sources{File: o.configFile, DotEnv: o.dotEnv})
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if f.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if f.Changed("retries") {
		cfg.MaxRetries = o.retries
	}
	if f.Changed("retry-delay") {
		cfg.RetryBaseDelay = o.retryDelay
	}
	if f.Changed("storage") {
		cfg.Storage = o.storage
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if f.Changed("verbose") {
		cfg.LoggingEnabled = o.verbose
		if o.verbose && !f.Changed("log-level") {
			cfg.LogLevel = "info"
		}
	}
	if f.Changed("no-auth") {
		cfg.AuthEnabled = !o.noAuth
	}
	return cfg, nil
}

func newRootCommand(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "codemap",
		Short:         "Clinical coding API client",
		Long:          "codemap: command-line access to the clinical coding API with automatic token refresh and retries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			app, err := NewApp(cmd.Context(), cfg, o.streams)
			if err != nil {
				return err
			}
			o.app = app
			return nil
		},
	}
	root.SetIn(o.streams.In)
	root.SetOut(o.streams.Out)
	root.SetErr(o.streams.Err)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configFile, "config", "c", "", "Config file (JSON, or YAML by extension)")
	pf.StringVar(&o.dotEnv, "env-file", ".env", "dotenv file with CODEMAP_* variables")
	pf.StringVar(&o.baseURL, "base-url", "", "API base URL")
	pf.DurationVar(&o.timeout, "timeout", 0, "Per-attempt request timeout")
	pf.IntVar(&o.retries, "retries", 0, "Retries after the first attempt")
	pf.DurationVar(&o.retryDelay, "retry-delay", 0, "Base backoff delay")
	pf.StringVar(&o.storage, "storage", "", "Credential storage DSN (memory:, file://DIR, sqlite://PATH, postgres://, redis://, s3://)")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Log every request and response")
	pf.BoolVar(&o.noAuth, "no-auth", false, "Do not send credentials")

	root.AddCommand(
		newLoginCommand(o),
		newLogoutCommand(o),
		newStatusCommand(o),
		newCallCommand(o),
		newCodesCommand(o),
		newShellCommand(o),
	)
	return root
}

func newLoginCommand(o *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Login(cmd.Context(), user)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username (prompted when empty)")
	return cmd
}

func newLogoutCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Logout(cmd.Context())
		},
	}
}

func newStatusCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Status(cmd.Context())
		},
	}
}

func newCallCommand(o *rootOptions) *cobra.Command {
	var (
		data  string
		query []string
	)
	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: "Send a request through the API client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Call(cmd.Context(), args[0], args[1], data, query)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter name=value (repeatable)")
	return cmd
}

func newCodesCommand(o *rootOptions) *cobra.Command {
	var p services.ListParams
	codes := &cobra.Command{
		Use:   "codes",
		Short: "Browse the code catalogue",
	}
	codes.PersistentFlags().StringVar(&p.System, "system", "", "Coding system filter")
	codes.PersistentFlags().IntVar(&p.Page, "page", 0, "Page number")
	codes.PersistentFlags().IntVar(&p.PageSize, "page-size", 0, "Page size")

	codes.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List codes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.ListCodes(cmd.Context(), p)
			},
		},
		&cobra.Command{
			Use:   "search TERM",
			Short: "Search codes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.SearchCodes(cmd.Context(), strings.Join(args, " "), p)
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show one code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.GetCode(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "mappings ID",
			Short: "Show the mappings of a code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.CodeMappings(cmd.Context(), args[0])
			},
		},
	)
	return codes
}

func newShellCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Shell(cmd.Context())
		},
	}
}

// Execute runs the codemap command line and returns the process exit code.
func Execute(ctx context.Context, args []string, s Streams) int {
	o := &rootOptions{streams: s}
	root := newRootCommand(o)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if o.app != nil {
		if cerr := o.app.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(s.Err, "error:", describeError(err))
		return 1
	}
	return 0
}
