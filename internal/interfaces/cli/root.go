// Package cli implements the molscore command line.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molscore/internal/config"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	Engine       string
	Device       string
	Server       string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	factory BackendFactory
	backend Backend
	release func() error
}

// Backend builds the backend on first use.
func (c *CLIContext) Backend() (Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	b, release, err := c.factory(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.backend, c.release = b, release
	return b, nil
}

func (c *CLIContext) close() error {
	if c.release == nil {
		return nil
	}
	err := c.release()
	c.release = nil
	return err
}

// NewRootCommand creates the root command with all subcommands.  A nil
// factory selects LocalBackend; --server always selects RemoteBackend.
func NewRootCommand(factory BackendFactory) *cobra.Command {
	if factory == nil {
		factory = LocalBackend
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "molscore",
		Short: "Score single molecules with the REINVENT scoring engine",
		Long: "molscore resolves a property name to a scoring component, runs the\n" +
			"external scoring engine on one SMILES string and prints the score.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml, ./configs/config.yaml, /etc/molscore/config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, yaml, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "engine timeout (overrides engine.timeout)")
	pf.StringVar(&opts.Engine, "engine", "", "engine command (overrides engine.command)")
	pf.StringVar(&opts.Device, "device", "", "engine device (overrides engine.device)")
	pf.StringVar(&opts.Server, "server", "", "score through the API server at this URL instead of a local engine")

	cmd.AddCommand(
		newScoreCmd(),
		newPropertiesCmd(),
		newResolveCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory BackendFactory) error {
	if !isValidOutputFormat(opts.OutputFormat) {
		return errors.InvalidParam(fmt.Sprintf("invalid output format %q (must be text/json/yaml/table)", opts.OutputFormat))
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	if opts.Server != "" {
		factory = RemoteBackend(opts.Server, opts.Timeout)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      cfg.Engine.Timeout,
		factory:      factory,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	overrides := map[string]interface{}{}
	if opts.Engine != "" {
		overrides["engine.command"] = opts.Engine
	}
	if opts.Device != "" {
		overrides["engine.device"] = opts.Device
	}
	if opts.Timeout > 0 {
		overrides["engine.timeout"] = opts.Timeout
	}

	loadOpts := []config.LoadOption{config.WithOverrides(overrides)}
	if opts.ConfigPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(opts.ConfigPath))
	}
	return config.Load(loadOpts...)
}

// initLogger creates a console logger on stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "CLI context not found in command context")
	}
	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand(nil)
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return PrintResult(cmd, versionInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		},
	}
}

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("molscore %s (commit: %s, built: %s)", v.Version, v.Commit, v.BuildDate)
}

func (v versionInfo) TableHeaders() []string { return []string{"VERSION", "COMMIT", "BUILT"} }
func (v versionInfo) TableRows() [][]string  { return [][]string{{v.Version, v.Commit, v.BuildDate}} }

//Personal.AI order the ending
