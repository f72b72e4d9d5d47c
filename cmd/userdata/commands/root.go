package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/userdata/internal/config"
	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/JonMunkholm/userdata/internal/database"
	"github.com/JonMunkholm/userdata/internal/logging"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// app carries what the subcommands share.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	envFile  string
	cfg      *config.Config
	ctx      context.Context
	registry *prometheus.Registry

	// extra provisioner options, used by tests to swap the dialer
	dbOpts []database.Option
}

// Execute runs the CLI against the process's arguments and streams.
func Execute() error {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	return a.run(os.Args[1:])
}

// run executes args and prints any error once.
func (a *app) run(args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintf(a.stderr, "  %s\n", hint)
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	var file string

	root := &cobra.Command{
		Use:           "userdata",
		Short:         "Validate user records and store them in PostgreSQL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.add(file)
		},
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "environment file loaded before configuration")
	root.Flags().StringVarP(&file, "file", "f", "", "read fields from a KEY=value file instead of prompting")

	root.AddCommand(a.addCmd(), a.provisionCmd(), a.serveCmd())
	return root
}

// setup loads the env file, configuration and logging.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.loadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(a.stderr, cfg.Logging.Level, cfg.Logging.Format)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	a.ctx, _ = logging.WithRun(parent)
	a.registry = prometheus.NewRegistry()

	logging.FromContext(a.ctx).Debug("configuration loaded",
		"command", cmd.Name(),
		"config", cfg.String(),
	)
	return nil
}

// loadEnvFile overloads the process environment from a.envFile.
// A missing default file is fine; a missing file named on the command line is not.
func (a *app) loadEnvFile(explicit bool) error {
	if a.envFile == "" {
		return nil
	}
	if _, err := os.Stat(a.envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Overload(a.envFile); err != nil {
		return fmt.Errorf("env file %s: %w", a.envFile, err)
	}
	return nil
}

// dbConfig builds the provisioner configuration from a.cfg.
func (a *app) dbConfig() database.Config {
	return database.Config{
		ServerConnString: a.cfg.Database.ServerConnString(),
		ConnString:       a.cfg.Database.TargetConnString(),
		Name:             a.cfg.Database.Name,
	}
}

// openDatabase runs the provisioner startup sequence.
func (a *app) openDatabase(ctx context.Context) (*database.Provisioner, error) {
	opts := append([]database.Option{database.WithLogger(logging.FromContext(ctx))}, a.dbOpts...)
	return database.Open(ctx, a.dbConfig(), opts...)
}

// closeDatabase releases p, logging rather than returning a close failure.
func (a *app) closeDatabase(p *database.Provisioner) {
	if err := p.Close(context.Background()); err != nil {
		logging.FromContext(a.ctx).Warn("close database connection", "error", err)
	}
}

// hintFor returns a coded hint for persistence and intake errors.
// Validation messages are already meant for the operator.
func hintFor(err error) string {
	if core.IsValidation(err) {
		return ""
	}
	msg := core.MapError(err)
	if msg.Code == "" || msg.Code == "ERR000" {
		return ""
	}
	return core.FormatUserError(err)
}
