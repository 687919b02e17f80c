package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/clock"
	"github.com/roach88/recall/internal/config"
	"github.com/roach88/recall/internal/logging"
	"github.com/roach88/recall/internal/scheduler"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	StatePath  string
	Backend    string // "json" | "sqlite"
	ConfigPath string

	// Resolved in PersistentPreRunE.
	Config *config.Config
	Log    zerolog.Logger

	// Clock and IDs override the wall clock and scan id generator (for testing).
	// If nil, clock.System and scheduler.UUIDv7Generator are used.
	Clock clock.Clock
	IDs   scheduler.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "text"}

// NewRootCommand creates the root command for the recall CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "recall - FSRS-6 spaced repetition scheduler",
		Long: `Schedule spaced-repetition review of knowledge cards with the FSRS-6 memory model.

All state lives in one snapshot (a JSON file by default). Every command prints
exactly one result document; mutating commands rewrite the snapshot atomically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return opts.commandError(cmd,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return opts.commandError(cmd,
				fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()), nil)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return opts.commandError(c, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StatePath, "state", "", "path to the state snapshot (default ~/.recall/state.json)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (json|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	// Add subcommands
	cmd.AddCommand(NewDueCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewBulkRegisterCommand(opts))
	cmd.AddCommand(NewRecordSessionCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewParamsCommand(opts))

	return cmd
}

// resolve loads configuration and applies flag overrides.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{ConfigPath: o.ConfigPath, DotEnvPath: ".env"})
	if err != nil {
		f := o.formatter(cmd)
		_ = f.Error(ErrCodeInvalidConfiguration, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("state") {
		cfg.StatePath = config.ExpandHome(o.StatePath)
	}
	if flags.Changed("backend") {
		cfg.Backend = o.Backend
		if err := cfg.Validate(); err != nil {
			return o.commandError(cmd, "invalid --backend", err)
		}
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	o.Config = cfg

	o.Log = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if o.Clock == nil {
		o.Clock = clock.System{}
	}
	if o.IDs == nil {
		o.IDs = scheduler.UUIDv7Generator{}
	}
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// commandError prints an INVALID_COMMAND document and returns an ExitError
// with ExitCommandError. An unusable --format falls back to json.
func (o *RootOptions) commandError(cmd *cobra.Command, message string, err error) error {
	f := o.formatter(cmd)
	if !isValidFormat(f.Format) {
		f.Format = "json"
	}
	detail := message
	if err != nil {
		detail += ": " + err.Error()
	}
	_ = f.Error(ErrCodeInvalidCommand, detail, nil)
	return WrapExitError(ExitCommandError, message, err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
