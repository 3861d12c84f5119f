package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/loginflow/internal/config"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/remote"
	"github.com/roach88/loginflow/internal/render"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded in PersistentPreRunE.
	Config config.Config

	// Requester overrides the HTTP client (for testing).
	Requester remote.Requester

	// FlowGenerator overrides the flow token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	FlowGenerator engine.FlowTokenGenerator

	// Pauser overrides the demo's operator pause (for testing).
	Pauser render.Pauser
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// flagBindings maps config keys to the flag that overrides them, on
// whichever command defines it.
var flagBindings = map[string]string{
	"remote.base_url":      "endpoint",
	"remote.login_path":    "login-path",
	"remote.friends_path":  "friends-path",
	"journal.path":         "db",
	"render.pause":         "pause",
	"credentials.username": "user",
	"credentials.password": "password",
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loginflow",
		Short: "loginflow - a single-writer store driving login and friends requests",
		Long: `loginflow runs a single-writer state store whose thunks log in
against a remote server and fetch the user's friends. Every committed
action is journaled to SQLite and can be inspected with "trace".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := loadConfig(cmd, opts); err != nil {
				return err
			}
			setupLogging(cmd, opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $LOGINFLOW_CONFIG or ~/.config/loginflow/config.yaml)")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewFriendsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// loadConfig builds the viper instance, binds the executing command's
// flags and decodes the result into opts.Config.
func loadConfig(cmd *cobra.Command, opts *RootOptions) error {
	v := config.New(opts.ConfigPath)
	if err := bindFlags(v, cmd); err != nil {
		return WrapExitError(ExitCommandError, "failed to bind flags", err)
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.Config = cfg
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, name := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// setupLogging installs the default slog handler on stderr. --verbose
// forces debug regardless of log.level.
func setupLogging(cmd *cobra.Command, opts *RootOptions) {
	level := opts.Config.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
