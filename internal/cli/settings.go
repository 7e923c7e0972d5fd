package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JudeLabs/ClipCache/internal/retention"
	"github.com/JudeLabs/ClipCache/internal/settings"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Long: `Show or change settings stored in settings.yaml.

Keys:
  ` + strings.Join(settings.Keys(), "\n  "),
	}

	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))

	return cmd
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print current settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := loadSettings(rootOpts)
			if err != nil {
				return err
			}
			return printSettings(rootOpts, cmd, prefs.Settings())
		},
	}
}

func newSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Change settings",
		Long: `Change one or more settings. All changes are validated together and
nothing is written if any is invalid. Lowering max_history_size trims the
history immediately.

Examples:
  clipcache settings set auto_clear=true auto_clear_time=10
  clipcache settings set max_history_size=50`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSet(rootOpts, cmd, args)
		},
	}
}

func runSettingsSet(opts *RootOptions, cmd *cobra.Command, args []string) error {
	prefs, err := loadSettings(opts)
	if err != nil {
		return err
	}

	before := prefs.Settings()
	next, err := prefs.Update(func(s *settings.Settings) error {
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			if err := s.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to update settings", err)
	}

	if next.MaxHistorySize < before.MaxHistorySize {
		sess, err := openSession(opts, cmd)
		if err != nil {
			return err
		}
		defer sess.Close()
		retention.NewScheduler(sess.store, sess.settings, retention.WithLogger(sess.logger)).
			Reconcile(commandContext(cmd), next)
	}

	return printSettings(opts, cmd, next)
}

func loadSettings(opts *RootOptions) (*settings.File, error) {
	if opts.Dir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to locate data directory", err)
		}
		opts.Dir = dir
	}
	prefs, err := settings.Load(opts.path(SettingsFile))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	return prefs, nil
}

func printSettings(opts *RootOptions, cmd *cobra.Command, s settings.Settings) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Result(s, func(w io.Writer) error {
		data, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}
