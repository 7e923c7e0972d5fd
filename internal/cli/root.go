package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/clock"
	"github.com/JudeLabs/ClipCache/internal/monitor"
)

// File names inside the data directory.
const (
	HistoryFile  = "history.db"
	SettingsFile = "settings.yaml"
	LockFile     = "watch.lock"
	InboxDir     = "inbox"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dir     string // data directory, default ~/.clipcache

	// Clock overrides the wall clock (for testing).
	// If nil, defaults to clock.System.
	Clock clock.Clock

	// Clipboard overrides the OS clipboard (for testing).
	// If nil, defaults to monitor.OSClipboard.
	Clipboard monitor.Clipboard
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the clipcache CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipcache",
		Short: "ClipCache - clipboard history",
		Long: `A local clipboard history manager.

Run "clipcache watch" to capture text and images copied to the system
clipboard. The other commands browse, pin, re-apply and clear the
captured history.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Dir == "" {
				dir, err := defaultDir()
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to locate data directory", err)
				}
				opts.Dir = dir
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "data directory (default ~/.clipcache)")

	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCopyCommand(opts))
	cmd.AddCommand(NewPinCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewPruneCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))

	return cmd
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

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".clipcache"), nil
}

func (o *RootOptions) path(name string) string {
	return filepath.Join(o.Dir, name)
}
