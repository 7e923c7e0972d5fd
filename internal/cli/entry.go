package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/inbox"
	"github.com/JudeLabs/ClipCache/internal/lock"
)

// applyTimeout bounds how long copy waits for a running watcher.
const applyTimeout = 5 * time.Second

// ItemView is a single entry's content as printed by get --format json.
// Data is base64 encoded in JSON.
type ItemView struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print an entry's content",
		Long: `Print an entry's raw content to stdout.

Text is printed as stored; images are written as PNG bytes, so redirect
them to a file.

Examples:
  clipcache get 42
  clipcache get 17 > shot.png`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			content, found, err := sess.store.Item(commandContext(cmd), id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read entry", err)
			}
			if !found {
				return NewExitError(ExitFailure, fmt.Sprintf("entry %d not found", id))
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			view := ItemView{ID: id, Type: content.Type.String(), Data: content.Data}
			return formatter.Result(view, func(w io.Writer) error {
				_, err := w.Write(content.Data)
				return err
			})
		},
	}
}

// NewCopyCommand creates the copy command.
func NewCopyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Put an entry back on the clipboard",
		Long: `Put a history entry back on the system clipboard.

When a watcher is running, the watcher performs the write and does not
record the entry again. Otherwise copy writes to the clipboard itself.

Example:
  clipcache copy 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			_, watching, err := lock.Held(rootOpts.path(LockFile))
			if err != nil {
				return WrapExitError(ExitFailure, "failed to check for a running watcher", err)
			}

			var found bool
			if watching {
				found, err = applyViaWatcher(commandContext(cmd), rootOpts, cmd, id)
			} else {
				found, err = applyDirect(commandContext(cmd), rootOpts, cmd, id)
			}
			if err != nil {
				var exitErr *ExitError
				if errors.As(err, &exitErr) {
					return err
				}
				return WrapExitError(ExitFailure, "failed to copy entry", err)
			}
			if !found {
				return NewExitError(ExitFailure, fmt.Sprintf("entry %d not found", id))
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Result(map[string]int64{"id": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Copied entry %d to the clipboard\n", id)
				return err
			})
		},
	}
}

// applyViaWatcher asks the running watcher to write entry id.
func applyViaWatcher(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id int64) (bool, error) {
	box, err := inbox.Open(opts.path(InboxDir), newLogger(cmd.ErrOrStderr(), opts.Verbose))
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	reply, err := box.Submit(ctx, id)
	if err != nil {
		return false, fmt.Errorf("watcher did not answer: %w", err)
	}
	if reply.Error != "" {
		return reply.Found, errors.New(reply.Error)
	}
	return reply.Found, nil
}

// applyDirect writes entry id when no watcher is running.
func applyDirect(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id int64) (bool, error) {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return false, err
	}
	defer sess.Close()

	return newMonitor(opts, sess).Apply(ctx, id)
}

// PinView reports the pin state after a toggle.
type PinView struct {
	ID     int64 `json:"id"`
	Pinned bool  `json:"pinned"`
}

// NewPinCommand creates the pin command.
func NewPinCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle an entry's pin",
		Long: `Pin or unpin a history entry.

Pinned entries are listed first and are never removed by the history
limit or by auto-clear. Unpinning while auto-clear is on starts a fresh
expiry.

Example:
  clipcache pin 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			pinned, found, err := sess.store.TogglePin(commandContext(cmd), id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to toggle pin", err)
			}
			if !found {
				return NewExitError(ExitFailure, fmt.Sprintf("entry %d not found", id))
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Result(PinView{ID: id, Pinned: pinned}, func(w io.Writer) error {
				state := "Unpinned"
				if pinned {
					state = "Pinned"
				}
				_, err := fmt.Fprintf(w, "%s entry %d\n", state, id)
				return err
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete entries",
		Long: `Delete one or more history entries. Missing ids are ignored.

Example:
  clipcache delete 3 4 9`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := commandContext(cmd)
			for _, id := range ids {
				if err := sess.store.Delete(ctx, id); err != nil {
					return WrapExitError(ExitFailure, "failed to delete entry", err)
				}
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Result(map[string][]int64{"deleted": ids}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted %d entries\n", len(ids))
				return err
			})
		},
	}
}
