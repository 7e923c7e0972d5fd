package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// maskedPreview replaces the preview of sensitive text unless --reveal is set.
const maskedPreview = "********"

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Limit  int
	Search string
	Reveal bool
}

// EntryView is one history entry as printed by list.
type EntryView struct {
	ID         int64      `json:"id"`
	Type       string     `json:"type"`
	Preview    string     `json:"preview"`
	CapturedAt time.Time  `json:"captured_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Pinned     bool       `json:"pinned"`
	Sensitive  bool       `json:"sensitive"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show clipboard history",
		Long: `Show clipboard history, pinned entries first, then newest first.

Expired entries are removed before the history is read. Previews of
entries classified as sensitive are masked unless --reveal is given.

Examples:
  clipcache list
  clipcache list --limit 10
  clipcache list --search invoice --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum entries to show (default 500)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "only text entries containing this string")
	cmd.Flags().BoolVar(&opts.Reveal, "reveal", false, "show previews of sensitive entries")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.store.Search(commandContext(cmd), opts.Search, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e, opts.Reveal))
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Result(views, func(w io.Writer) error {
		return renderList(w, views)
	})
}

func newEntryView(e clip.Entry, reveal bool) EntryView {
	preview := e.Preview(clip.DefaultPreviewLength)
	if e.Sensitive && !reveal {
		preview = maskedPreview
	}
	return EntryView{
		ID:         e.ID,
		Type:       e.Type.String(),
		Preview:    preview,
		CapturedAt: e.CapturedAt,
		ExpiresAt:  e.ExpiresAt,
		Pinned:     e.Pinned,
		Sensitive:  e.Sensitive,
	}
}

// renderList prints one line per entry: id, markers, capture time, preview.
// Styling is dropped when w is not a terminal.
func renderList(w io.Writer, views []EntryView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}

	r := lipgloss.NewRenderer(w)
	idStyle := r.NewStyle().Width(5).Align(lipgloss.Right).Faint(true)
	pinStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	sensitiveStyle := r.NewStyle().Foreground(lipgloss.Color("1"))
	timeStyle := r.NewStyle().Faint(true)

	for _, v := range views {
		pin := " "
		if v.Pinned {
			pin = pinStyle.Render("P")
		}
		sensitive := " "
		if v.Sensitive {
			sensitive = sensitiveStyle.Render("S")
		}
		line := fmt.Sprintf("%s %s%s %s  %s",
			idStyle.Render(fmt.Sprint(v.ID)),
			pin,
			sensitive,
			timeStyle.Render(v.CapturedAt.Local().Format("2006-01-02 15:04")),
			v.Preview,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
