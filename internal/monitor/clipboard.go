package monitor

import (
	"context"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// Change is one clipboard-change notification.
// Err is set when the new content could not be read.
type Change struct {
	Content clip.Content
	Err     error
}

// Clipboard is the OS clipboard as seen by the Monitor.
type Clipboard interface {
	// Changes streams clipboard changes until ctx is done, then closes the
	// channel.
	Changes(ctx context.Context) (<-chan Change, error)

	// Write replaces the clipboard content.
	Write(ctx context.Context, c clip.Content) error
}
