package monitor

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// OSClipboard is the system clipboard, backed by golang.design/x/clipboard.
// Text and image are watched separately; other formats are never observed.
type OSClipboard struct {
	initOnce sync.Once
	initErr  error
}

// NewOSClipboard returns the system clipboard. Initialization is deferred
// to first use.
func NewOSClipboard() *OSClipboard {
	return &OSClipboard{}
}

func (b *OSClipboard) init() error {
	b.initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			b.initErr = fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	})
	return b.initErr
}

// Changes merges the text and image watch streams.
func (b *OSClipboard) Changes(ctx context.Context) (<-chan Change, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	out := make(chan Change)
	var wg sync.WaitGroup
	watch := func(format clipboard.Format, ct clip.ContentType) {
		defer wg.Done()
		for data := range clipboard.Watch(ctx, format) {
			select {
			case out <- Change{Content: clip.Content{Type: ct, Data: data}}:
			case <-ctx.Done():
				return
			}
		}
	}

	wg.Add(2)
	go watch(clipboard.FmtText, clip.Text)
	go watch(clipboard.FmtImage, clip.Image)
	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

// Write places c on the system clipboard. Images must be PNG encoded.
func (b *OSClipboard) Write(ctx context.Context, c clip.Content) error {
	if err := b.init(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch c.Type {
	case clip.Text:
		clipboard.Write(clipboard.FmtText, c.Data)
	case clip.Image:
		clipboard.Write(clipboard.FmtImage, c.Data)
	default:
		return fmt.Errorf("write clipboard: %w: %q", clip.ErrUnknownType, c.Type)
	}
	return nil
}
