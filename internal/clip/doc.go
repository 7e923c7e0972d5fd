// Package clip defines the clipboard content model shared by the store,
// the classifier and the monitor.
//
// ContentType is a closed variant: Text and Image are the only values the
// rest of the module accepts. Text content is UTF-8; image content is the
// encoded image as read from the OS clipboard (PNG in practice).
//
// This package imports nothing internal.
package clip
