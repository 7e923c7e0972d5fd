package clip

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownType is returned when a content type outside {text, image} is parsed.
var ErrUnknownType = errors.New("unknown content type")

// ContentType identifies how an entry's bytes are interpreted.
type ContentType string

const (
	Text  ContentType = "text"
	Image ContentType = "image"
)

// ParseContentType converts a stored or user-supplied name into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case Text:
		return Text, nil
	case Image:
		return Image, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Valid reports whether t is one of the supported content types.
func (t ContentType) Valid() bool {
	return t == Text || t == Image
}

func (t ContentType) String() string {
	return string(t)
}

// Content is a typed clipboard payload.
type Content struct {
	Type ContentType
	Data []byte
}

// Equal reports exact identity: same type and byte-identical data.
func (c Content) Equal(other Content) bool {
	return c.Type == other.Type && bytes.Equal(c.Data, other.Data)
}

// IsZero reports whether c carries no data.
func (c Content) IsZero() bool {
	return len(c.Data) == 0
}

// Entry is one captured clipboard snapshot.
type Entry struct {
	ID         int64
	Type       ContentType
	Content    []byte
	CapturedAt time.Time
	ExpiresAt  *time.Time // nil: never expires
	Pinned     bool
	Sensitive  bool
}
