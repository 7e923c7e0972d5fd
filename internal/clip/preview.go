package clip

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"unicode/utf8"
)

// ImagePlaceholder is shown for image entries whose bytes cannot be decoded.
const ImagePlaceholder = "[Image]"

// DefaultPreviewLength is the number of runes kept by Preview for text.
const DefaultPreviewLength = 100

// Preview renders a single-line description of the entry for list views.
// Text is cut to max runes with a trailing "..." and newlines are folded to
// spaces. Images are described by their dimensions, or ImagePlaceholder when
// the data is malformed.
func (e Entry) Preview(max int) string {
	if max <= 0 {
		max = DefaultPreviewLength
	}
	switch e.Type {
	case Image:
		return describeImage(e.Content)
	default:
		return previewText(e.Content, max)
	}
}

func previewText(data []byte, max int) string {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

func describeImage(data []byte) string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImagePlaceholder
	}
	return fmt.Sprintf("Image (%dx%d)", cfg.Width, cfg.Height)
}
