// Package sensitive flags clipboard text that probably contains a secret.
//
// Classification is a warning hint for the UI, computed once when an entry
// is saved. It is deliberately broad: any keyword substring such as "key"
// matches.
package sensitive

import (
	"regexp"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

// patterns are evaluated in order; the first match wins.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`), // email
	regexp.MustCompile(`\b\d{16}\b`),                                   // card number
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                        // SSN
	regexp.MustCompile(`(?i)password|secret|key|token|credential`),
	regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), // IPv4
	regexp.MustCompile(`(?i)api[_-]?key|access[_-]?token|auth[_-]?token`),
}

// ClassifyText reports whether text matches any sensitive pattern.
func ClassifyText(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify applies ClassifyText to text content. Images are never sensitive.
func Classify(c clip.Content) bool {
	if c.Type != clip.Text {
		return false
	}
	return ClassifyText(string(c.Data))
}
