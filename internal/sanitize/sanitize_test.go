package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"null and control bytes", "a\x00b\x01c\nd", "abc\nd"},
		{"plain text unchanged", "hello, world", "hello, world"},
		{"newlines kept", "one\ntwo\n", "one\ntwo\n"},
		{"tab and carriage return removed", "a\tb\r\nc", "ab\nc"},
		{"delete and C1 controls removed", "x\x7fy\u0085z", "xyz"},
		{"unicode kept", "héllo 世界 🎉", "héllo 世界 🎉"},
		{"empty", "", ""},
		{"only controls", "\x00\x01\x02", ""},
		{"ill-formed utf-8 replaced", "a\xffb\x00", "a\ufffdb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, []byte("abc\nd"), Bytes([]byte("a\x00b\x01c\nd")))
	assert.Empty(t, Bytes(nil))
	assert.Equal(t, []byte("a\ufffdb"), Bytes([]byte("a\xff\x01b")))
}
