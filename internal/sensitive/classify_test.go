package sensitive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JudeLabs/ClipCache/internal/clip"
)

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"email", "contact me at a@b.com", true},
		{"uppercase email", "WRITE TO JANE.DOE@EXAMPLE.ORG", true},
		{"card number", "card 4111111111111111 exp", true},
		{"fifteen digits", "card 411111111111111 exp", false},
		{"ssn", "ssn 123-45-6789", true},
		{"password keyword", "my Password is hunter2", true},
		{"token keyword", "TOKEN=abc", true},
		{"credential keyword", "credentials.json", true},
		{"ipv4", "ssh 192.168.1.20", true},
		{"api key identifier", "export API_KEY=xyz", true},
		{"auth token identifier", "authtoken", true},
		{"plain note", "just a note", false},
		{"empty", "", false},
		{"numbers without shape", "call 555 0100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyText(tt.in))
		})
	}
}

func TestClassify_ImageNeverSensitive(t *testing.T) {
	c := clip.Content{Type: clip.Image, Data: []byte("\x89PNG password a@b.com")}
	assert.False(t, Classify(c))
}

func TestClassify_Text(t *testing.T) {
	assert.True(t, Classify(clip.Content{Type: clip.Text, Data: []byte("secret")}))
	assert.False(t, Classify(clip.Content{Type: clip.Text, Data: []byte("hello")}))
}
