package rss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<p>hello <b>world</b></p>", "hello world"},
		{"line<br/>break", "line break"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in))
	}
}

func TestExternalIDIsStable(t *testing.T) {
	a := ExternalID("feed", "https://example.com/item")
	b := ExternalID("feed", "https://example.com/item")
	c := ExternalID("other", "https://example.com/item")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
