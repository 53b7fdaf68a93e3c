package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"absolute", "http://example.com/a/b", "https://other.com/x", "https://other.com/x"},
		{"relative file", "http://example.com/a/b.html", "c.js", "http://example.com/a/c.js"},
		{"root relative", "http://example.com/a/b.html", "/c.js", "http://example.com/c.js"},
		{"parent", "http://example.com/a/b/c.html", "../d.png", "http://example.com/a/d.png"},
		{"protocol relative", "https://example.com/", "//cdn.example.com/x.js", "https://cdn.example.com/x.js"},
		{"query only", "http://example.com/a?x=1", "?y=2", "http://example.com/a?y=2"},
		{"fragment only", "http://example.com/a", "#top", "http://example.com/a#top"},
		{"empty", "http://example.com/a", "", "http://example.com/a"},
		{"data", "http://example.com/", "data:text/plain,hi", "data:text/plain,hi"},
		{"javascript", "http://example.com/", "javascript:void(0)", "javascript:void(0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		mediaType string
		charset   string
		data      string
		wantErr   bool
	}{
		{"plain", "data:,Hello%2C%20World", "text/plain", "us-ascii", "Hello, World", false},
		{"typed", "data:text/html,<p>hi</p>", "text/html", "us-ascii", "<p>hi</p>", false},
		{"charset", "data:text/plain;charset=UTF-8,abc", "text/plain", "utf-8", "abc", false},
		{"base64", "data:text/plain;base64,SGVsbG8=", "text/plain", "us-ascii", "Hello", false},
		{"no comma", "data:text/plain", "", "", "", true},
		{"bad base64", "data:;base64,!!!", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDataURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mediaType, d.MediaType)
			assert.Equal(t, tt.charset, d.Charset)
			assert.Equal(t, tt.data, string(d.Data))
		})
	}

	_, err := ParseDataURL("http://example.com")
	assert.Error(t, err)
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, IsAbsoluteURL("http://example.com"))
	assert.True(t, IsAbsoluteURL("data:,x"))
	assert.False(t, IsAbsoluteURL("/path"))
	assert.False(t, IsAbsoluteURL("file.js"))
}

func TestOrigin(t *testing.T) {
	o, err := Origin("HTTP://Example.com:8080/a?b")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:8080", o)

	_, err = Origin("/relative")
	assert.Error(t, err)

	assert.True(t, IsSameOrigin("http://example.com/a", "http://EXAMPLE.com/b"))
	assert.False(t, IsSameOrigin("http://example.com", "https://example.com"))
	assert.False(t, IsSameOrigin("http://example.com", "http://example.com:8080"))
}

func TestGuessContentType(t *testing.T) {
	tests := map[string]string{
		"http://example.com/index.html":  "text/html",
		"http://example.com/app.js?v=2":  "text/javascript",
		"http://example.com/logo.PNG":    "image/png",
		"http://example.com/photo.webp":  "image/webp",
		"http://example.com/song.mp3":    "audio/mpeg",
		"http://example.com/clip.webm":   "video/webm",
		"http://example.com/unknown.xyz": "application/octet-stream",
		"http://example.com/":            "application/octet-stream",
	}
	for in, want := range tests {
		assert.Equal(t, want, GuessContentType(in), in)
	}
}
