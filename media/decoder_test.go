package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/chrisuehlinger/vibedom/dom"
)

func encoded(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImageFormats(t *testing.T) {
	tests := []struct {
		format string
		encode func(*bytes.Buffer, image.Image) error
	}{
		{"png", func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }},
		{"gif", func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) }},
		{"bmp", func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }},
		{"tiff", func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			img, err := DecodeImage(encoded(t, tt.encode))
			require.NoError(t, err)
			assert.Equal(t, Image{Format: tt.format, Width: 3, Height: 2}, img)
		})
	}
}

func TestDecoderRejectsGarbage(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDecoder(WithRegisterer(reg))

	err := d.Decode(dom.KindImage, []byte("not an image"), "image/png")
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "image/png")

	err = d.Decode(dom.KindAudio, nil, "audio/ogg")
	require.ErrorIs(t, err, ErrEmpty)

	err = d.Decode(dom.KindScript, []byte("x"), "text/javascript")
	require.ErrorIs(t, err, ErrUnsupported)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.decoded.WithLabelValues("image", "none", "error")))
}

func TestDecoderAcceptsImages(t *testing.T) {
	d := NewDecoder()
	data := encoded(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })
	require.NoError(t, d.Decode(dom.KindImage, data, "image/png"))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.decoded.WithLabelValues("image", "png", "ok")))
}

func TestDecoderSniffsContainers(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 16)...)
	mp4 := []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00")
	m4a := []byte("\x00\x00\x00\x18ftypM4A \x00\x00\x00\x00")
	webm := []byte("\x1A\x45\xDF\xA3\x9F\x42\x86\x81\x01")
	tests := []struct {
		name string
		kind dom.Kind
		data []byte
		ok   bool
	}{
		{"wav audio", dom.KindAudio, wav, true},
		{"ogg audio", dom.KindAudio, []byte("OggS\x00\x02"), true},
		{"id3 audio", dom.KindAudio, []byte("ID3\x04\x00"), true},
		{"mpeg frame audio", dom.KindAudio, []byte{0xFF, 0xFB, 0x90, 0x00}, true},
		{"m4a audio", dom.KindAudio, m4a, true},
		{"text audio", dom.KindAudio, []byte("hello"), false},
		{"mp4 video", dom.KindVideo, mp4, true},
		{"webm video", dom.KindVideo, webm, true},
		{"m4a video", dom.KindVideo, m4a, false},
		{"wav video", dom.KindVideo, wav, false},
	}
	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Decode(tt.kind, tt.data, "")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}
