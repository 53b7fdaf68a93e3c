// Package media validates fetched image, audio and video payloads for the dom
// pipeline. Images are decoded far enough to read their dimensions; audio and
// video are recognised by their container signature.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chrisuehlinger/vibedom/dom"
)

// ErrEmpty is returned for zero-length payloads.
var ErrEmpty = errors.New("empty payload")

// ErrUnsupported is returned when no known format matches the payload.
var ErrUnsupported = errors.New("unsupported format")

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the decoder's logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// WithRegisterer records decode counts in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Decoder) { d.registerer = reg }
}

// Decoder implements dom.Decoder.
type Decoder struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	decoded    *prometheus.CounterVec
}

var _ dom.Decoder = (*Decoder)(nil)

// NewDecoder creates a decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("media")
	reg := d.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	d.decoded = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibedom",
		Subsystem: "media",
		Name:      "decoded_total",
		Help:      "Media payloads checked, by kind, format and outcome.",
	}, []string{"kind", "format", "outcome"})
	return d
}

// Decode checks that data is a payload kind can play or show. contentType is
// only used in error messages; the bytes decide.
func (d *Decoder) Decode(kind dom.Kind, data []byte, contentType string) error {
	format, err := d.sniff(kind, data)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		err = fmt.Errorf("decode %s (%s, %d bytes): %w", kind, contentType, len(data), err)
	}
	d.decoded.WithLabelValues(kind.String(), format, outcome).Inc()
	d.logger.Debug("decoded",
		zap.Stringer("kind", kind),
		zap.String("format", format),
		zap.Int("size", len(data)),
		zap.Error(err))
	return err
}

func (d *Decoder) sniff(kind dom.Kind, data []byte) (string, error) {
	if len(data) == 0 {
		return "none", ErrEmpty
	}
	switch kind {
	case dom.KindImage:
		return decodeImage(data)
	case dom.KindAudio:
		return match(data, audioFormats)
	case dom.KindVideo:
		return match(data, videoFormats)
	}
	return "none", fmt.Errorf("%w: %s elements carry no media", ErrUnsupported, kind)
}

// Image holds the header fields of a decoded image.
type Image struct {
	Format string
	Width  int
	Height int
}

// DecodeImage reads the format and dimensions of an encoded image.
func DecodeImage(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Image{}, ErrUnsupported
		}
		return Image{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{Format: format}, fmt.Errorf("%s image has no pixels", format)
	}
	return Image{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func decodeImage(data []byte) (string, error) {
	img, err := DecodeImage(data)
	if img.Format == "" {
		return "none", err
	}
	return img.Format, err
}
