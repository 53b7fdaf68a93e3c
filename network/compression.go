package network

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

const acceptEncoding = "br, gzip, deflate"

var brotliReaders = sync.Pool{
	New: func() any { return brotli.NewReader(nil) },
}

// decodeBody reads body, undoing each listed content encoding in reverse
// order.
func decodeBody(body io.Reader, encodings []string) ([]byte, error) {
	r := body
	var closers []func()
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	for i := len(encodings) - 1; i >= 0; i-- {
		enc := strings.ToLower(strings.TrimSpace(encodings[i]))
		switch enc {
		case "", "identity":
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, fmt.Errorf("gzip body: %w", err)
			}
			closers = append(closers, func() { zr.Close() })
			r = zr
		case "br":
			br := brotliReaders.Get().(*brotli.Reader)
			if err := br.Reset(r); err != nil {
				brotliReaders.Put(br)
				return nil, fmt.Errorf("brotli body: %w", err)
			}
			closers = append(closers, func() { brotliReaders.Put(br) })
			r = br
		case "deflate":
			raw, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("read deflate body: %w", err)
			}
			// Servers send both zlib-wrapped and raw deflate streams.
			if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
				closers = append(closers, func() { zr.Close() })
				r = zr
				continue
			}
			fr := flate.NewReader(bytes.NewReader(raw))
			closers = append(closers, func() { fr.Close() })
			r = fr
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", enc)
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// splitEncodings flattens Content-Encoding header values.
func splitEncodings(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
