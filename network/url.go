package network

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ResolveURL resolves ref against base. Absolute references, including data:,
// javascript: and mailto: URLs, are returned unchanged.
func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return base, nil
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference URL %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// IsAbsoluteURL reports whether rawURL has a scheme.
func IsAbsoluteURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.IsAbs()
}

// IsDataURL reports whether rawURL uses the data: scheme.
func IsDataURL(rawURL string) bool {
	return len(rawURL) >= 5 && strings.EqualFold(rawURL[:5], "data:")
}

// DataURL is a decoded data: URL.
type DataURL struct {
	MediaType string
	Charset   string
	Base64    bool
	Data      []byte
}

// ContentType renders the media type and charset as a header value.
func (d *DataURL) ContentType() string {
	if d.Charset == "" {
		return d.MediaType
	}
	return d.MediaType + ";charset=" + d.Charset
}

// ParseDataURL decodes data:[<mediatype>][;base64],<data>.
func ParseDataURL(rawURL string) (*DataURL, error) {
	if !IsDataURL(rawURL) {
		return nil, errors.New("not a data URL")
	}
	meta, data, ok := strings.Cut(rawURL[5:], ",")
	if !ok {
		return nil, errors.New("invalid data URL: missing comma")
	}
	out := &DataURL{MediaType: "text/plain", Charset: "us-ascii"}
	for i, part := range strings.Split(meta, ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.EqualFold(part, "base64"):
			out.Base64 = true
		case strings.HasPrefix(strings.ToLower(part), "charset="):
			out.Charset = strings.ToLower(part[len("charset="):])
		case i == 0 && !strings.Contains(part, "="):
			out.MediaType = strings.ToLower(part)
		}
	}
	if out.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode base64 data URL: %w", err)
		}
		out.Data = decoded
		return out, nil
	}
	decoded, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	out.Data = []byte(decoded)
	return out, nil
}

// Origin returns scheme://host for hierarchical URLs.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%q has no origin", rawURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// IsSameOrigin reports whether two URLs share scheme, host and port.
func IsSameOrigin(a, b string) bool {
	oa, errA := Origin(a)
	ob, errB := Origin(b)
	return errA == nil && errB == nil && oa == ob
}

// GuessContentType maps a URL's file extension to a media type.
func GuessContentType(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "html", "htm":
		return "text/html"
	case "css":
		return "text/css"
	case "js", "mjs":
		return "text/javascript"
	case "json":
		return "application/json"
	case "xml":
		return "application/xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tif", "tiff":
		return "image/tiff"
	case "svg":
		return "image/svg+xml"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg", "oga":
		return "audio/ogg"
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
