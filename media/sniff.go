package media

import "bytes"

type signature struct {
	format string
	match  func([]byte) bool
}

func prefix(p string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(p)) }
}

// riff matches a RIFF container whose form type is form.
func riff(form string) func([]byte) bool {
	return func(b []byte) bool {
		return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == form
	}
}

// isoBMFF matches an ISO base media file whose ftyp brand satisfies brand.
func isoBMFF(brand func(string) bool) func([]byte) bool {
	return func(b []byte) bool {
		return len(b) >= 12 && string(b[4:8]) == "ftyp" && brand(string(b[8:12]))
	}
}

func mpegFrame(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

func audioBrand(brand string) bool {
	return brand == "M4A " || brand == "M4B " || brand == "mp42" || brand == "isom"
}

func videoBrand(brand string) bool {
	return brand != "M4A " && brand != "M4B "
}

var audioFormats = []signature{
	{"wav", riff("WAVE")},
	{"ogg", prefix("OggS")},
	{"flac", prefix("fLaC")},
	{"mp3", prefix("ID3")},
	{"mp3", mpegFrame},
	{"mp4", isoBMFF(audioBrand)},
	{"webm", prefix("\x1A\x45\xDF\xA3")},
}

var videoFormats = []signature{
	{"mp4", isoBMFF(videoBrand)},
	{"webm", prefix("\x1A\x45\xDF\xA3")},
	{"ogg", prefix("OggS")},
	{"avi", riff("AVI ")},
}

func match(data []byte, formats []signature) (string, error) {
	for _, s := range formats {
		if s.match(data) {
			return s.format, nil
		}
	}
	return "none", ErrUnsupported
}
