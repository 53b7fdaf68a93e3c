package dom

import (
	"context"

	"github.com/chrisuehlinger/vibedom/network"
)

// Fetcher resolves resources for scripts, media, frames and navigation.
// Callers treat any status outside 2xx as a failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts *network.FetchOptions) (*network.Response, error)
}

// Evaluator runs script text in the realm of a window. line and col are the
// 1-based position of the first character of source in filename.
type Evaluator interface {
	Run(w *Window, source, filename string, line, col int) error
}

// GlobalReader is implemented by evaluators that can expose a window's script
// globals to Go.
type GlobalReader interface {
	Global(w *Window, name string) (any, bool)
}

// Releaser is implemented by collaborators that hold per-window state.
type Releaser interface {
	Release(w *Window)
}

// Decoder validates a fetched media payload. A nil error means the element
// can report load.
type Decoder interface {
	Decode(kind Kind, data []byte, contentType string) error
}

// ContextProvider creates rendering contexts for canvas elements.
type ContextProvider interface {
	GetContext(el *Element, kind string) (any, error)
}

// Storage is the persistent key/value store behind localStorage.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Clear() error
	Len() (int, error)
	Key(i int) (string, bool, error)
}

// StorageOpener opens the store kept at path.
type StorageOpener func(path string) (Storage, error)
