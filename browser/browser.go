// Package browser is the entry point for building windows. New binds markup
// into a window; Load fetches a page first. Both fill in the default
// collaborators: a network loader, a goja evaluator, the media decoder and
// SQLite-backed localStorage.
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/config"
	"github.com/chrisuehlinger/vibedom/dom"
	"github.com/chrisuehlinger/vibedom/js"
	"github.com/chrisuehlinger/vibedom/media"
	"github.com/chrisuehlinger/vibedom/network"
	"github.com/chrisuehlinger/vibedom/storage"
)

// Options configures a window. Collaborators left nil get a default.
type Options struct {
	URL      string
	BaseURL  string
	DataPath string

	// Network settings for the default fetcher.
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int
	CacheSize    int
	LocalPath    string

	// DisableStorage leaves localStorage unconfigured.
	DisableStorage bool

	Fetcher     dom.Fetcher
	Evaluator   dom.Evaluator
	Decoder     dom.Decoder
	Contexts    dom.ContextProvider
	OpenStorage dom.StorageOpener

	Logger *zap.Logger
	// Registerer receives the metrics of the default collaborators. Each
	// registerer can back one set of defaults only.
	Registerer prometheus.Registerer
	Context    context.Context
	OnResource func(el *dom.Element, err error)
}

// FromConfig maps the network and runtime sections of cfg onto Options.
func FromConfig(cfg config.Config) Options {
	return Options{
		URL:            cfg.Runtime.URL,
		BaseURL:        cfg.Runtime.BaseURL,
		DataPath:       cfg.Runtime.DataPath,
		Timeout:        cfg.Network.Timeout,
		UserAgent:      cfg.Network.UserAgent,
		MaxRedirects:   cfg.Network.MaxRedirects,
		CacheSize:      cfg.Network.CacheSize,
		LocalPath:      cfg.Network.LocalPath,
		DisableStorage: !cfg.Runtime.Storage,
	}
}

// New creates a window at opts.URL (http://127.0.0.1/ when empty) and loads
// markup into it. The resource pipeline is queued on the window's loop; call
// Run on the returned window to drive it.
func New(markup string, opts Options) (*dom.Window, error) {
	wopts, err := opts.windowOptions()
	if err != nil {
		return nil, err
	}
	w, err := dom.NewWindow(wopts)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	if _, err := w.LoadMarkup(markup); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Load fetches rawURL and builds a window from the response. Only 2xx
// responses are accepted. The window's URL is the final URL after redirects.
func Load(ctx context.Context, rawURL string, opts Options) (*dom.Window, error) {
	if err := opts.fillFetcher(); err != nil {
		return nil, err
	}
	resp, err := opts.Fetcher.Fetch(ctx, rawURL, &network.FetchOptions{Type: network.ResourceTypeDocument})
	if err == nil {
		err = network.CheckStatus(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}
	markup, err := resp.Text()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}
	opts.URL = resp.URL
	if opts.URL == "" {
		opts.URL = rawURL
	}
	opts.BaseURL = ""
	if opts.Context == nil {
		opts.Context = ctx
	}
	return New(markup, opts)
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o.Logger
}

func (o *Options) fillFetcher() error {
	if o.Fetcher != nil {
		return nil
	}
	log := o.logger()
	clientOpts := []network.ClientOption{network.WithClientLogger(log)}
	if o.Timeout > 0 {
		clientOpts = append(clientOpts, network.WithTimeout(o.Timeout))
	}
	if o.UserAgent != "" {
		clientOpts = append(clientOpts, network.WithUserAgent(o.UserAgent))
	}
	if o.MaxRedirects > 0 {
		clientOpts = append(clientOpts, network.WithMaxRedirects(o.MaxRedirects))
	}
	client, err := network.NewClient(clientOpts...)
	if err != nil {
		return fmt.Errorf("create network client: %w", err)
	}
	loaderOpts := []network.LoaderOption{
		network.WithLoaderLogger(log),
		network.WithMetrics(network.NewMetrics(o.Registerer)),
	}
	if o.CacheSize > 0 {
		loaderOpts = append(loaderOpts, network.WithCache(network.NewCache(o.CacheSize)))
	}
	if o.LocalPath != "" {
		loaderOpts = append(loaderOpts, network.WithLocalPath(o.LocalPath))
	}
	o.Fetcher = network.NewLoader(client, loaderOpts...)
	return nil
}

func (o *Options) windowOptions() (dom.WindowOptions, error) {
	log := o.logger()
	if err := o.fillFetcher(); err != nil {
		return dom.WindowOptions{}, err
	}
	if o.Evaluator == nil {
		o.Evaluator = js.New(js.WithLogger(log), js.WithRegisterer(o.Registerer))
	}
	if o.Decoder == nil {
		o.Decoder = media.NewDecoder(media.WithLogger(log), media.WithRegisterer(o.Registerer))
	}
	if o.OpenStorage == nil && !o.DisableStorage {
		o.OpenStorage = storage.Opener(log)
	}
	if o.DataPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return dom.WindowOptions{}, fmt.Errorf("resolve data path: %w", err)
		}
		o.DataPath = wd
	}
	if o.URL == "" {
		o.URL = dom.DefaultURL
	}
	return dom.WindowOptions{
		URL:         o.URL,
		BaseURL:     o.BaseURL,
		DataPath:    o.DataPath,
		Fetcher:     o.Fetcher,
		Evaluator:   o.Evaluator,
		Decoder:     o.Decoder,
		Contexts:    o.Contexts,
		OpenStorage: o.OpenStorage,
		Logger:      log,
		Context:     o.Context,
		OnResource:  o.OnResource,
	}, nil
}
