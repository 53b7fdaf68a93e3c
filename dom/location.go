package dom

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Location is a window's current URL. Writing any field that changes the
// document address starts a navigation; the fields keep their old values until
// that navigation commits. Hash, username and password writes update state in
// place.
type Location struct {
	w   *Window
	url *url.URL
}

func newLocation(raw string) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", raw, err)
	}
	return &Location{url: u}, nil
}

// Href returns the full URL.
func (l *Location) Href() string { return l.url.String() }

// String returns the full URL.
func (l *Location) String() string { return l.Href() }

// Protocol returns the scheme followed by ':'.
func (l *Location) Protocol() string { return l.url.Scheme + ":" }

// Host returns hostname[:port].
func (l *Location) Host() string { return l.url.Host }

// Hostname returns the host without its port.
func (l *Location) Hostname() string { return l.url.Hostname() }

// Port returns the explicit port, or "".
func (l *Location) Port() string { return l.url.Port() }

// Pathname returns the path, "/" when empty for hierarchical URLs.
func (l *Location) Pathname() string {
	if l.url.Path == "" && l.url.Host != "" {
		return "/"
	}
	return l.url.EscapedPath()
}

// Search returns the query with its leading '?', or "".
func (l *Location) Search() string {
	if l.url.RawQuery == "" {
		return ""
	}
	return "?" + l.url.RawQuery
}

// Hash returns the fragment with its leading '#', or "".
func (l *Location) Hash() string {
	if l.url.Fragment == "" {
		return ""
	}
	return "#" + l.url.EscapedFragment()
}

// Username returns the userinfo name.
func (l *Location) Username() string {
	if l.url.User == nil {
		return ""
	}
	return l.url.User.Username()
}

// Password returns the userinfo password.
func (l *Location) Password() string {
	if l.url.User == nil {
		return ""
	}
	p, _ := l.url.User.Password()
	return p
}

// Origin returns scheme://host for hierarchical URLs and "null" otherwise.
func (l *Location) Origin() string {
	if l.url.Host == "" {
		return "null"
	}
	return l.url.Scheme + "://" + l.url.Host
}

func (l *Location) with(edit func(u *url.URL)) *url.URL {
	next := *l.url
	if l.url.User != nil {
		u := *l.url.User
		next.User = &u
	}
	edit(&next)
	return &next
}

func (l *Location) navigate(u *url.URL, replace bool) {
	l.w.navigate(HistoryEntry{URL: u.String()}, replace)
}

// SetHref navigates to href, resolved against the current URL.
func (l *Location) SetHref(href string) error {
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("set href %q: %w", href, err)
	}
	l.navigate(l.url.ResolveReference(ref), false)
	return nil
}

// Assign navigates to href, adding a history entry.
func (l *Location) Assign(href string) error { return l.SetHref(href) }

// Replace navigates to href, replacing the current history entry.
func (l *Location) Replace(href string) error {
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("replace %q: %w", href, err)
	}
	l.navigate(l.url.ResolveReference(ref), true)
	return nil
}

// Reload fetches the current URL again in place. The entry keeps its state.
func (l *Location) Reload() { l.w.navigate(l.w.history.Current(), true) }

// SetProtocol navigates to the URL with a new scheme.
func (l *Location) SetProtocol(protocol string) {
	scheme := strings.TrimSuffix(protocol, ":")
	l.navigate(l.with(func(u *url.URL) { u.Scheme = scheme }), false)
}

// SetHost navigates to the URL with a new host and port.
func (l *Location) SetHost(host string) {
	l.navigate(l.with(func(u *url.URL) { u.Host = host }), false)
}

// SetHostname navigates to the URL with a new hostname, keeping the port.
func (l *Location) SetHostname(hostname string) {
	l.navigate(l.with(func(u *url.URL) {
		if port := u.Port(); port != "" {
			u.Host = hostname + ":" + port
			return
		}
		u.Host = hostname
	}), false)
}

// SetPort navigates to the URL with a new port.
func (l *Location) SetPort(port string) {
	l.navigate(l.with(func(u *url.URL) {
		if port == "" {
			u.Host = u.Hostname()
			return
		}
		u.Host = u.Hostname() + ":" + port
	}), false)
}

// SetPathname navigates to the URL with a new path.
func (l *Location) SetPathname(pathname string) {
	if !strings.HasPrefix(pathname, "/") {
		pathname = "/" + pathname
	}
	l.navigate(l.with(func(u *url.URL) {
		u.Path, u.RawPath = pathname, ""
	}), false)
}

// SetSearch navigates to the URL with a new query.
func (l *Location) SetSearch(search string) {
	l.navigate(l.with(func(u *url.URL) {
		u.RawQuery = strings.TrimPrefix(search, "?")
	}), false)
}

// SetHash changes the fragment without navigating. A changed fragment adds a
// history entry and fires hashchange on the window in a later task.
func (l *Location) SetHash(hash string) {
	fragment := strings.TrimPrefix(hash, "#")
	if fragment == l.url.Fragment {
		return
	}
	oldURL := l.Href()
	l.url = l.with(func(u *url.URL) { u.Fragment, u.RawFragment = fragment, "" })
	newURL := l.Href()
	l.w.history.push(HistoryEntry{URL: newURL})
	l.w.loop.QueueTask(func() {
		l.w.DispatchEvent(&Event{Type: "hashchange", URL: newURL, Detail: oldURL})
	})
}

// SetUsername changes the userinfo name without navigating.
func (l *Location) SetUsername(name string) {
	l.url = l.with(func(u *url.URL) {
		if u.User == nil {
			u.User = url.User(name)
			return
		}
		if p, ok := u.User.Password(); ok {
			u.User = url.UserPassword(name, p)
			return
		}
		u.User = url.User(name)
	})
	l.w.history.replaceURL(l.Href())
}

// SetPassword changes the userinfo password without navigating.
func (l *Location) SetPassword(password string) {
	l.url = l.with(func(u *url.URL) {
		name := ""
		if u.User != nil {
			name = u.User.Username()
		}
		u.User = url.UserPassword(name, password)
	})
	l.w.history.replaceURL(l.Href())
}

// set replaces the URL without navigating.
func (l *Location) set(raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		l.w.logger.Warn("ignoring unparsable location", zap.String("url", raw), zap.Error(err))
		return
	}
	l.url = u
}
