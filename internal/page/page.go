// Package page defines the page client contract the crawler consumes: open a
// page by path against a fixed origin, query elements by CSS selector, read
// their text and attributes, and close the page when done.
package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Client opens pages against one origin. A Client owns a browsing session and
// must be closed once, after every page it opened has been closed.
type Client interface {
	Open(ctx context.Context, path string) (Page, error)
	Close(ctx context.Context) error
}

// Page is an open document. Callers close every page exactly once.
type Page interface {
	// URL is the final document URL after redirects.
	URL() string
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Query returns the first match, or ok=false when nothing matches.
	Query(ctx context.Context, selector string) (el Element, ok bool, err error)
	Close() error
}

// Element is a handle to a node inside an open Page.
type Element interface {
	// Text returns the rendered text of the element, with line breaks.
	Text(ctx context.Context) (string, error)
	Attr(ctx context.Context, name string) (value string, ok bool, err error)
	Query(ctx context.Context, selector string) (el Element, ok bool, err error)
}

// NetworkError reports a page that could not be opened or navigated.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("open %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Resolve joins path onto origin. Absolute paths are returned unchanged.
func Resolve(origin, path string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(origin, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("origin %q must be absolute", origin)
	}
	ref, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}
