// Package pagetest provides an in-memory page.Client for tests. Selectors are
// matched by exact string, so a Doc lists the results each selector returns.
package pagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

// Node is a fake element. Children maps a selector to the nodes it matches
// below this node.
type Node struct {
	Text     string
	Attrs    map[string]string
	Children map[string][]*Node
}

// Link builds a node with display text and an anchor child pointing at href.
func Link(text, href string) *Node {
	return &Node{
		Text: text,
		Children: map[string][]*Node{
			"a": {{Text: text, Attrs: map[string]string{"href": href}}},
		},
	}
}

// Doc is a fake document. Selectors maps a selector to its matches.
type Doc struct {
	URL       string
	Selectors map[string][]*Node
}

// OpenFunc produces the document for one open attempt. attempt starts at 1 and
// counts opens of the same path.
type OpenFunc func(ctx context.Context, attempt int) (*Doc, error)

// Client serves registered paths. Unknown paths fail with page.NetworkError.
type Client struct {
	mu       sync.Mutex
	routes   map[string]OpenFunc
	attempts map[string]int

	open   atomic.Int64
	closed atomic.Bool
}

// NewClient returns an empty Client.
func NewClient() *Client {
	return &Client{
		routes:   make(map[string]OpenFunc),
		attempts: make(map[string]int),
	}
}

// Handle registers fn for path.
func (c *Client) Handle(path string, fn OpenFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[path] = fn
}

// Serve registers a fixed document for path.
func (c *Client) Serve(path string, doc *Doc) {
	c.Handle(path, func(context.Context, int) (*Doc, error) { return doc, nil })
}

// Open implements page.Client.
func (c *Client) Open(ctx context.Context, path string) (page.Page, error) {
	if c.closed.Load() {
		return nil, errors.New("pagetest client closed")
	}
	c.mu.Lock()
	fn, ok := c.routes[path]
	c.attempts[path]++
	attempt := c.attempts[path]
	c.mu.Unlock()

	if !ok {
		return nil, &page.NetworkError{URL: path, Cause: errors.New("404 not found")}
	}

	doc, err := fn(ctx, attempt)
	if err != nil {
		return nil, &page.NetworkError{URL: path, Cause: err}
	}
	if doc == nil {
		doc = &Doc{}
	}
	url := doc.URL
	if url == "" {
		url = path
	}
	c.open.Add(1)
	return &fakePage{client: c, url: url, doc: doc}, nil
}

// Close implements page.Client.
func (c *Client) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool { return c.closed.Load() }

// OpenPages reports pages opened and not yet closed.
func (c *Client) OpenPages() int64 { return c.open.Load() }

// Attempts reports how many times path was opened.
func (c *Client) Attempts(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[path]
}

type fakePage struct {
	client *Client
	url    string
	doc    *Doc
	closed atomic.Bool
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) QueryAll(_ context.Context, selector string) ([]page.Element, error) {
	return wrap(p.doc.Selectors[selector]), nil
}

func (p *fakePage) Query(_ context.Context, selector string) (page.Element, bool, error) {
	nodes := p.doc.Selectors[selector]
	if len(nodes) == 0 {
		return nil, false, nil
	}
	return element{nodes[0]}, true, nil
}

func (p *fakePage) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("page %s closed twice", p.url)
	}
	p.client.open.Add(-1)
	return nil
}

type element struct {
	node *Node
}

func (e element) Text(context.Context) (string, error) { return e.node.Text, nil }

func (e element) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.node.Attrs[name]
	return v, ok, nil
}

func (e element) Query(_ context.Context, selector string) (page.Element, bool, error) {
	nodes := e.node.Children[selector]
	if len(nodes) == 0 {
		return nil, false, nil
	}
	return element{nodes[0]}, true, nil
}

func wrap(nodes []*Node) []page.Element {
	out := make([]page.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, element{n})
	}
	return out
}
