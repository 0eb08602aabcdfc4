package static

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

var errPageClosed = errors.New("page closed")

type staticPage struct {
	client *Client
	url    string
	doc    *goquery.Document
	closed atomic.Bool
}

func (p *staticPage) URL() string {
	return p.url
}

func (p *staticPage) QueryAll(_ context.Context, selector string) ([]page.Element, error) {
	if p.closed.Load() {
		return nil, errPageClosed
	}
	return wrapAll(p.doc.Find(selector)), nil
}

func (p *staticPage) Query(_ context.Context, selector string) (page.Element, bool, error) {
	if p.closed.Load() {
		return nil, false, errPageClosed
	}
	return first(p.doc.Find(selector))
}

func (p *staticPage) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errPageClosed
	}
	p.client.open.Add(-1)
	return nil
}

type element struct {
	sel *goquery.Selection
}

func (e element) Text(context.Context) (string, error) {
	if len(e.sel.Nodes) == 0 {
		return "", nil
	}
	return innerText(e.sel.Nodes[0]), nil
}

func (e element) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e element) Query(_ context.Context, selector string) (page.Element, bool, error) {
	return first(e.sel.Find(selector))
}

func wrapAll(sel *goquery.Selection) []page.Element {
	out := make([]page.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s})
	})
	return out
}

func first(sel *goquery.Selection) (page.Element, bool, error) {
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return element{sel: sel.First()}, true, nil
}
