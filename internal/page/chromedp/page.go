package chromedp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

var errPageClosed = errors.New("page closed")

type browserPage struct {
	client *Client
	ctx    context.Context
	cancel context.CancelFunc
	url    string
	closed atomic.Bool
}

func (p *browserPage) URL() string {
	return p.url
}

func (p *browserPage) QueryAll(ctx context.Context, selector string) ([]page.Element, error) {
	nodes, err := p.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]page.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{page: p, node: n})
	}
	return out, nil
}

func (p *browserPage) Query(ctx context.Context, selector string) (page.Element, bool, error) {
	nodes, err := p.nodes(ctx, selector)
	if err != nil || len(nodes) == 0 {
		return nil, false, err
	}
	return &element{page: p, node: nodes[0]}, true, nil
}

func (p *browserPage) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errPageClosed
	}
	p.cancel()
	p.client.open.Add(-1)
	return nil
}

func (p *browserPage) nodes(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return nodes, nil
}

func (p *browserPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if p.closed.Load() {
		return errPageClosed
	}
	runCtx, cancel := context.WithTimeout(p.ctx, p.client.queryTimeout())
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

type element struct {
	page *browserPage
	node *cdp.Node
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	action := chromedp.JavascriptAttribute([]cdp.NodeID{e.node.NodeID}, "innerText", &text, chromedp.ByNodeID)
	if err := e.page.run(ctx, action); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *element) Attr(_ context.Context, name string) (string, bool, error) {
	if e.page.closed.Load() {
		return "", false, errPageClosed
	}
	v, ok := e.node.Attribute(name)
	return v, ok, nil
}

func (e *element) Query(ctx context.Context, selector string) (page.Element, bool, error) {
	nodes, err := e.page.nodes(ctx, selector, chromedp.FromNode(e.node))
	if err != nil || len(nodes) == 0 {
		return nil, false, err
	}
	return &element{page: e.page, node: nodes[0]}, true, nil
}
