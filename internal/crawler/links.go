package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

// namedLink is a display name and the href of its first anchor.
type namedLink struct {
	name string
	href string
}

// normalizeName trims the label and drops a trailing "*" marker.
func normalizeName(text string) string {
	name := strings.TrimSpace(text)
	name = strings.TrimSuffix(name, "*")
	return strings.TrimSpace(name)
}

// namedLinks reads every element matching selector. Elements without a name
// or without an anchor href are skipped.
func namedLinks(ctx context.Context, p page.Page, selector string) ([]namedLink, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	links := make([]namedLink, 0, len(elements))
	for _, el := range elements {
		text, err := el.Text(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %q text: %w", selector, err)
		}
		name := normalizeName(text)
		if name == "" {
			continue
		}
		anchor, found, err := el.Query(ctx, "a")
		if err != nil {
			return nil, fmt.Errorf("find anchor for %q: %w", name, err)
		}
		if !found {
			continue
		}
		href, ok, err := anchor.Attr(ctx, "href")
		if err != nil {
			return nil, fmt.Errorf("read href for %q: %w", name, err)
		}
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			continue
		}
		links = append(links, namedLink{name: name, href: href})
	}
	return links, nil
}

// anchorLinks reads every anchor matching selector. The anchor text names the
// link, falling back to its href when the text is blank.
func anchorLinks(ctx context.Context, p page.Page, selector string) ([]namedLink, error) {
	anchors, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	out := make([]namedLink, 0, len(anchors))
	for _, a := range anchors {
		href, ok, err := a.Attr(ctx, "href")
		if err != nil {
			return nil, fmt.Errorf("read %q href: %w", selector, err)
		}
		if href = strings.TrimSpace(href); !ok || href == "" {
			continue
		}
		text, err := a.Text(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %q text: %w", selector, err)
		}
		name := normalizeName(text)
		if name == "" {
			name = href
		}
		out = append(out, namedLink{name: name, href: href})
	}
	return out, nil
}
