package chromedp

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/chromedp/cdproto/network"
)

// responseMeta records the main document response of a tab.
type responseMeta struct {
	mu     sync.RWMutex
	status int
	url    string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	if resp, ok := ev.(*network.EventResponseReceived); ok {
		m.capture(resp)
	}
}

func (m *responseMeta) capture(event *network.EventResponseReceived) {
	if event.Type != network.ResourceTypeDocument || event.Response == nil {
		return
	}
	m.mu.Lock()
	m.status = int(event.Response.Status)
	m.url = event.Response.URL
	m.mu.Unlock()
}

// check fails for error statuses. No captured status counts as success.
func (m *responseMeta) check() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status >= http.StatusBadRequest {
		return fmt.Errorf("document status %d", m.status)
	}
	return nil
}

func (m *responseMeta) finalURL(location, requested string) string {
	switch {
	case location != "":
		return location
	default:
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.url != "" {
			return m.url
		}
		return requested
	}
}
