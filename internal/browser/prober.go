// Package browser brings up and connects to the browser that hosts the
// WhatsApp Web session, through its remote debugging port.
package browser

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/streamhub/notifier/internal/poll"
)

// Prober checks whether a browser answers on its DevTools HTTP endpoint.
type Prober struct {
	Host     string
	Interval time.Duration
	client   *http.Client
}

// NewProber polls 127.0.0.1 every 500ms; a single probe gives up after 900ms.
func NewProber() *Prober {
	return &Prober{
		Host:     "127.0.0.1",
		Interval: 500 * time.Millisecond,
		client:   &http.Client{Timeout: 900 * time.Millisecond},
	}
}

// Ready performs one probe. Any transport error or non-200 status means
// "not ready yet".
func (p *Prober) Ready(ctx context.Context, port int) bool {
	url := fmt.Sprintf("http://%s/json/version", net.JoinHostPort(p.Host, strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitForDebugger polls until the port answers or maxWait elapses.
func (p *Prober) WaitForDebugger(ctx context.Context, port int, maxWait time.Duration) bool {
	return poll.Until(ctx, p.Interval, maxWait, func(ctx context.Context) bool {
		return p.Ready(ctx, port)
	})
}
