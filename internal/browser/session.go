package browser

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/provider"
)

const (
	chatOrigin   = "https://web.whatsapp.com"
	closeTimeout = 5 * time.Second
)

// Session is a live connection to the browser plus the tab used for chats.
type Session struct {
	browser  *rod.Browser
	page     *rod.Page
	ws       *cdp.WebSocket
	ownsPage bool
	provider provider.Provider
}

// Connect attaches to the browser listening on host:port. It owns the
// websocket so Disconnect can drop the connection without closing the
// browser. An open chat tab is reused; otherwise a new tab is created.
func Connect(ctx context.Context, host string, port int, logger *zap.Logger) (*Session, error) {
	wsURL, err := launcher.ResolveURL(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve devtools url: %v", domain.ErrBrowserConnect, err)
	}

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, wsURL, nil); err != nil {
		return nil, fmt.Errorf("%w: websocket: %v", domain.ErrBrowserConnect, err)
	}

	b := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := b.Connect(); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserConnect, err)
	}

	s := &Session{browser: b, ws: ws}

	pages, err := b.Pages()
	if err == nil {
		for _, pg := range pages {
			info, infoErr := pg.Info()
			if infoErr == nil && strings.HasPrefix(info.URL, chatOrigin) {
				s.page = pg
				break
			}
		}
	}
	if s.page == nil {
		pg, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("%w: open tab: %v", domain.ErrBrowserConnect, err)
		}
		s.page = pg
		s.ownsPage = true
	}

	logger.Info("connected to browser",
		zap.String("ws_url", wsURL),
		zap.Bool("reused_tab", !s.ownsPage))
	return s, nil
}

// Page returns the chat tab.
func (s *Session) Page() *rod.Page { return s.page }

// Provider returns the delivery provider bound to the chat tab.
func (s *Session) Provider() provider.Provider { return s.provider }

// ClosePage closes the tab if this session opened it. The close still
// runs when ctx is already cancelled, bounded by closeTimeout.
func (s *Session) ClosePage(ctx context.Context) error {
	if s.page == nil || !s.ownsPage {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	return s.page.Context(ctx).Close()
}

// Disconnect drops the DevTools connection; the browser keeps running.
func (s *Session) Disconnect() error {
	if s.ws == nil {
		return nil
	}
	return s.ws.Close()
}
