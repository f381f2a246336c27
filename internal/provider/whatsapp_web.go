package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/poll"
)

// WhatsAppWebOptions tunes the page interaction. Zero values are replaced
// by DefaultWhatsAppWebOptions.
type WhatsAppWebOptions struct {
	BaseURL           string
	EditorSelector    string
	SentSelectors     []string
	NavigationTimeout time.Duration
	EditorTimeout     time.Duration
	ConfirmWait       time.Duration
	ConfirmInterval   time.Duration
	IdleWait          time.Duration
	SettlePause       time.Duration
}

func DefaultWhatsAppWebOptions() WhatsAppWebOptions {
	return WhatsAppWebOptions{
		BaseURL:        "https://web.whatsapp.com/send",
		EditorSelector: `footer div[contenteditable="true"]`,
		SentSelectors: []string{
			`div.message-out`,
			`[data-testid="msg-container"] [data-icon^="msg-"]`,
			`span[data-icon="msg-check"], span[data-icon="msg-dblcheck"], span[data-icon="msg-time"]`,
		},
		NavigationTimeout: 60 * time.Second,
		EditorTimeout:     60 * time.Second,
		ConfirmWait:       10 * time.Second,
		ConfirmInterval:   250 * time.Millisecond,
		IdleWait:          3 * time.Second,
		SettlePause:       2500 * time.Millisecond,
	}
}

func (o WhatsAppWebOptions) withDefaults() WhatsAppWebOptions {
	d := DefaultWhatsAppWebOptions()
	if o.BaseURL == "" {
		o.BaseURL = d.BaseURL
	}
	if o.EditorSelector == "" {
		o.EditorSelector = d.EditorSelector
	}
	if len(o.SentSelectors) == 0 {
		o.SentSelectors = d.SentSelectors
	}
	if o.NavigationTimeout == 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.EditorTimeout == 0 {
		o.EditorTimeout = d.EditorTimeout
	}
	if o.ConfirmWait == 0 {
		o.ConfirmWait = d.ConfirmWait
	}
	if o.ConfirmInterval == 0 {
		o.ConfirmInterval = d.ConfirmInterval
	}
	if o.IdleWait == 0 {
		o.IdleWait = d.IdleWait
	}
	if o.SettlePause == 0 {
		o.SettlePause = d.SettlePause
	}
	return o
}

// WhatsAppWebProvider delivers messages by driving a WhatsApp Web tab.
// The page is reused sequentially; it must not be shared between goroutines.
type WhatsAppWebProvider struct {
	page   *rod.Page
	opts   WhatsAppWebOptions
	logger *zap.Logger
}

func NewWhatsAppWebProvider(page *rod.Page, opts WhatsAppWebOptions, logger *zap.Logger) *WhatsAppWebProvider {
	return &WhatsAppWebProvider{page: page, opts: opts.withDefaults(), logger: logger}
}

// ChatLink is the deep link that opens a chat with text pre-filled.
func ChatLink(baseURL, phone, text string) string {
	q := url.Values{}
	q.Set("phone", phone)
	q.Set("text", text)
	return baseURL + "?" + q.Encode()
}

// Send opens the chat, replaces the editor content with the message, sends
// it and waits for the sent bubble count to grow.
func (p *WhatsAppWebProvider) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	page := p.page.Context(ctx)

	link := ChatLink(p.opts.BaseURL, req.Phone, req.Text)
	if err := page.Timeout(p.opts.NavigationTimeout).Navigate(link); err != nil {
		return nil, fmt.Errorf("navigate to chat: %w", err)
	}

	editor, err := page.Timeout(p.opts.EditorTimeout).Element(p.opts.EditorSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEditorNotFound, err)
	}
	editor = editor.Context(ctx)

	before := p.countSent(page)

	if err := editor.Focus(); err != nil {
		return nil, fmt.Errorf("focus editor: %w", err)
	}
	if err := page.KeyActions().Press(input.ControlLeft).Type(input.KeyA).Release(input.ControlLeft).Do(); err != nil {
		return nil, fmt.Errorf("select editor text: %w", err)
	}
	if err := page.Keyboard.Type(input.Backspace); err != nil {
		return nil, fmt.Errorf("clear editor: %w", err)
	}
	if err := page.InsertText(req.Text); err != nil {
		return nil, fmt.Errorf("insert text: %w", err)
	}
	if err := page.Keyboard.Type(input.Enter); err != nil {
		return nil, fmt.Errorf("press enter: %w", err)
	}

	confirmed := poll.Until(ctx, p.opts.ConfirmInterval, p.opts.ConfirmWait, func(context.Context) bool {
		return p.countSent(page) > before
	})
	if confirmed {
		return &SendResult{Confirmed: true}, nil
	}

	p.logger.Debug("sent bubble not observed, waiting for page to settle",
		zap.Int("count_before", before))
	_ = page.Timeout(p.opts.IdleWait).WaitIdle(p.opts.IdleWait)
	if err := poll.Sleep(ctx, p.opts.SettlePause); err != nil {
		return nil, err
	}
	return &SendResult{Confirmed: false}, nil
}

// countSent returns the number of outgoing bubbles using the first selector
// that matches anything.
func (p *WhatsAppWebProvider) countSent(page *rod.Page) int {
	for _, sel := range p.opts.SentSelectors {
		els, err := page.Elements(sel)
		if err == nil && len(els) > 0 {
			return len(els)
		}
	}
	return 0
}

// compile-time check that WhatsAppWebProvider implements Provider
var _ Provider = (*WhatsAppWebProvider)(nil)
