//go:build integration

package provider_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/provider"
)

// fakeChat mimics the parts of the chat page the provider touches: a
// contenteditable editor in a footer that appends an outgoing bubble on Enter.
const fakeChat = `<html><body>
<div id="log"></div>
<footer><div contenteditable="true" id="editor"></div></footer>
<script>
const params = new URLSearchParams(location.search);
const editor = document.getElementById('editor');
editor.textContent = params.get('text') || '';
editor.addEventListener('keydown', (e) => {
  if (e.key === 'Enter') {
    e.preventDefault();
    const b = document.createElement('div');
    b.className = 'message-out';
    b.textContent = editor.textContent;
    document.getElementById('log').appendChild(b);
    editor.textContent = '';
  }
});
</script></body></html>`

func TestWhatsAppWebProvider_Send_Integration(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fakeChat)
	}))
	defer ts.Close()

	u, err := launcher.New().Headless(true).Launch()
	require.NoError(t, err, "launch browser")

	browser := rod.New().ControlURL(u)
	require.NoError(t, browser.Connect())
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	require.NoError(t, err)

	opts := provider.DefaultWhatsAppWebOptions()
	opts.BaseURL = ts.URL + "/send"
	opts.EditorTimeout = 10 * time.Second
	opts.ConfirmWait = 3 * time.Second
	p := provider.NewWhatsAppWebProvider(page, opts, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := p.Send(ctx, provider.SendRequest{Phone: "573001112222", Text: "hola"})
	require.NoError(t, err)
	require.True(t, res.Confirmed)

	bubble, err := page.Element("div.message-out")
	require.NoError(t, err)
	require.Equal(t, "hola", bubble.MustText())
}
