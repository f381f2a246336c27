package provider_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/notifier/internal/provider"
)

func TestChatLink_EncodesPhoneAndText(t *testing.T) {
	link := provider.ChatLink("https://web.whatsapp.com/send", "573001112222", "¡Hola Ana!\n• Netflix & más")

	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "web.whatsapp.com", u.Host)
	require.Equal(t, "/send", u.Path)
	require.Equal(t, "573001112222", u.Query().Get("phone"))
	require.Equal(t, "¡Hola Ana!\n• Netflix & más", u.Query().Get("text"))
}

func TestDefaultWhatsAppWebOptions(t *testing.T) {
	opts := provider.DefaultWhatsAppWebOptions()
	require.Len(t, opts.SentSelectors, 3)
	require.Equal(t, "https://web.whatsapp.com/send", opts.BaseURL)
	require.NotEmpty(t, opts.EditorSelector)
}
