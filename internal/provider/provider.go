package provider

import (
	"context"
)

// SendRequest is one chat message to deliver.
type SendRequest struct {
	Phone string // digits only
	Text  string
}

// SendResult reports whether delivery was observed in the chat.
// Confirmed=false means the message was submitted but the sent bubble never
// showed up within the confirmation window.
type SendResult struct {
	Confirmed bool
}

// Provider abstracts delivery to a messaging client.
// Faking this interface in tests gives full control over delivery behaviour
// without driving a real browser.
type Provider interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
}
