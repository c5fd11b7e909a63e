package email

import "context"

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Receipt is the provider's application-level answer. A 2xx response can
// still carry Success=false when the provider rejects the message.
type Receipt struct {
	Success   bool
	MessageID string
	Message   string
}

type Provider interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// NoOpProvider accepts every message without sending anything. Used in dev
// and tests, and whenever no API key is configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	_ = ctx
	_ = msg
	return &Receipt{Success: true, MessageID: "noop"}, nil
}
