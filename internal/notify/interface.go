package notify

import "context"

// Mirror receives a copy of every published event, independent of whether the
// recipient has live subscriptions. Implemented by outbound integrations.
type Mirror interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, recipient RecipientID, evt Event) error
}

// Publisher is the side of the Dispatcher that domain code depends on.
type Publisher interface {
	Publish(recipient RecipientID, evt Event)
}

var _ Publisher = (*Dispatcher)(nil)
