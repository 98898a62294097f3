package ports

import "context"

// Notifier delivers a message to an address (email today). Delivery failures
// are returned to the caller, never swallowed.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
