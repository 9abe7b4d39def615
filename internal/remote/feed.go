package remote

import "context"

// ChangeFeed delivers "something in the projects table changed" signals.
// Payloads are never inspected; every signal means "reload everything".
type ChangeFeed interface {
	// Publish announces a change made by this process. Feeds whose backend
	// publishes on its own may treat this as a no-op.
	Publish(ctx context.Context) error
	// Subscribe invokes onChange for every change until the subscription is closed.
	Subscribe(ctx context.Context, onChange func()) (Subscription, error)
}

// Subscription is an active change listener.
type Subscription interface {
	Close() error
}
