package ports

import "context"

// DisposableDomainStore answers set-membership queries against the maintained
// disposable email domain denylist.
type DisposableDomainStore interface {
	IsDisposable(ctx context.Context, emailDomain string) (bool, error)
}

// DeliveryMessage is one durable-queue publish: the queue owns delivery,
// retries, and the eventual success/failure callback invocation.
type DeliveryMessage struct {
	URL                string
	Body               []byte
	Headers            map[string]string
	CallbackURL        string
	FailureCallbackURL string
}

type DeliveryQueue interface {
	// Publish enqueues the message and returns the queue's message ID.
	Publish(ctx context.Context, msg DeliveryMessage) (string, error)
}

// PayloadSigner produces the signature attached to outbound postback bodies.
type PayloadSigner interface {
	Sign(secret string, payload []byte) string
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
