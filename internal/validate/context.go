package validate

import (
	"context"
	"time"
)

// Webhook is the proof-of-validation artifact attached to the request
// context after a delivery is accepted. Downstream handlers use the id as an
// idempotency/storage key.
type Webhook struct {
	ID        string
	Timestamp time.Time
}

type contextKey struct{}

func withWebhook(ctx context.Context, wh Webhook) context.Context {
	return context.WithValue(ctx, contextKey{}, wh)
}

// FromContext returns the validated webhook artifact, if the request passed
// the validator. Handlers reached through the validator middleware can rely
// on ok being true.
func FromContext(ctx context.Context) (Webhook, bool) {
	wh, ok := ctx.Value(contextKey{}).(Webhook)
	return wh, ok
}
