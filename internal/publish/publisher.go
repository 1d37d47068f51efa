// Package publish delivers signed webhook payloads to a single endpoint.
// One Publisher, one endpoint, one key: retries, backoff and queuing belong
// to the caller, not here.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sigilhq/sigil/internal/signature"
)

// DefaultTimeout bounds one delivery attempt end to end.
const DefaultTimeout = 10 * time.Second

// Publisher signs payloads and POSTs them to its endpoint.
type Publisher struct {
	endpoint string
	signer   *signature.Signer
	client   *http.Client
	logger   *slog.Logger
}

// New builds a Publisher for endpoint, signing with keys from source. A nil
// client gets a default with DefaultTimeout; a nil clock uses the system
// clock; a nil logger uses slog.Default().
func New(endpoint string, source signature.KeySource, clock signature.Clock, client *http.Client, logger *slog.Logger) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		endpoint: endpoint,
		signer:   signature.NewSigner(source, clock),
		client:   client,
		logger:   logger,
	}
}

// Publish signs payload under id with the current time and delivers it as an
// HTTP POST. It returns the endpoint's status code, or 0 with a non-nil
// error on argument or transport failure. The response body is discarded;
// interpreting endpoint semantics is the caller's concern.
func (p *Publisher) Publish(ctx context.Context, id string, payload []byte) (int, error) {
	headers, err := p.signer.SignNow(id, payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	headers.Apply(req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	p.logger.Debug("webhook delivered",
		"endpoint", p.endpoint,
		"message_id", id,
		"status", resp.StatusCode,
	)
	return resp.StatusCode, nil
}
