package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dubinc/partner-integrity/internal/ports"
)

// QueueClient publishes outbound postbacks to the durable delivery queue over
// HTTP. The queue owns retries and invokes the callback URLs carried on the
// message once delivery settles.
type QueueClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type QueueClientConfig struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewQueueClient(cfg QueueClientConfig) *QueueClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &QueueClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: httpClient,
	}
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

func (c *QueueClient) Publish(ctx context.Context, msg ports.DeliveryMessage) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/publish/"+msg.URL, bytes.NewReader(msg.Body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for name, value := range msg.Headers {
		// Forward-prefixed headers are replayed verbatim on the
		// destination request by the queue.
		req.Header.Set("Dq-Forward-"+name, value)
	}
	if msg.CallbackURL != "" {
		req.Header.Set("Dq-Callback", msg.CallbackURL)
	}
	if msg.FailureCallbackURL != "" {
		req.Header.Set("Dq-Failure-Callback", msg.FailureCallbackURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish to delivery queue: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read queue response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("delivery queue returned status %d", resp.StatusCode)
	}

	var parsed publishResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode queue response: %w", err)
	}
	return parsed.MessageID, nil
}
