package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChunkSize is the provider's maximum batch size.
const ChunkSize = 100

// DeviceNotRegistered is the provider error code for a dead token; the
// destination is deactivated when it appears.
const DeviceNotRegistered = "DeviceNotRegistered"

// PushMessage is one notification addressed to a single destination token.
type PushMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Category string            `json:"categoryId,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

// Ticket is the provider's per-message outcome. A batch never fails as a
// whole; each destination succeeds or fails on its own.
type Ticket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

// OK reports whether the ticket is a success.
func (t Ticket) OK() bool {
	return t.Status == "ok"
}

// Provider dispatches one provider-sized chunk of push messages.
type Provider interface {
	SendBatch(ctx context.Context, messages []PushMessage) ([]Ticket, error)
}

// HTTPProvider talks to an Expo-compatible push endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider constructs an HTTPProvider.
func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendBatch posts the chunk and decodes the per-message ticket array.
func (p *HTTPProvider) SendBatch(ctx context.Context, messages []PushMessage) ([]Ticket, error) {
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push provider status %d", resp.StatusCode)
	}

	var decoded struct {
		Data []Ticket `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return decoded.Data, nil
}
