package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APISender posts messages to a transactional email HTTP API that accepts
// {sender, to, subject, htmlContent} and authenticates with an api-key header.
type APISender struct {
	url    string
	apiKey string
	from   Address
	client *http.Client
}

// NewAPISender creates an APISender.
func NewAPISender(url, apiKey string, from Address, timeout time.Duration) *APISender {
	return &APISender{
		url:    url,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: timeout},
	}
}

type apiRequest struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

func (s *APISender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(apiRequest{
		Sender:      s.from,
		To:          []Address{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrDelivery, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: provider responded %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
