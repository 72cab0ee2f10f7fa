// Package fanout delivers paid online orders to the tenant's counter
// devices: a server-side dispatcher pushes, a device-side subscriber
// beeps and prints.
package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"canteen-backend/internal/apperr"
)

// PushTypeOrder tells the device which handler to run.
const PushTypeOrder = "pos_order"

// Message is the push payload. Deliberately tiny: the device fetches
// the order itself so a stale push can never print stale data.
type Message struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
}

// Sender delivers one message to one device token. The server key
// comes from the tenant's settings document, passed per call.
type Sender interface {
	Push(ctx context.Context, serverKey, token string, msg Message) error
}

// HTTPSender posts to an FCM-style relay endpoint.
type HTTPSender struct {
	Client *http.Client
	URL    string
}

func NewHTTPSender(url string) *HTTPSender {
	return &HTTPSender{
		Client: &http.Client{Timeout: 10 * time.Second},
		URL:    url,
	}
}

type pushRequest struct {
	To   string  `json:"to"`
	Data Message `json:"data"`
}

func (s *HTTPSender) Push(ctx context.Context, serverKey, token string, msg Message) error {
	body, err := json.Marshal(pushRequest{To: token, Data: msg})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode push", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.Internal, "build push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+serverKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Transient, "push relay unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.New(apperr.Gateway, fmt.Sprintf("push relay returned HTTP %d", resp.StatusCode))
	}
	return nil
}
