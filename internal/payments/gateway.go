package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

// GatewayClient creates provider-side orders. Credentials travel per
// call from the tenant's channel config; nothing is read from the
// environment.
type GatewayClient interface {
	CreateOrder(ctx context.Context, cfg *models.GatewayConfig, amountPaise int64, receipt string) (providerOrderID string, err error)
}

// HTTPGateway talks to the providers' order-creation REST endpoints
// with the key pair as basic auth. Base URLs are swappable for tests.
type HTTPGateway struct {
	Client   *http.Client
	BaseURLs map[string]string
}

func NewHTTPGateway() *HTTPGateway {
	return &HTTPGateway{
		Client: &http.Client{Timeout: 15 * time.Second},
		BaseURLs: map[string]string{
			models.ProviderRazorpay: "https://api.razorpay.com/v1",
			models.ProviderPhonePe:  "https://api.phonepe.com/apis/pg/v1",
			models.ProviderPaytm:    "https://securegw.paytm.in/v1",
		},
	}
}

type gatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayOrderResponse struct {
	ID    string `json:"id"`
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, cfg *models.GatewayConfig, amountPaise int64, receipt string) (string, error) {
	base, ok := g.BaseURLs[cfg.Provider]
	if !ok {
		return "", apperr.Newf(apperr.Gateway, "unsupported payment provider %q", cfg.Provider)
	}

	body, err := json.Marshal(gatewayOrderRequest{
		Amount: amountPaise, Currency: "INR", Receipt: receipt,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "encode gateway order", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "build gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.Gateway, "payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	var parsed gatewayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.Gateway, "malformed gateway response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Error.Description
		if msg == "" {
			msg = fmt.Sprintf("gateway returned HTTP %d", resp.StatusCode)
		}
		return "", apperr.New(apperr.Gateway, msg)
	}
	if parsed.ID == "" {
		return "", apperr.New(apperr.Gateway, "gateway response missing order id")
	}
	return parsed.ID, nil
}
