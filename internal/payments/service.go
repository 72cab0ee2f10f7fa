package payments

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/events"
	"canteen-backend/internal/models"
)

// OrderStore is the slice of order persistence the orchestrator needs.
type OrderStore interface {
	Get(tenantID, orderID string) (*models.Order, error)
	Save(order *models.Order) error
	// PendingBefore lists orders still payment-pending that were
	// created before the cutoff.
	PendingBefore(cutoff time.Time) ([]models.Order, error)
}

// ConfigStore persists per (tenant, channel) gateway configuration.
type ConfigStore interface {
	Get(tenantID, channel string) (*models.GatewayConfig, error)
	Upsert(cfg *models.GatewayConfig) error
}

// Service drives the payment state machine:
// pending -> paid | failed | cancelled, terminal after that.
type Service struct {
	orders  OrderStore
	configs ConfigStore
	gateway GatewayClient
	bus     *events.Bus
}

func NewService(orders OrderStore, configs ConfigStore, gateway GatewayClient, bus *events.Bus) *Service {
	return &Service{orders: orders, configs: configs, gateway: gateway, bus: bus}
}

// ChannelFor maps an order source to the gateway channel its tenant
// config lives under.
func ChannelFor(source string) string {
	if source == models.SourceKiosk {
		return models.ChannelKiosk
	}
	return models.ChannelOnline
}

// GetConfig returns the channel config. KeySecret stays server-side;
// handlers expose only the json-visible fields.
func (s *Service) GetConfig(tenantID, channel string) (*models.GatewayConfig, error) {
	if channel != models.ChannelKiosk && channel != models.ChannelOnline {
		return nil, apperr.Newf(apperr.Validation, "channel must be kiosk or online, got %q", channel)
	}
	return s.configs.Get(tenantID, channel)
}

// UpsertConfig validates and stores a channel config.
func (s *Service) UpsertConfig(cfg *models.GatewayConfig) error {
	if cfg.Channel != models.ChannelKiosk && cfg.Channel != models.ChannelOnline {
		return apperr.Newf(apperr.Validation, "channel must be kiosk or online, got %q", cfg.Channel)
	}
	switch cfg.Provider {
	case models.ProviderRazorpay, models.ProviderPhonePe, models.ProviderPaytm:
	default:
		return apperr.Newf(apperr.Validation, "unknown provider %q", cfg.Provider)
	}
	if cfg.Enabled && (cfg.KeyID == "" || cfg.KeySecret == "") {
		return apperr.New(apperr.Validation, "enabled config requires key id and secret")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	return s.configs.Upsert(cfg)
}

// CreateOrderResult is what the paying client needs to open the
// gateway UI. The secret never leaves the server.
type CreateOrderResult struct {
	ProviderOrderID string  `json:"providerOrderId"`
	TransactionID   string  `json:"transactionId"`
	Provider        string  `json:"provider"`
	KeyID           string  `json:"keyId"`
	Amount          float64 `json:"amount"`
	AmountPaise     int64   `json:"amountPaise"`
}

// CreateGatewayOrder creates the provider-side order for a pending
// platform order and persists the provider references.
func (s *Service) CreateGatewayOrder(ctx context.Context, tenantID, orderID, method string) (*CreateOrderResult, error) {
	order, err := s.orders.Get(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPending {
		return nil, apperr.Newf(apperr.Conflict, "order payment is already %s", order.PaymentStatus)
	}

	cfg, err := s.configs.Get(tenantID, ChannelFor(order.Source))
	if err != nil || !cfg.Enabled {
		return nil, apperr.New(apperr.Gateway, "payment gateway not ready")
	}
	if method != "" && !methodAccepted(cfg.AcceptedMethods.Data(), method) {
		return nil, apperr.Newf(apperr.Validation, "payment method %q is not accepted", method)
	}

	amountPaise := int64(math.Round(order.Total * 100))
	receipt := order.TenantID + "-" + strconv.FormatInt(order.OrderNumber, 10)
	providerOrderID, err := s.gateway.CreateOrder(ctx, cfg, amountPaise, receipt)
	if err != nil {
		return nil, err
	}

	order.PaymentProvider = cfg.Provider
	order.PaymentMethod = method
	order.ProviderOrderID = providerOrderID
	order.TransactionID = uuid.NewString()
	order.UpdatedAt = time.Now()
	if err := s.orders.Save(order); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist gateway order", err)
	}

	return &CreateOrderResult{
		ProviderOrderID: providerOrderID,
		TransactionID:   order.TransactionID,
		Provider:        cfg.Provider,
		KeyID:           cfg.KeyID,
		Amount:          order.Total,
		AmountPaise:     amountPaise,
	}, nil
}

// Callback is the signed success payload the client forwards after the
// gateway UI completes.
type Callback struct {
	TenantID        string `json:"tenantId"`
	OrderID         string `json:"orderId"`
	ProviderOrderID string `json:"providerOrderId"`
	PaymentID       string `json:"paymentId"`
	Signature       string `json:"signature"`
	TransactionID   string `json:"transactionId"`
}

// VerifyPayment settles an order from a gateway callback. A repeat
// callback for an already-paid order returns success without a second
// transition and without re-emitting order.paid; gateway SDKs are
// known to fire the success handler more than once.
func (s *Service) VerifyPayment(cb Callback) (*models.Order, error) {
	order, err := s.orders.Get(cb.TenantID, cb.OrderID)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case models.PaymentPaid, models.PaymentCompleted:
		return order, nil
	case models.PaymentFailed, models.PaymentCancelled:
		return nil, apperr.Newf(apperr.Conflict, "order payment is already %s", order.PaymentStatus)
	}

	if order.ProviderOrderID == "" || order.ProviderOrderID != cb.ProviderOrderID {
		return nil, apperr.New(apperr.Validation, "callback does not match the order's gateway reference")
	}

	cfg, err := s.configs.Get(cb.TenantID, ChannelFor(order.Source))
	if err != nil {
		return nil, apperr.New(apperr.Gateway, "payment gateway not ready")
	}

	if !VerifySignature(cb.ProviderOrderID, cb.PaymentID, cfg.KeySecret, cb.Signature) {
		order.PaymentStatus = models.PaymentFailed
		order.UpdatedAt = time.Now()
		if err := s.orders.Save(order); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "persist failed payment", err)
		}
		s.bus.Publish(events.Event{
			Name: events.OrderFailed, TenantID: order.TenantID,
			OrderID: order.ID, Source: order.Source,
		})
		return nil, apperr.New(apperr.Gateway, "payment signature verification failed")
	}

	order.PaymentStatus = models.PaymentPaid
	order.PaymentID = cb.PaymentID
	order.UpdatedAt = time.Now()
	if err := s.orders.Save(order); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist paid payment", err)
	}
	s.bus.Publish(events.Event{
		Name: events.OrderPaid, TenantID: order.TenantID,
		OrderID: order.ID, Source: order.Source,
	})
	return order, nil
}

// CancelPayment moves a pending order to cancelled (user dismissed the
// gateway UI, or the sweeper timed it out).
func (s *Service) CancelPayment(tenantID, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPending {
		return nil, apperr.Newf(apperr.Conflict, "order payment is already %s", order.PaymentStatus)
	}
	order.PaymentStatus = models.PaymentCancelled
	order.Status = models.OrderCancelled
	order.UpdatedAt = time.Now()
	if err := s.orders.Save(order); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist cancelled payment", err)
	}
	return order, nil
}

// SweepPending cancels orders that have sat in pending longer than the
// timeout. Run on a timer; the webhook reconciliation path settles any
// order the gateway actually captured before the sweep reaches it.
func (s *Service) SweepPending(timeout time.Duration) int {
	stale, err := s.orders.PendingBefore(time.Now().Add(-timeout))
	if err != nil {
		log.Printf("pending sweep: %v", err)
		return 0
	}
	swept := 0
	for i := range stale {
		if _, err := s.CancelPayment(stale[i].TenantID, stale[i].ID); err == nil {
			swept++
		}
	}
	if swept > 0 {
		log.Printf("pending sweep cancelled %d stale orders", swept)
	}
	return swept
}

func methodAccepted(m models.AcceptedMethods, method string) bool {
	switch method {
	case "cash":
		return m.Cash
	case "card":
		return m.Card
	case "upi":
		return m.UPI
	case "netbanking":
		return m.Netbanking
	case "wallet":
		return m.Wallet
	}
	return false
}
