package fanout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/httpclient"
	"canteen-backend/internal/models"
)

const (
	ingressWindow = 2 * time.Second
	printWindow   = 5 * time.Minute

	tonePulses = 6
	toneFreqHz = 2500
)

// Backend is what the device needs from the server to act on a push.
type Backend interface {
	Order(ctx context.Context, tenantID, orderID string) (*models.Order, error)
	Settings(ctx context.Context, tenantID string) (*models.TenantSettings, error)
}

// Beeper plays the new-order alert.
type Beeper interface {
	// PlayURL plays the tenant's custom alert audio.
	PlayURL(url string) error
	// Tone synthesizes the fallback alert: pulses beeps at freqHz.
	Tone(pulses, freqHz int) error
}

// Printer drives the counter's thermal printer.
type Printer interface {
	Receipt(printerName string, order *models.Order) error
	KitchenSlip(printerName, category string, items []models.OrderItem) error
}

// Subscriber is the device-side half of fulfillment: one per counter
// process, started after login and stopped on logout.
type Subscriber struct {
	backend Backend
	beeper  Beeper
	printer Printer

	// Override is set by screens that take over order handling (the
	// active checkout page); pushes are dropped while it holds.
	Override atomic.Bool

	// ingress collapses the duplicate callbacks push SDKs fire for one
	// notification; printed guarantees at most one print per order.
	ingress *expirable.LRU[string, struct{}]
	printed *expirable.LRU[string, struct{}]

	mu       sync.Mutex
	tenantID string
	running  bool
}

func NewSubscriber(backend Backend, beeper Beeper, printer Printer) *Subscriber {
	return &Subscriber{
		backend: backend,
		beeper:  beeper,
		printer: printer,
		ingress: expirable.NewLRU[string, struct{}](256, nil, ingressWindow),
		printed: expirable.NewLRU[string, struct{}](1024, nil, printWindow),
	}
}

// Start binds the subscriber to a tenant.
func (s *Subscriber) Start(tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return apperr.New(apperr.Conflict, "subscriber already started")
	}
	s.tenantID = tenantID
	s.running = true
	return nil
}

// Stop unbinds. A stopped subscriber drops everything.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.tenantID = ""
}

func (s *Subscriber) state() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID, s.running
}

// HandlePush processes one incoming push message.
func (s *Subscriber) HandlePush(ctx context.Context, msg Message) error {
	tenantID, running := s.state()
	if !running || msg.Type != PushTypeOrder {
		return nil
	}
	if s.Override.Load() {
		return nil
	}
	if _, seen := s.ingress.Get(msg.OrderID); seen {
		return nil
	}
	s.ingress.Add(msg.OrderID, struct{}{})

	order, err := s.backend.Order(ctx, tenantID, msg.OrderID)
	if err != nil {
		return err
	}
	return s.HandleOrder(ctx, order)
}

// HandleOrder alerts and prints for one order. Also called directly by
// the local checkout flow for POS orders.
func (s *Subscriber) HandleOrder(ctx context.Context, order *models.Order) error {
	tenantID, running := s.state()
	if !running {
		return nil
	}
	if _, done := s.printed.Get(order.ID); done {
		return nil
	}
	s.printed.Add(order.ID, struct{}{})

	settings, err := s.backend.Settings(ctx, tenantID)
	if err != nil {
		settings = &models.TenantSettings{}
	}

	if settings.AlertAudioURL != "" {
		if err := s.beeper.PlayURL(settings.AlertAudioURL); err != nil {
			log.Printf("fanout: custom alert failed, falling back to tone: %v", err)
			s.beeper.Tone(tonePulses, toneFreqHz)
		}
	} else {
		s.beeper.Tone(tonePulses, toneFreqHz)
	}

	if err := s.printer.Receipt(settings.PrinterName, order); err != nil {
		return apperr.Wrap(apperr.Internal, "print receipt", err)
	}

	// Kitchen slips are a counter-service concern; online orders are
	// handed over whole from the main receipt.
	if order.Source == models.SourcePOS {
		for _, group := range kitchenGroups(order.Items.Data()) {
			if err := s.printer.KitchenSlip(settings.PrinterName, group.Category, group.Items); err != nil {
				return apperr.Wrap(apperr.Internal, fmt.Sprintf("print kitchen slip %q", group.Category), err)
			}
		}
	}
	return nil
}

type slipGroup struct {
	Category string
	Items    []models.OrderItem
}

// kitchenGroups segregates items per category, preserving the order the
// categories first appear in.
func kitchenGroups(items []models.OrderItem) []slipGroup {
	index := map[string]int{}
	var groups []slipGroup
	for _, item := range items {
		category := item.CategoryID
		if category == "" {
			category = "general"
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, slipGroup{Category: category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// HTTPBackend fetches orders and settings over the client layer, with a
// short settings cache so every push does not refetch the document.
type HTTPBackend struct {
	Client  *httpclient.Client
	BaseURL string
}

func (b *HTTPBackend) Order(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	var envelope struct {
		Data models.Order `json:"data"`
	}
	url := fmt.Sprintf("%s/api/%s/orders/%s", b.BaseURL, tenantID, orderID)
	if err := b.Client.GetJSON(ctx, url, &envelope, httpclient.Options{}); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (b *HTTPBackend) Settings(ctx context.Context, tenantID string) (*models.TenantSettings, error) {
	var envelope struct {
		Data models.TenantSettings `json:"data"`
	}
	url := fmt.Sprintf("%s/api/%s/settings", b.BaseURL, tenantID)
	opts := httpclient.Options{CacheKey: "settings:" + tenantID, CacheTTL: 30 * time.Second}
	if err := b.Client.GetJSON(ctx, url, &envelope, opts); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}
