package fanout

import (
	"context"
	"log"
	"time"

	"canteen-backend/internal/events"
	"canteen-backend/internal/models"
)

// Dispatcher pushes paid online orders to every registered counter
// device. POS and kiosk orders are settled at the counter itself and
// never fan out.
type Dispatcher struct {
	store  DeviceStore
	sender Sender
}

func NewDispatcher(store DeviceStore, sender Sender) *Dispatcher {
	return &Dispatcher{store: store, sender: sender}
}

// Attach subscribes to order.paid. Delivery runs in its own goroutine;
// a slow push relay must never stall the payment callback.
func (d *Dispatcher) Attach(bus *events.Bus) {
	bus.Subscribe(events.OrderPaid, func(e events.Event) {
		if !models.OnlineSource(e.Source) {
			return
		}
		go d.Dispatch(context.Background(), e.TenantID, e.OrderID)
	})
}

// Dispatch sends the order notification to all of the tenant's devices.
// Per-device failures are logged and skipped; one dead token must not
// silence the rest of the counter.
func (d *Dispatcher) Dispatch(ctx context.Context, tenantID, orderID string) int {
	devices, err := d.store.List(tenantID)
	if err != nil {
		log.Printf("fanout: list devices for tenant %s: %v", tenantID, err)
		return 0
	}
	if len(devices) == 0 {
		return 0
	}
	settings, err := d.store.Settings(tenantID)
	if err != nil || settings.PushServerKey == "" {
		log.Printf("fanout: tenant %s has no push server key configured", tenantID)
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	msg := Message{Type: PushTypeOrder, OrderID: orderID}
	delivered := 0
	for i := range devices {
		if err := d.sender.Push(ctx, settings.PushServerKey, devices[i].Token, msg); err != nil {
			log.Printf("fanout: push to device %s: %v", devices[i].ID, err)
			continue
		}
		delivered++
	}
	return delivered
}
