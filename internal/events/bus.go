// Package events is the in-process domain event bus. Order intake and
// the payment orchestrator publish; fulfillment fan-out subscribes.
package events

import "sync"

// Event names.
const (
	OrderCreated = "order.created"
	OrderPaid    = "order.paid"
	OrderFailed  = "order.failed"
)

type Event struct {
	Name     string
	TenantID string
	OrderID  string
	Source   string
}

type Handler func(Event)

// Bus delivers events synchronously in subscription order. Handlers
// that need to do slow work spin off their own goroutines.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Name]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(e)
	}
}
