package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/httpclient"
)

const (
	tickInterval   = time.Second
	probeTimeout   = 3 * time.Second
	disconnectHold = 5 * time.Second
	maxRetries     = 3
)

// dbDisconnectSignatures mark a 5xx whose real cause is the backend's
// own database being down. Those entries stay pending with the retry
// count frozen; counting them as failures would exhaust the retry
// budget during a backend restart.
var dbDisconnectSignatures = []string{
	"Database connection",
	"will retry when connection is restored",
	"ECONNREFUSED",
	"MongoNetworkError",
}

// IsDBDisconnect reports whether a response body carries a known
// database-disconnect signature.
func IsDBDisconnect(body string) bool {
	for _, sig := range dbDisconnectSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}

// Syncer drains the queue against the order intake endpoint on a
// one-second tick. A connectivity probe gates each cycle so the queue
// never burns retries while the device is plainly offline.
type Syncer struct {
	queue    *Queue
	client   *httpclient.Client
	endpoint string
	probeURL string

	probe   *http.Client
	running atomic.Bool
	stop    chan struct{}
	stopped chan struct{}

	holdUntil time.Time
	now       func() time.Time
}

// NewSyncer wires a queue to the intake endpoint. probeURL should be a
// cheap unauthenticated route such as /health.
func NewSyncer(queue *Queue, client *httpclient.Client, endpoint, probeURL string) *Syncer {
	return &Syncer{
		queue:    queue,
		client:   client,
		endpoint: endpoint,
		probeURL: probeURL,
		probe:    &http.Client{Timeout: probeTimeout},
		now:      time.Now,
	}
}

// Start launches the tick loop. Safe to call once per syncer.
func (s *Syncer) Start() {
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop halts the loop and waits for the current cycle to finish.
func (s *Syncer) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.stopped
}

// tick runs one cycle unless the previous one is still going.
func (s *Syncer) tick() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)
	s.SyncOnce(context.Background())
}

// SyncOnce probes connectivity and drains due entries FIFO. Exposed so
// callers can force a cycle after re-login.
func (s *Syncer) SyncOnce(ctx context.Context) {
	if s.queue.Len() == 0 {
		return
	}
	if s.now().Before(s.holdUntil) {
		return
	}
	if !s.Online(ctx) {
		return
	}

	s.queue.Rescue(maxRetries)

	for _, entry := range s.queue.Entries() {
		if !s.due(entry) {
			continue
		}
		if stop := s.send(ctx, entry); stop {
			return
		}
	}
}

// Online runs the HEAD probe.
func (s *Syncer) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// due applies the failed-entry backoff: 2s, 4s, then 8s between
// attempts, measured from the last attempt.
func (s *Syncer) due(entry Entry) bool {
	if entry.SyncStatus != StatusFailed {
		return true
	}
	var backoff time.Duration
	switch {
	case entry.RetryCount <= 1:
		backoff = 2 * time.Second
	case entry.RetryCount == 2:
		backoff = 4 * time.Second
	default:
		backoff = 8 * time.Second
	}
	return s.now().Sub(entry.LastAttemptAt) >= backoff
}

// send pushes one entry. The bool result asks the cycle to stop early
// (connectivity was lost mid-drain).
func (s *Syncer) send(ctx context.Context, entry Entry) bool {
	s.queue.SetStatus(entry.QueueID, StatusSyncing, "", false, s.now())

	body, err := json.Marshal(TransformPayload(entry.QueueID, entry.Payload))
	if err != nil {
		s.queue.SetStatus(entry.QueueID, StatusFailed, err.Error(), true, s.now())
		return false
	}

	resp, err := s.client.Do(ctx, http.MethodPost, s.endpoint, body, httpclient.Options{})
	if err != nil {
		if apperr.IsKind(err, apperr.Transient) {
			// Backend went away mid-cycle. Freeze the entry and hold.
			s.queue.SetStatus(entry.QueueID, StatusPending, err.Error(), false, s.now())
			s.holdUntil = s.now().Add(disconnectHold)
			return true
		}
		s.queue.SetStatus(entry.QueueID, StatusFailed, err.Error(), true, s.now())
		return false
	}

	if resp.OK() {
		if err := s.queue.Complete(entry.QueueID); err != nil {
			log.Printf("offline sync: confirmed %s but could not persist removal: %v", entry.QueueID, err)
		}
		return false
	}

	bodyText := string(resp.Body)
	if resp.StatusCode >= 500 && IsDBDisconnect(bodyText) {
		s.queue.SetStatus(entry.QueueID, StatusPending, firstLine(bodyText), false, s.now())
		s.holdUntil = s.now().Add(disconnectHold)
		return true
	}

	s.queue.SetStatus(entry.QueueID, StatusFailed,
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, firstLine(bodyText)), true, s.now())
	return false
}

// TransformPayload converts a locally captured draft into the intake
// wire shape: product -> productId, price -> unitPrice, size forced to
// string, and the queue id attached as clientRef.
func TransformPayload(queueID string, payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["clientRef"] = queueID

	items, ok := out["items"].([]interface{})
	if !ok {
		return out
	}
	converted := make([]interface{}, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			converted = append(converted, raw)
			continue
		}
		next := make(map[string]interface{}, len(item))
		for k, v := range item {
			switch k {
			case "product":
				next["productId"] = v
			case "price":
				next["unitPrice"] = v
			case "size":
				next["size"] = fmt.Sprintf("%v", v)
			default:
				next[k] = v
			}
		}
		converted = append(converted, next)
	}
	out["items"] = converted
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return strings.TrimSpace(s)
}
