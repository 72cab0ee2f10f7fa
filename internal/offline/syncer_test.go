package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"canteen-backend/internal/httpclient"
)

type scriptedBackend struct {
	mu       sync.Mutex
	status   int
	body     string
	received []map[string]interface{}
}

func (b *scriptedBackend) respond(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
	b.body = body
}

func (b *scriptedBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		b.received = append(b.received, payload)
		w.WriteHeader(b.status)
		w.Write([]byte(b.body))
	})
}

func newTestSyncer(t *testing.T, backend *scriptedBackend) (*Syncer, *Queue) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	queue, err := OpenQueue(t.TempDir(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	client := httpclient.New(srv.Client(), func() string { return "test-token" })
	return NewSyncer(queue, client, srv.URL+"/api/orders", srv.URL+"/health"), queue
}

func draft() map[string]interface{} {
	return map[string]interface{}{
		"source":  "pos",
		"kioskId": "k1",
		"items": []interface{}{
			map[string]interface{}{"product": "p1", "price": 90.0, "quantity": 2.0, "size": 1},
		},
	}
}

func TestSyncRemovesConfirmedEntry(t *testing.T) {
	backend := &scriptedBackend{status: http.StatusCreated, body: `{"success":true}`}
	syncer, queue := newTestSyncer(t, backend)

	queueID, err := queue.Enqueue(draft())
	if err != nil {
		t.Fatal(err)
	}

	syncer.SyncOnce(context.Background())

	if queue.Len() != 0 {
		t.Fatalf("confirmed entry still queued: %+v", queue.Entries())
	}
	if len(backend.received) != 1 {
		t.Fatalf("backend received %d requests", len(backend.received))
	}
	sent := backend.received[0]
	if sent["clientRef"] != queueID {
		t.Errorf("clientRef = %v, want %s", sent["clientRef"], queueID)
	}
	items := sent["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["productId"] != "p1" || item["unitPrice"] != 90.0 {
		t.Errorf("item not transformed: %+v", item)
	}
	if item["size"] != "1" {
		t.Errorf("size = %v, want string \"1\"", item["size"])
	}
	if _, stillThere := item["product"]; stillThere {
		t.Error("raw product key survived the transform")
	}
}

func TestDBDisconnectKeepsEntryPending(t *testing.T) {
	backend := &scriptedBackend{
		status: http.StatusInternalServerError,
		body:   "Database connection lost, will retry when connection is restored",
	}
	syncer, queue := newTestSyncer(t, backend)

	if _, err := queue.Enqueue(draft()); err != nil {
		t.Fatal(err)
	}

	syncer.SyncOnce(context.Background())

	entries := queue.Entries()
	if len(entries) != 1 {
		t.Fatalf("queue len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.SyncStatus != StatusPending {
		t.Errorf("status = %s, want pending", e.SyncStatus)
	}
	if e.RetryCount != 0 {
		t.Errorf("retryCount = %d, a db disconnect must not burn retries", e.RetryCount)
	}
	if e.LastError == "" {
		t.Error("lastError not recorded")
	}

	// The 5s hold blocks the immediate next cycle.
	syncer.SyncOnce(context.Background())
	if len(backend.received) != 1 {
		t.Fatalf("hold ignored: backend saw %d requests", len(backend.received))
	}

	// After the hold the entry drains normally.
	backend.respond(http.StatusCreated, `{"success":true}`)
	syncer.now = func() time.Time { return time.Now().Add(disconnectHold + time.Second) }
	syncer.SyncOnce(context.Background())
	if queue.Len() != 0 {
		t.Errorf("entry not drained after recovery: %+v", queue.Entries())
	}
}

func TestRejectedEntryFailsWithBackoff(t *testing.T) {
	backend := &scriptedBackend{status: http.StatusBadRequest, body: `{"error":"seat label is required"}`}
	syncer, queue := newTestSyncer(t, backend)

	if _, err := queue.Enqueue(draft()); err != nil {
		t.Fatal(err)
	}

	syncer.SyncOnce(context.Background())
	e := queue.Entries()[0]
	if e.SyncStatus != StatusFailed || e.RetryCount != 1 {
		t.Fatalf("after first reject: status=%s retryCount=%d", e.SyncStatus, e.RetryCount)
	}

	// Within the 2s backoff the entry is not retried.
	syncer.SyncOnce(context.Background())
	if len(backend.received) != 1 {
		t.Fatalf("backoff ignored: backend saw %d requests", len(backend.received))
	}

	// Past the backoff it retries and fails again.
	syncer.now = func() time.Time { return time.Now().Add(3 * time.Second) }
	syncer.SyncOnce(context.Background())
	e = queue.Entries()[0]
	if e.RetryCount != 2 {
		t.Errorf("retryCount = %d, want 2", e.RetryCount)
	}
}

func TestRescueAfterRetryLimit(t *testing.T) {
	backend := &scriptedBackend{status: http.StatusBadRequest, body: "no"}
	syncer, queue := newTestSyncer(t, backend)

	if _, err := queue.Enqueue(draft()); err != nil {
		t.Fatal(err)
	}

	offset := time.Duration(0)
	for i := 0; i < 4; i++ {
		syncer.now = func() time.Time { return time.Now().Add(offset) }
		syncer.SyncOnce(context.Background())
		offset += 10 * time.Second
	}
	if got := queue.Entries()[0].RetryCount; got != 4 {
		t.Fatalf("retryCount = %d, want 4", got)
	}

	// Next cycle rescues it back to pending/0 before attempting.
	backend.respond(http.StatusCreated, `{"success":true}`)
	syncer.now = func() time.Time { return time.Now().Add(offset) }
	syncer.SyncOnce(context.Background())
	if queue.Len() != 0 {
		t.Errorf("rescued entry not drained: %+v", queue.Entries())
	}
}

func TestRetryFailedResetsEntries(t *testing.T) {
	backend := &scriptedBackend{status: http.StatusBadRequest, body: "no"}
	syncer, queue := newTestSyncer(t, backend)

	if _, err := queue.Enqueue(draft()); err != nil {
		t.Fatal(err)
	}
	syncer.SyncOnce(context.Background())
	if queue.Entries()[0].SyncStatus != StatusFailed {
		t.Fatal("setup: entry should be failed")
	}

	if reset := queue.RetryFailed(); reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}
	e := queue.Entries()[0]
	if e.SyncStatus != StatusPending || e.RetryCount != 0 || e.LastError != "" {
		t.Errorf("retry-all left entry %+v", e)
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	q1, err := OpenQueue(dir, "t1")
	if err != nil {
		t.Fatal(err)
	}
	id, err := q1.Enqueue(draft())
	if err != nil {
		t.Fatal(err)
	}
	q1.SetStatus(id, StatusSyncing, "", false, time.Now())

	q2, err := OpenQueue(dir, "t1")
	if err != nil {
		t.Fatal(err)
	}
	entries := q2.Entries()
	if len(entries) != 1 || entries[0].QueueID != id {
		t.Fatalf("reopened queue = %+v", entries)
	}
	// In-flight entries from a crash go back to pending.
	if entries[0].SyncStatus != StatusPending {
		t.Errorf("status after reopen = %s, want pending", entries[0].SyncStatus)
	}
}
