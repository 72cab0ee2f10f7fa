// Package offline keeps counter orders flowing while the POS terminal
// has no backend: orders land in a device-local JSON file and a
// scheduler drains them once connectivity returns. The queue id rides
// to the server as the order's clientRef, so a replayed entry can never
// create a second order.
package offline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"canteen-backend/internal/apperr"
)

const (
	StatusPending = "pending"
	StatusSyncing = "syncing"
	StatusFailed  = "failed"
)

// Entry is one queued order draft.
type Entry struct {
	QueueID       string                 `json:"queueId"`
	Payload       map[string]interface{} `json:"payload"`
	RetryCount    int                    `json:"retryCount"`
	SyncStatus    string                 `json:"syncStatus"`
	LastError     string                 `json:"lastError,omitempty"`
	LastAttemptAt time.Time              `json:"lastAttemptAt,omitempty"`
	EnqueuedAt    time.Time              `json:"enqueuedAt"`
}

// Queue is a FIFO persisted to one JSON file per tenant. Every mutation
// rewrites the file so a power cut loses at most the in-flight change.
type Queue struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// OpenQueue loads (or creates) the tenant's queue file under dir.
func OpenQueue(dir, tenantID string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create queue dir", err)
	}
	q := &Queue{path: filepath.Join(dir, "queue-"+tenantID+".json")}

	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return q, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "read queue file", err)
	}
	if err := json.Unmarshal(data, &q.entries); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "parse queue file", err)
	}
	// A crash mid-sync leaves entries stuck in syncing; they are still
	// unconfirmed, so they go back to pending.
	for i := range q.entries {
		if q.entries[i].SyncStatus == StatusSyncing {
			q.entries[i].SyncStatus = StatusPending
		}
	}
	return q, nil
}

// Enqueue appends a pending entry and persists immediately.
func (q *Queue) Enqueue(payload map[string]interface{}) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry := Entry{
		QueueID:    uuid.NewString(),
		Payload:    payload,
		SyncStatus: StatusPending,
		EnqueuedAt: time.Now(),
	}
	q.entries = append(q.entries, entry)
	if err := q.persist(); err != nil {
		q.entries = q.entries[:len(q.entries)-1]
		return "", err
	}
	return entry.QueueID, nil
}

// Entries returns a snapshot in FIFO order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len reports the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Complete removes a confirmed entry.
func (q *Queue) Complete(queueID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.entries {
		if q.entries[i].QueueID == queueID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return q.persist()
		}
	}
	return nil
}

// SetStatus updates one entry's sync state.
func (q *Queue) SetStatus(queueID, status, lastError string, bumpRetry bool, attemptAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.entries {
		if q.entries[i].QueueID != queueID {
			continue
		}
		q.entries[i].SyncStatus = status
		q.entries[i].LastError = lastError
		q.entries[i].LastAttemptAt = attemptAt
		if bumpRetry {
			q.entries[i].RetryCount++
		}
		return q.persist()
	}
	return nil
}

// Rescue returns entries retried past the limit to pending with a fresh
// count, so a long outage never strands an order permanently.
func (q *Queue) Rescue(maxRetries int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	rescued := 0
	for i := range q.entries {
		if q.entries[i].RetryCount > maxRetries {
			q.entries[i].SyncStatus = StatusPending
			q.entries[i].RetryCount = 0
			q.entries[i].LastError = ""
			rescued++
		}
	}
	if rescued > 0 {
		if err := q.persist(); err != nil {
			return 0
		}
	}
	return rescued
}

// RetryFailed clears retry state on every failed entry (the operator
// pressed "retry all").
func (q *Queue) RetryFailed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	reset := 0
	for i := range q.entries {
		if q.entries[i].SyncStatus == StatusFailed {
			q.entries[i].SyncStatus = StatusPending
			q.entries[i].RetryCount = 0
			q.entries[i].LastError = ""
			reset++
		}
	}
	if reset > 0 {
		if err := q.persist(); err != nil {
			return 0
		}
	}
	return reset
}

func (q *Queue) persist() error {
	data, err := json.MarshalIndent(q.entries, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode queue", err)
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.Internal, "write queue file", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return apperr.Wrap(apperr.Internal, "replace queue file", err)
	}
	return nil
}
