package chat

import (
	"testing"
	"time"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

func TestMarkReadDebounce(t *testing.T) {
	svc := NewService(nil, nil)

	if !svc.shouldMark("t1", models.ChatFromAdmin) {
		t.Fatal("first mark should pass")
	}
	if svc.shouldMark("t1", models.ChatFromAdmin) {
		t.Error("repeat within the window should be suppressed")
	}
	// A different reader is not collapsed into the same gate.
	if !svc.shouldMark("t1", models.ChatFromTenant) {
		t.Error("other side's mark should pass")
	}
	// New traffic resets the gate.
	svc.mu.Lock()
	delete(svc.lastMark, "t1")
	svc.mu.Unlock()
	if !svc.shouldMark("t1", models.ChatFromAdmin) {
		t.Error("mark after reset should pass")
	}

	if err := svc.MarkRead("t1", "nobody"); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("unknown reader should fail validation, got %v", err)
	}
}

func TestMarkReadDebounceExpires(t *testing.T) {
	svc := NewService(nil, nil)
	svc.shouldMark("t1", models.ChatFromAdmin)

	svc.mu.Lock()
	state := svc.lastMark["t1"]
	state.at = time.Now().Add(-markDebounce - time.Millisecond)
	svc.lastMark["t1"] = state
	svc.mu.Unlock()

	if !svc.shouldMark("t1", models.ChatFromAdmin) {
		t.Error("mark past the window should pass")
	}
}

func TestSendValidation(t *testing.T) {
	svc := NewService(nil, nil)

	if _, err := svc.SendText("t1", models.ChatFromTenant, ""); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("empty text should fail validation, got %v", err)
	}
	if _, err := svc.SendText("t1", "stranger", "hi"); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("unknown sender should fail validation, got %v", err)
	}
	if _, err := svc.SendImage("t1", models.ChatFromTenant, "a.png", nil); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("empty image should fail validation, got %v", err)
	}
}

func TestThreadsSortNewestFirst(t *testing.T) {
	at := func(min int) *models.ChatMessage {
		return &models.ChatMessage{CreatedAt: time.Date(2026, 2, 1, 10, min, 0, 0, time.UTC)}
	}
	threads := []Thread{
		{TenantID: "a", LastMessage: at(5)},
		{TenantID: "b", LastMessage: at(30)},
		{TenantID: "c", LastMessage: at(12)},
	}
	sortThreadsByActivity(threads)
	if threads[0].TenantID != "b" || threads[1].TenantID != "c" || threads[2].TenantID != "a" {
		t.Errorf("order = %s %s %s", threads[0].TenantID, threads[1].TenantID, threads[2].TenantID)
	}
}
