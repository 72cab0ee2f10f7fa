package catalog

import (
	"testing"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

func TestAppendDetailChainsBalances(t *testing.T) {
	details, err := AppendDetail(nil, "2026-08-01", StockFields{InvordStock: 100})
	if err != nil {
		t.Fatal(err)
	}
	details, err = AppendDetail(details, "2026-08-02", StockFields{InvordStock: 20, UsedStock: 30, ExpiredStock: 5})
	if err != nil {
		t.Fatal(err)
	}
	details, err = AppendDetail(details, "2026-08-03", StockFields{UsedStock: 10, DamageStock: 2})
	if err != nil {
		t.Fatal(err)
	}

	if details[0].Balance != 100 {
		t.Errorf("day 1 balance = %v, want 100", details[0].Balance)
	}
	if details[1].CarryForward != 100 || details[1].Balance != 85 {
		t.Errorf("day 2 = %+v, want carryForward 100 balance 85", details[1])
	}
	if details[2].CarryForward != 85 || details[2].Balance != 73 {
		t.Errorf("day 3 = %+v, want carryForward 85 balance 73", details[2])
	}
}

func TestAppendDetailRejectsDuplicateDate(t *testing.T) {
	details, _ := AppendDetail(nil, "2026-08-01", StockFields{InvordStock: 10})
	_, err := AppendDetail(details, "2026-08-01", StockFields{InvordStock: 5})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("duplicate date should conflict, got %v", err)
	}
}

func TestAppendDetailOutOfOrderRecompute(t *testing.T) {
	details, _ := AppendDetail(nil, "2026-08-03", StockFields{UsedStock: 10})
	details, err := AppendDetail(details, "2026-08-01", StockFields{InvordStock: 50})
	if err != nil {
		t.Fatal(err)
	}
	// Backfilled earlier day must re-chain the later one.
	if details[0].Date != "2026-08-01" || details[0].Balance != 50 {
		t.Errorf("day 1 = %+v", details[0])
	}
	if details[1].CarryForward != 50 || details[1].Balance != 40 {
		t.Errorf("day 3 = %+v, want carryForward 50 balance 40", details[1])
	}
}

func TestMonthBridgeCarryForward(t *testing.T) {
	// Explicit bridge on day 1 stands in for last month's closing.
	details, err := AppendDetail(nil, "2026-09-01", StockFields{CarryForward: 73, InvordStock: 10})
	if err != nil {
		t.Fatal(err)
	}
	if details[0].Balance != 83 {
		t.Errorf("bridged day 1 balance = %v, want 83", details[0].Balance)
	}
}

func TestAppendDetailRejectsBadDate(t *testing.T) {
	_, err := AppendDetail(nil, "01-08-2026", StockFields{})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("bad date should be a validation error, got %v", err)
	}
}

func TestDetailFor(t *testing.T) {
	details := RecomputeChain([]models.StockDetail{
		{Date: "2026-08-01", InvordStock: 100},
		{Date: "2026-08-03", UsedStock: 20},
	})

	got := DetailFor(details, "2026-08-03")
	if got.Balance != 80 {
		t.Errorf("recorded day balance = %v, want 80", got.Balance)
	}

	// A gap day carries the latest earlier closing balance.
	got = DetailFor(details, "2026-08-02")
	if got.Balance != 100 || got.InvordStock != 0 {
		t.Errorf("gap day = %+v, want balance 100 with zero movement", got)
	}

	// A day before any entry is fully zero.
	got = DetailFor(details, "2026-07-31")
	if got.Balance != 0 || got.CarryForward != 0 {
		t.Errorf("pre-ledger day = %+v, want zeros", got)
	}
}
