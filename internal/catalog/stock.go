package catalog

import (
	"sort"
	"time"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

// StockDate is the ledger's calendar-day format.
const StockDate = "2006-01-02"

// StockFields are the client-suppliable parts of a ledger day. Balance
// and the chained carry-forward are derived server-side.
type StockFields struct {
	InvordStock  float64 `json:"invordStock"`
	ExpiredStock float64 `json:"expiredStock"`
	UsedStock    float64 `json:"usedStock"`
	DamageStock  float64 `json:"damageStock"`
	// CarryForward is only honored on the first day of a month, as an
	// explicit bridge from the previous month's closing balance.
	CarryForward float64 `json:"carryForward"`
}

// AppendDetail adds one day to a monthly ledger. A second entry for the
// same calendar date is a conflict. The returned slice is sorted by
// date with balances recomputed in chain order.
func AppendDetail(details []models.StockDetail, date string, f StockFields) ([]models.StockDetail, error) {
	if _, err := time.Parse(StockDate, date); err != nil {
		return nil, apperr.Newf(apperr.Validation, "invalid stock date %q", date)
	}
	for _, d := range details {
		if d.Date == date {
			return nil, apperr.Newf(apperr.Conflict, "stock for %s already recorded", date)
		}
	}
	details = append(details, models.StockDetail{
		Date:         date,
		InvordStock:  f.InvordStock,
		ExpiredStock: f.ExpiredStock,
		UsedStock:    f.UsedStock,
		DamageStock:  f.DamageStock,
		CarryForward: f.CarryForward,
	})
	return RecomputeChain(details), nil
}

// RecomputeChain orders the days and rebuilds carry-forward and balance:
// carryForward of day D is the balance of the previous recorded day;
// the first day keeps whatever carry-forward it was recorded with
// (0, or an explicit month-boundary bridge).
func RecomputeChain(details []models.StockDetail) []models.StockDetail {
	sort.Slice(details, func(i, j int) bool { return details[i].Date < details[j].Date })
	for i := range details {
		if i > 0 {
			details[i].CarryForward = details[i-1].Balance
		}
		d := &details[i]
		d.Balance = d.CarryForward + d.InvordStock - d.UsedStock - d.ExpiredStock - d.DamageStock
	}
	return details
}

// DetailFor returns the recorded day, or a zero-filled detail carrying
// the closing balance of the latest earlier day.
func DetailFor(details []models.StockDetail, date string) models.StockDetail {
	var prev *models.StockDetail
	for i := range details {
		if details[i].Date == date {
			return details[i]
		}
		if details[i].Date < date && (prev == nil || details[i].Date > prev.Date) {
			prev = &details[i]
		}
	}
	out := models.StockDetail{Date: date}
	if prev != nil {
		out.CarryForward = prev.Balance
		out.Balance = prev.Balance
	}
	return out
}
