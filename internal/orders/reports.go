package orders

import (
	"time"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

// TopSeller is one row of the best-sellers table.
type TopSeller struct {
	ProductName string  `json:"productName"`
	Sold        int     `json:"sold"`
	Revenue     float64 `json:"revenue"`
}

// SalesReport is the tenant dashboard payload.
type SalesReport struct {
	TotalRevenue float64        `json:"totalRevenue"`
	TotalOrders  int64          `json:"totalOrders"`
	TopSelling   []TopSeller    `json:"topSelling"`
	RecentOrders []models.Order `json:"recentOrders"`
}

// GetSalesReport aggregates paid orders for a tenant over a date range.
// Item lines live inside the order's JSON column, so top sellers are
// folded in application code rather than SQL.
func (s *Service) GetSalesReport(tenantID string, start, end time.Time) (*SalesReport, error) {
	report := &SalesReport{}
	settled := []string{models.PaymentPaid, models.PaymentCompleted}

	err := s.db.Model(&models.Order{}).
		Where("tenant_id = ? AND payment_status IN ? AND created_at BETWEEN ? AND ?", tenantID, settled, start, end).
		Select("COALESCE(SUM(total), 0)").Scan(&report.TotalRevenue).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "sum revenue", err)
	}
	err = s.db.Model(&models.Order{}).
		Where("tenant_id = ? AND payment_status IN ? AND created_at BETWEEN ? AND ?", tenantID, settled, start, end).
		Count(&report.TotalOrders).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "count orders", err)
	}

	var all []models.Order
	err = s.db.Where("tenant_id = ? AND payment_status IN ? AND created_at BETWEEN ? AND ?",
		tenantID, settled, start, end).
		Order("created_at desc").Find(&all).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load orders", err)
	}

	type acc struct {
		sold    int
		revenue float64
	}
	byName := map[string]*acc{}
	for _, o := range all {
		for _, item := range o.Items.Data() {
			a, ok := byName[item.Name]
			if !ok {
				a = &acc{}
				byName[item.Name] = a
			}
			a.sold += item.Quantity
			a.revenue += item.UnitPrice * float64(item.Quantity)
		}
	}
	for name, a := range byName {
		report.TopSelling = append(report.TopSelling, TopSeller{ProductName: name, Sold: a.sold, Revenue: a.revenue})
	}
	sortTopSellers(report.TopSelling)
	if len(report.TopSelling) > 5 {
		report.TopSelling = report.TopSelling[:5]
	}

	if len(all) > 10 {
		all = all[:10]
	}
	report.RecentOrders = all
	return report, nil
}

func sortTopSellers(list []TopSeller) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].Sold > list[j-1].Sold; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}
