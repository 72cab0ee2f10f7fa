package catalog

import (
	"sort"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

// ValuationItem is a single row in the stock valuation report.
type ValuationItem struct {
	Name       string  `json:"name"`
	Balance    float64 `json:"balance"`
	BasePrice  float64 `json:"basePrice"`
	TotalValue float64 `json:"totalValue"`
}

// CategoryGroup is one table in the report (e.g. "DRINKS").
type CategoryGroup struct {
	CategoryName string          `json:"categoryName"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grandTotal"`
}

// StockValuation prices the requested ledger's closing balances at the
// products' base prices, grouped by category.
func (s *Service) StockValuation(tenantID, source, date string) (*ValuationResponse, error) {
	var products []models.Product
	if err := s.db.Where("tenant_id = ?", tenantID).Find(&products).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list products", err)
	}
	balances, err := s.BalanceStock(tenantID, source, date)
	if err != nil {
		return nil, err
	}
	categories, err := s.ListCategories(tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list categories", err)
	}
	catName := make(map[string]string, len(categories))
	for _, c := range categories {
		catName[c.ID] = c.Name
	}

	grouped := map[string]*CategoryGroup{}
	var grandTotal float64
	for _, p := range products {
		name := catName[p.CategoryID]
		if name == "" {
			name = "Uncategorized"
		}
		group, ok := grouped[name]
		if !ok {
			group = &CategoryGroup{CategoryName: name}
			grouped[name] = group
		}
		balance := balances[p.ID]
		value := balance * p.BasePrice
		group.Items = append(group.Items, ValuationItem{
			Name: p.Name, Balance: balance, BasePrice: p.BasePrice, TotalValue: value,
		})
		group.Subtotal += value
		grandTotal += value
	}

	resp := &ValuationResponse{GrandTotal: grandTotal}
	for _, g := range grouped {
		resp.Categories = append(resp.Categories, *g)
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		return resp.Categories[i].CategoryName < resp.Categories[j].CategoryName
	})
	return resp, nil
}
