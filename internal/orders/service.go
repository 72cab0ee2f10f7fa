package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/catalog"
	"canteen-backend/internal/database"
	"canteen-backend/internal/events"
	"canteen-backend/internal/models"
)

type Service struct {
	db      *gorm.DB
	catalog *catalog.Service
	bus     *events.Bus
}

func NewService(db *gorm.DB, cat *catalog.Service, bus *events.Bus) *Service {
	return &Service{db: db, catalog: cat, bus: bus}
}

// CreateOrder runs intake for a draft. The returned bool is false when
// the draft was a replay (same clientRef) and the stored order is
// returned instead of a new one.
func (s *Service) CreateOrder(draft Draft) (*models.Order, bool, error) {
	// Replay short-circuit before any side effects.
	if draft.ClientRef != "" {
		if existing, err := s.byClientRef(draft.TenantID, draft.ClientRef); err == nil {
			return existing, false, nil
		}
	}

	balances, err := s.catalog.BalanceStock(draft.TenantID, models.StockCafe, time.Now().Format(catalog.StockDate))
	if err != nil {
		return nil, false, err
	}
	order, err := BuildOrder(draft, func(productID string) (*models.Product, error) {
		return s.catalog.GetProduct(draft.TenantID, productID)
	}, balances, time.Now())
	if err != nil {
		return nil, false, err
	}
	order.ID = uuid.NewString()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Serialize number assignment per tenant via a range lock on
		// the tenant's rows.
		var max int64
		err := tx.Model(&models.Order{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ?", draft.TenantID).
			Select("COALESCE(MAX(order_number), 0)").
			Scan(&max).Error
		if err != nil {
			return apperr.Wrap(apperr.Internal, "next order number", err)
		}
		order.OrderNumber = max + 1
		return tx.Create(order).Error
	})
	if err != nil {
		if database.IsDuplicateKey(err) && draft.ClientRef != "" {
			// Lost a replay race; the other writer's row is the order.
			if existing, lookupErr := s.byClientRef(draft.TenantID, draft.ClientRef); lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, apperr.Wrap(apperr.Internal, "create order", err)
	}

	s.bus.Publish(events.Event{
		Name: events.OrderCreated, TenantID: order.TenantID,
		OrderID: order.ID, Source: order.Source,
	})
	if order.PaymentStatus == models.PaymentPaid {
		s.bus.Publish(events.Event{
			Name: events.OrderPaid, TenantID: order.TenantID,
			OrderID: order.ID, Source: order.Source,
		})
	}
	return order, true, nil
}

func (s *Service) byClientRef(tenantID, clientRef string) (*models.Order, error) {
	ref := tenantID + ":" + clientRef
	var order models.Order
	if err := s.db.Where("client_ref = ?", ref).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) GetOrder(tenantID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&order).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	return &order, nil
}

// ListOrders pages a tenant's orders newest first, optionally filtered
// by fulfillment status.
func (s *Service) ListOrders(tenantID, status string, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	q := s.db.Model(&models.Order{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "count orders", err)
	}
	var out []models.Order
	err := q.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	return out, total, nil
}

// UpdateStatus moves an order through the fulfillment flow.
func (s *Service) UpdateStatus(tenantID, orderID, status string) (*models.Order, error) {
	switch status {
	case models.OrderPreparing, models.OrderReady, models.OrderDelivered, models.OrderCancelled:
	default:
		return nil, apperr.Newf(apperr.Validation, "unknown order status %q", status)
	}
	order, err := s.GetOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderDelivered || order.Status == models.OrderCancelled {
		return nil, apperr.Newf(apperr.Conflict, "order is already %s", order.Status)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	if err := s.db.Save(order).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update order", err)
	}
	return order, nil
}
