package payments

import (
	"time"

	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
)

// GormOrderStore adapts the orders table to the orchestrator.
type GormOrderStore struct {
	DB *gorm.DB
}

func (s *GormOrderStore) Get(tenantID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&order).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	return &order, nil
}

func (s *GormOrderStore) Save(order *models.Order) error {
	return s.DB.Save(order).Error
}

func (s *GormOrderStore) PendingBefore(cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	err := s.DB.Where("payment_status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&out).Error
	return out, err
}

// GormConfigStore persists gateway channel configs.
type GormConfigStore struct {
	DB *gorm.DB
}

func (s *GormConfigStore) Get(tenantID, channel string) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	err := s.DB.Where("tenant_id = ? AND channel = ?", tenantID, channel).First(&cfg).Error
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "gateway config not found")
	}
	return &cfg, nil
}

func (s *GormConfigStore) Upsert(cfg *models.GatewayConfig) error {
	var existing models.GatewayConfig
	err := s.DB.Where("tenant_id = ? AND channel = ?", cfg.TenantID, cfg.Channel).First(&existing).Error
	if err == nil {
		cfg.ID = existing.ID
		return s.DB.Save(cfg).Error
	}
	if err != gorm.ErrRecordNotFound {
		return apperr.Wrap(apperr.Internal, "load gateway config", err)
	}
	if err := s.DB.Create(cfg).Error; err != nil {
		if database.IsDuplicateKey(err) {
			// Concurrent first write: retry as an update.
			if err := s.DB.Where("tenant_id = ? AND channel = ?", cfg.TenantID, cfg.Channel).First(&existing).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "reload gateway config", err)
			}
			cfg.ID = existing.ID
			return s.DB.Save(cfg).Error
		}
		return apperr.Wrap(apperr.Internal, "create gateway config", err)
	}
	return nil
}
