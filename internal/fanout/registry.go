package fanout

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
)

// DeviceStore is the slice of device persistence the dispatcher needs.
type DeviceStore interface {
	Upsert(device *models.CounterDevice) error
	List(tenantID string) ([]models.CounterDevice, error)
	Remove(tenantID, deviceID string) error
	// Settings loads the tenant settings document that carries the
	// push server key.
	Settings(tenantID string) (*models.TenantSettings, error)
}

// Registry manages the tenant's registered counter devices.
type Registry struct {
	store DeviceStore
}

func NewRegistry(store DeviceStore) *Registry {
	return &Registry{store: store}
}

// RegisterDevice upserts by (tenant, token); re-registering an existing
// token just refreshes its name.
func (r *Registry) RegisterDevice(tenantID, token, name string) (*models.CounterDevice, error) {
	if token == "" {
		return nil, apperr.New(apperr.Validation, "device token is required")
	}
	device := &models.CounterDevice{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Token:    token,
		Name:     name,
	}
	if err := r.store.Upsert(device); err != nil {
		return nil, err
	}
	return device, nil
}

func (r *Registry) ListDevices(tenantID string) ([]models.CounterDevice, error) {
	return r.store.List(tenantID)
}

func (r *Registry) RemoveDevice(tenantID, deviceID string) error {
	return r.store.Remove(tenantID, deviceID)
}

// GormDeviceStore backs the registry with the counter_devices table.
type GormDeviceStore struct {
	DB *gorm.DB
}

func (s *GormDeviceStore) Upsert(device *models.CounterDevice) error {
	var existing models.CounterDevice
	err := s.DB.Where("tenant_id = ? AND token = ?", device.TenantID, device.Token).First(&existing).Error
	if err == nil {
		device.ID = existing.ID
		device.CreatedAt = existing.CreatedAt
		device.UpdatedAt = time.Now()
		return s.DB.Save(device).Error
	}
	if err != gorm.ErrRecordNotFound {
		return apperr.Wrap(apperr.Internal, "load device", err)
	}
	if err := s.DB.Create(device).Error; err != nil {
		if database.IsDuplicateKey(err) {
			// Two registrations raced; the survivor wins the row.
			if err := s.DB.Where("tenant_id = ? AND token = ?", device.TenantID, device.Token).First(&existing).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "reload device", err)
			}
			device.ID = existing.ID
			return s.DB.Save(device).Error
		}
		return apperr.Wrap(apperr.Internal, "create device", err)
	}
	return nil
}

func (s *GormDeviceStore) List(tenantID string) ([]models.CounterDevice, error) {
	var out []models.CounterDevice
	err := s.DB.Where("tenant_id = ?", tenantID).Order("created_at").Find(&out).Error
	return out, err
}

func (s *GormDeviceStore) Remove(tenantID, deviceID string) error {
	res := s.DB.Where("tenant_id = ? AND id = ?", tenantID, deviceID).Delete(&models.CounterDevice{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "remove device", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "device not found")
	}
	return nil
}

func (s *GormDeviceStore) Settings(tenantID string) (*models.TenantSettings, error) {
	var settings models.TenantSettings
	if err := s.DB.Where("tenant_id = ?", tenantID).First(&settings).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "tenant settings not found")
	}
	return &settings, nil
}
