// Package tenants is the registry of theaters and their users.
package tenants

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
	"canteen-backend/internal/storage"
)

type Service struct {
	db    *gorm.DB
	store storage.Store
}

func NewService(db *gorm.DB, store storage.Store) *Service {
	return &Service{db: db, store: store}
}

// resolveDocuments uploads any base64 data-URI document and replaces it
// with the returned URL. Any upload failure fails the whole write: a
// tenant row never mixes data URIs and URLs.
func (s *Service) resolveDocuments(tenantID string, docs models.TenantDocuments) (models.TenantDocuments, error) {
	upload := func(field, value string) (string, error) {
		if !storage.IsDataURI(value) {
			return value, nil
		}
		mediaType, data, err := storage.DecodeDataURI(value)
		if err != nil {
			return "", err
		}
		url, err := s.store.Save(tenantID+"_"+field+storage.ExtensionFor(mediaType), data)
		if err != nil {
			return "", apperr.Wrap(apperr.Internal, "upload "+field, err)
		}
		return url, nil
	}

	var err error
	if docs.Logo, err = upload("logo", docs.Logo); err != nil {
		return docs, err
	}
	if docs.Photo, err = upload("photo", docs.Photo); err != nil {
		return docs, err
	}
	for i, proof := range docs.IDProofs {
		if docs.IDProofs[i], err = upload("idproof", proof); err != nil {
			return docs, err
		}
	}
	return docs, nil
}

func (s *Service) CreateTenant(t *models.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return apperr.New(apperr.Validation, "tenant name must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	docs, err := s.resolveDocuments(t.ID, t.Documents.Data())
	if err != nil {
		return err
	}
	t.Documents = datatypes.NewJSONType(docs)
	t.IsActive = true
	return s.db.Create(t).Error
}

// Patch carries the updatable tenant fields; nil pointers are left
// untouched.
type Patch struct {
	Name        *string                 `json:"name"`
	Phone       *string                 `json:"phone"`
	Email       *string                 `json:"email"`
	Address     *string                 `json:"address"`
	GSTNumber   *string                 `json:"gstNumber"`
	FSSAINumber *string                 `json:"fssaiNumber"`
	IsActive    *bool                   `json:"isActive"`
	Documents   *models.TenantDocuments `json:"documents"`
}

func (s *Service) UpdateTenant(id string, patch Patch) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.First(&tenant, "id = ?", id).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "tenant not found")
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperr.New(apperr.Validation, "tenant name must not be empty")
		}
		tenant.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		tenant.Phone = *patch.Phone
	}
	if patch.Email != nil {
		tenant.Email = *patch.Email
	}
	if patch.Address != nil {
		tenant.Address = *patch.Address
	}
	if patch.GSTNumber != nil {
		tenant.GSTNumber = *patch.GSTNumber
	}
	if patch.FSSAINumber != nil {
		tenant.FSSAINumber = *patch.FSSAINumber
	}
	if patch.IsActive != nil {
		tenant.IsActive = *patch.IsActive
	}
	if patch.Documents != nil {
		docs, err := s.resolveDocuments(tenant.ID, *patch.Documents)
		if err != nil {
			return nil, err
		}
		tenant.Documents = datatypes.NewJSONType(docs)
	}

	if err := s.db.Save(&tenant).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update tenant", err)
	}
	return &tenant, nil
}

func (s *Service) GetTenant(id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.First(&tenant, "id = ?", id).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "tenant not found")
	}
	return &tenant, nil
}

func (s *Service) ListTenants(activeOnly bool) ([]models.Tenant, error) {
	q := s.db.Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Tenant
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list tenants", err)
	}
	return out, nil
}

// DeleteTenant removes the theater and cascades to everything it owns.
func (s *Service) DeleteTenant(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Tenant{}, "id = ?", id)
		if res.Error != nil {
			return apperr.Wrap(apperr.Internal, "delete tenant", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "tenant not found")
		}
		owned := []interface{}{
			&models.User{}, &models.TenantSettings{}, &models.RoleList{},
			&models.PageAccessList{}, &models.Category{}, &models.KioskType{},
			&models.Product{}, &models.MonthlyStock{}, &models.QRList{},
			&models.Order{}, &models.GatewayConfig{}, &models.CounterDevice{},
			&models.ChatMessage{},
		}
		for _, model := range owned {
			if err := tx.Where("tenant_id = ?", id).Delete(model).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "cascade delete", err)
			}
		}
		return nil
	})
}

// ---- settings ----

// GetSettings returns the tenant's settings document, creating an empty
// one on first read.
func (s *Service) GetSettings(tenantID string) (*models.TenantSettings, error) {
	var settings models.TenantSettings
	err := s.db.Where("tenant_id = ?", tenantID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "load settings", err)
	}
	settings = models.TenantSettings{ID: uuid.NewString(), TenantID: tenantID}
	if err := s.db.Create(&settings).Error; err != nil {
		if database.IsDuplicateKey(err) {
			if err := s.db.Where("tenant_id = ?", tenantID).First(&settings).Error; err != nil {
				return nil, apperr.Wrap(apperr.Internal, "reload settings", err)
			}
			return &settings, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "create settings", err)
	}
	return &settings, nil
}

// SettingsPatch carries the updatable settings fields.
type SettingsPatch struct {
	AlertAudioURL         *string `json:"alertAudioUrl"`
	PrinterName           *string `json:"printerName"`
	PushServerKey         *string `json:"pushServerKey"`
	PendingTimeoutMinutes *int    `json:"pendingTimeoutMinutes"`
}

func (s *Service) UpdateSettings(tenantID string, patch SettingsPatch) (*models.TenantSettings, error) {
	settings, err := s.GetSettings(tenantID)
	if err != nil {
		return nil, err
	}
	if patch.AlertAudioURL != nil {
		settings.AlertAudioURL = *patch.AlertAudioURL
	}
	if patch.PrinterName != nil {
		settings.PrinterName = *patch.PrinterName
	}
	if patch.PushServerKey != nil {
		settings.PushServerKey = *patch.PushServerKey
	}
	if patch.PendingTimeoutMinutes != nil {
		if *patch.PendingTimeoutMinutes < 0 {
			return nil, apperr.New(apperr.Validation, "pendingTimeoutMinutes must not be negative")
		}
		settings.PendingTimeoutMinutes = *patch.PendingTimeoutMinutes
	}
	settings.UpdatedAt = time.Now()
	if err := s.db.Save(settings).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update settings", err)
	}
	return settings, nil
}

// ---- tenant users ----

type UserInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// CreateUser provisions a staff login under a tenant. Usernames are
// globally unique; a nil tenantID creates a super-admin.
func (s *Service) CreateUser(tenantID *string, in UserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, apperr.New(apperr.Validation, "username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       models.UserActive,
	}
	if err := s.db.Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, apperr.New(apperr.Conflict, "username already taken")
		}
		return nil, apperr.Wrap(apperr.Internal, "create user", err)
	}
	return user, nil
}

func (s *Service) ListUsers(tenantID string) ([]models.User, error) {
	var out []models.User
	if err := s.db.Where("tenant_id = ?", tenantID).Order("username").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list users", err)
	}
	return out, nil
}

func (s *Service) SetUserStatus(tenantID, userID, status string) error {
	if status != models.UserActive && status != models.UserDisabled {
		return apperr.Newf(apperr.Validation, "status must be active or disabled, got %q", status)
	}
	res := s.db.Model(&models.User{}).
		Where("tenant_id = ? AND id = ?", tenantID, userID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}
