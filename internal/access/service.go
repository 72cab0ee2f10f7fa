package access

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
)

// Service persists the per-tenant RoleList and PageAccessList
// aggregates. Both carry a unique index on tenantId; concurrent
// first-writes race on it and the loser retries with a re-read.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) pageList(tx *gorm.DB, tenantID string) (*models.PageAccessList, error) {
	var list models.PageAccessList
	err := tx.Where("tenant_id = ?", tenantID).First(&list).Error
	if err == nil {
		return &list, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "load page access list", err)
	}

	list = models.PageAccessList{ID: uuid.NewString(), TenantID: tenantID}
	if err := tx.Create(&list).Error; err != nil {
		if database.IsDuplicateKey(err) {
			// Another writer created it first; use theirs.
			if err := tx.Where("tenant_id = ?", tenantID).First(&list).Error; err != nil {
				return nil, apperr.Wrap(apperr.Internal, "reload page access list", err)
			}
			return &list, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "create page access list", err)
	}
	return &list, nil
}

func (s *Service) roleList(tx *gorm.DB, tenantID string) (*models.RoleList, error) {
	var list models.RoleList
	err := tx.Where("tenant_id = ?", tenantID).First(&list).Error
	if err == nil {
		return &list, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "load role list", err)
	}

	list = models.RoleList{ID: uuid.NewString(), TenantID: tenantID}
	if err := tx.Create(&list).Error; err != nil {
		if database.IsDuplicateKey(err) {
			if err := tx.Where("tenant_id = ?", tenantID).First(&list).Error; err != nil {
				return nil, apperr.Wrap(apperr.Internal, "reload role list", err)
			}
			return &list, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "create role list", err)
	}
	return &list, nil
}

// ListPages returns the tenant's page-access entries.
func (s *Service) ListPages(tenantID string) ([]models.PageAccess, error) {
	list, err := s.pageList(s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return list.Pages.Data(), nil
}

// ListRoles returns the tenant's role list.
func (s *Service) ListRoles(tenantID string) ([]models.Role, error) {
	list, err := s.roleList(s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return list.Roles.Data(), nil
}

// GetMenu returns the ordered navigation for the principal.
func (s *Service) GetMenu(p Principal) ([]models.PageAccess, error) {
	pages, err := s.ListPages(p.TenantID)
	if err != nil {
		return nil, err
	}
	var roles []models.Role
	if !p.IsSuperAdmin() {
		if roles, err = s.ListRoles(p.TenantID); err != nil {
			return nil, err
		}
	}
	return FilterMenu(pages, roles, p), nil
}

// CheckRoute decides whether the principal may enter route.
func (s *Service) CheckRoute(p Principal, route string) (Decision, error) {
	if p.IsSuperAdmin() {
		return Decision{Allow: true}, nil
	}
	pages, err := s.ListPages(p.TenantID)
	if err != nil {
		return Decision{}, err
	}
	roles, err := s.ListRoles(p.TenantID)
	if err != nil {
		return Decision{}, err
	}
	return Check(pages, roles, p, route), nil
}

// AddPage validates and upserts a page by its Page key. A repeated
// AddPage for the same page updates the existing entry in place; the
// same page name under another tenant is unaffected.
func (s *Service) AddPage(tenantID string, pg models.PageAccess) (models.PageAccess, error) {
	pg, err := NormalizePage(pg)
	if err != nil {
		return models.PageAccess{}, err
	}
	if pg.ID == "" {
		pg.ID = uuid.NewString()
	}

	var stored models.PageAccess
	err = s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.pageList(tx, tenantID)
		if err != nil {
			return err
		}
		pages, rec := UpsertPage(list.Pages.Data(), pg)
		list.Pages = datatypes.NewJSONType(pages)
		list.UpdatedAt = time.Now()
		stored = rec
		return tx.Save(list).Error
	})
	if err != nil {
		return models.PageAccess{}, err
	}
	return stored, nil
}

// RemovePage deletes the page and strips it from every role's
// permissions in the same transaction, so readers never observe a role
// pointing at a page that no longer exists.
func (s *Service) RemovePage(tenantID, pageID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.pageList(tx, tenantID)
		if err != nil {
			return err
		}
		pages, pageName, found := RemovePageByID(list.Pages.Data(), pageID)
		if !found {
			return apperr.New(apperr.NotFound, "page not found")
		}
		list.Pages = datatypes.NewJSONType(pages)
		list.UpdatedAt = time.Now()
		if err := tx.Save(list).Error; err != nil {
			return err
		}

		roleList, err := s.roleList(tx, tenantID)
		if err != nil {
			return err
		}
		roles, changed := StripPageFromRoles(roleList.Roles.Data(), pageName)
		if changed {
			roleList.Roles = datatypes.NewJSONType(roles)
			roleList.UpdatedAt = time.Now()
			if err := tx.Save(roleList).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertRole inserts or replaces a role by id (by name for new roles),
// enforcing one permission per page.
func (s *Service) UpsertRole(tenantID string, role models.Role) (models.Role, error) {
	if role.Name == "" {
		return models.Role{}, apperr.New(apperr.Validation, "role name must not be empty")
	}
	role.Permissions = DedupePermissions(role.Permissions)
	if role.ID == "" {
		role.ID = uuid.NewString()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.roleList(tx, tenantID)
		if err != nil {
			return err
		}
		roles := list.Roles.Data()
		replaced := false
		for i, r := range roles {
			if r.ID == role.ID || r.Name == role.Name {
				role.ID = r.ID
				roles[i] = role
				replaced = true
				break
			}
		}
		if !replaced {
			roles = append(roles, role)
		}
		list.Roles = datatypes.NewJSONType(roles)
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role from the tenant's list.
func (s *Service) DeleteRole(tenantID, roleID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.roleList(tx, tenantID)
		if err != nil {
			return err
		}
		roles := list.Roles.Data()
		for i, r := range roles {
			if r.ID == roleID {
				list.Roles = datatypes.NewJSONType(append(roles[:i], roles[i+1:]...))
				list.UpdatedAt = time.Now()
				return tx.Save(list).Error
			}
		}
		return apperr.New(apperr.NotFound, "role not found")
	})
}
