// Package access evaluates per-tenant page permissions. The same rules
// drive UI navigation filtering and API gating.
package access

import (
	"sort"
	"strings"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

// Principal is the authenticated caller as far as access control is
// concerned. TenantID is empty for the super-admin.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

func (p Principal) IsSuperAdmin() bool { return p.Role == models.RoleSuperAdmin }

// Decision is the outcome of a route check. On deny, Redirect carries
// the first route the principal may use, or "" when none exists.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

// SubstituteTenant replaces the :tenantId placeholder in a route.
func SubstituteTenant(route, tenantID string) string {
	return strings.ReplaceAll(route, ":tenantId", tenantID)
}

// permittedRoutes collects the substituted routes the role may enter.
func permittedRoutes(roles []models.Role, roleName, tenantID string) []string {
	var out []string
	for _, r := range roles {
		if r.Name != roleName {
			continue
		}
		for _, p := range r.Permissions {
			if p.HasAccess && p.Route != "" {
				out = append(out, SubstituteTenant(p.Route, tenantID))
			}
		}
	}
	return out
}

// routeAllowed reports whether route matches a permitted route exactly
// or by prefix. No wildcarding.
func routeAllowed(route string, permitted []string) bool {
	for _, p := range permitted {
		if route == p || strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

// FilterMenu returns the navigation items the principal may see, in
// menuOrder. The super-admin sees every active menu page; everyone else
// sees active pages whose substituted route matches a hasAccess
// permission of their role.
func FilterMenu(pages []models.PageAccess, roles []models.Role, principal Principal) []models.PageAccess {
	var out []models.PageAccess
	if principal.IsSuperAdmin() {
		for _, pg := range pages {
			if pg.IsActive && pg.ShowInMenu {
				out = append(out, pg)
			}
		}
	} else {
		permitted := permittedRoutes(roles, principal.Role, principal.TenantID)
		for _, pg := range pages {
			if !pg.IsActive || !pg.ShowInMenu {
				continue
			}
			route := SubstituteTenant(pg.Route, principal.TenantID)
			if routeAllowed(route, permitted) {
				out = append(out, pg)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MenuOrder < out[j].MenuOrder })
	return out
}

// Check decides whether the principal may enter route. On deny the
// redirect is the first active page the principal may access, in
// menuOrder. Pages hidden from the menu still count: a principal whose
// only accessible page is menu-hidden must still land somewhere.
func Check(pages []models.PageAccess, roles []models.Role, principal Principal, route string) Decision {
	if principal.IsSuperAdmin() {
		return Decision{Allow: true}
	}
	permitted := permittedRoutes(roles, principal.Role, principal.TenantID)
	if routeAllowed(route, permitted) {
		return Decision{Allow: true}
	}

	var accessible []models.PageAccess
	for _, pg := range pages {
		if !pg.IsActive {
			continue
		}
		if routeAllowed(SubstituteTenant(pg.Route, principal.TenantID), permitted) {
			accessible = append(accessible, pg)
		}
	}
	sort.SliceStable(accessible, func(i, j int) bool { return accessible[i].MenuOrder < accessible[j].MenuOrder })
	for _, pg := range accessible {
		return Decision{Allow: false, Redirect: SubstituteTenant(pg.Route, principal.TenantID)}
	}
	return Decision{Allow: false}
}

// NormalizePage trims and validates an incoming page definition. Category and
// required roles are checked against their enums; empty identifiers are
// rejected with field-level errors.
func NormalizePage(pg models.PageAccess) (models.PageAccess, error) {
	pg.Page = strings.TrimSpace(pg.Page)
	pg.PageName = strings.TrimSpace(pg.PageName)
	pg.Route = strings.TrimSpace(pg.Route)
	pg.Category = strings.TrimSpace(pg.Category)

	verr := apperr.New(apperr.Validation, "invalid page definition")
	bad := false
	if pg.Page == "" {
		verr.WithField("page", "must not be empty")
		bad = true
	}
	if pg.PageName == "" {
		verr.WithField("pageName", "must not be empty")
		bad = true
	}
	if pg.Route == "" {
		verr.WithField("route", "must not be empty")
		bad = true
	}

	if pg.Category == "" {
		pg.Category = "admin"
	} else if !contains(models.PageCategories, pg.Category) {
		verr.WithField("category", "unknown category "+pg.Category)
		bad = true
	}

	if len(pg.RequiredRoles) == 0 {
		pg.RequiredRoles = []string{models.RoleTenantAdmin}
	} else {
		valid := []string{models.RoleSuperAdmin, models.RoleTenantAdmin, models.RoleTenantStaff, models.RoleCustomer}
		for _, r := range pg.RequiredRoles {
			if !contains(valid, r) {
				verr.WithField("requiredRoles", "unknown role "+r)
				bad = true
			}
		}
	}

	if bad {
		return models.PageAccess{}, verr
	}
	return pg, nil
}

// UpsertPage inserts or replaces the entry with the same Page value and
// returns the new list plus the stored record.
func UpsertPage(pages []models.PageAccess, pg models.PageAccess) ([]models.PageAccess, models.PageAccess) {
	for i, existing := range pages {
		if existing.Page == pg.Page {
			if pg.ID == "" {
				pg.ID = existing.ID
			}
			pages[i] = pg
			return pages, pg
		}
	}
	return append(pages, pg), pg
}

// RemovePageByID drops the page and reports its Page value, so the
// caller can cascade into role permissions.
func RemovePageByID(pages []models.PageAccess, pageID string) ([]models.PageAccess, string, bool) {
	for i, pg := range pages {
		if pg.ID == pageID {
			return append(pages[:i], pages[i+1:]...), pg.Page, true
		}
	}
	return pages, "", false
}

// StripPageFromRoles removes every permission naming page from every
// role. Returns whether anything changed.
func StripPageFromRoles(roles []models.Role, page string) ([]models.Role, bool) {
	changed := false
	for i, r := range roles {
		kept := r.Permissions[:0]
		for _, perm := range r.Permissions {
			if perm.Page == page {
				changed = true
				continue
			}
			kept = append(kept, perm)
		}
		roles[i].Permissions = kept
	}
	return roles, changed
}

// DedupePermissions enforces the one-entry-per-page invariant inside a
// role; the last write for a page wins.
func DedupePermissions(perms []models.Permission) []models.Permission {
	byPage := map[string]int{}
	out := perms[:0]
	for _, p := range perms {
		if i, seen := byPage[p.Page]; seen {
			out[i] = p
			continue
		}
		byPage[p.Page] = len(out)
		out = append(out, p)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
