package access

import (
	"testing"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

func staffPrincipal() Principal {
	return Principal{UserID: "u1", TenantID: "t1", Role: "counter"}
}

func samplePages() []models.PageAccess {
	return []models.PageAccess{
		{ID: "p1", Page: "Dashboard", PageName: "Dashboard", Route: "/theater/:tenantId/dashboard", Category: "dashboard", IsActive: true, ShowInMenu: true, MenuOrder: 1},
		{ID: "p2", Page: "Orders", PageName: "Orders", Route: "/theater/:tenantId/orders", Category: "orders", IsActive: true, ShowInMenu: true, MenuOrder: 2},
		{ID: "p3", Page: "Stock", PageName: "Stock", Route: "/theater/:tenantId/stock", Category: "stock", IsActive: true, ShowInMenu: true, MenuOrder: 3},
		{ID: "p4", Page: "Hidden", PageName: "Hidden", Route: "/theater/:tenantId/hidden", Category: "admin", IsActive: false, ShowInMenu: true, MenuOrder: 4},
	}
}

func sampleRoles() []models.Role {
	return []models.Role{
		{ID: "r1", Name: "counter", Permissions: []models.Permission{
			{Page: "Orders", HasAccess: true, Route: "/theater/:tenantId/orders"},
			{Page: "Stock", HasAccess: false, Route: "/theater/:tenantId/stock"},
		}},
	}
}

func TestFilterMenuRespectsPermissions(t *testing.T) {
	menu := FilterMenu(samplePages(), sampleRoles(), staffPrincipal())
	if len(menu) != 1 {
		t.Fatalf("menu has %d items, want 1: %+v", len(menu), menu)
	}
	if menu[0].Page != "Orders" {
		t.Errorf("menu item = %s, want Orders", menu[0].Page)
	}
}

func TestFilterMenuSuperAdminSeesAllActive(t *testing.T) {
	p := Principal{UserID: "sa", Role: models.RoleSuperAdmin}
	menu := FilterMenu(samplePages(), nil, p)
	if len(menu) != 3 {
		t.Fatalf("super-admin menu has %d items, want 3 (inactive excluded)", len(menu))
	}
	for i := 1; i < len(menu); i++ {
		if menu[i-1].MenuOrder > menu[i].MenuOrder {
			t.Errorf("menu not sorted by menuOrder: %+v", menu)
		}
	}
}

func TestCheckPrefixMatch(t *testing.T) {
	d := Check(samplePages(), sampleRoles(), staffPrincipal(), "/theater/t1/orders/123")
	if !d.Allow {
		t.Error("sub-route of a permitted route should be allowed")
	}
}

func TestCheckDenyRedirectsToFirstAccessible(t *testing.T) {
	d := Check(samplePages(), sampleRoles(), staffPrincipal(), "/theater/t1/stock")
	if d.Allow {
		t.Fatal("stock route should be denied (hasAccess=false)")
	}
	if d.Redirect != "/theater/t1/orders" {
		t.Errorf("redirect = %q, want /theater/t1/orders", d.Redirect)
	}
}

func TestCheckDenyRedirectOffersMenuHiddenPages(t *testing.T) {
	pages := []models.PageAccess{
		{ID: "p1", Page: "Handoff", PageName: "Handoff", Route: "/theater/:tenantId/handoff",
			Category: "admin", IsActive: true, ShowInMenu: false, MenuOrder: 1},
	}
	roles := []models.Role{
		{ID: "r1", Name: "counter", Permissions: []models.Permission{
			{Page: "Handoff", HasAccess: true, Route: "/theater/:tenantId/handoff"},
		}},
	}
	d := Check(pages, roles, staffPrincipal(), "/theater/t1/stock")
	if d.Allow {
		t.Fatal("stock route should be denied")
	}
	if d.Redirect != "/theater/t1/handoff" {
		t.Errorf("redirect = %q, want the accessible menu-hidden page", d.Redirect)
	}
}

func TestCheckDenyWithNothingAccessible(t *testing.T) {
	roles := []models.Role{{ID: "r1", Name: "counter"}}
	d := Check(samplePages(), roles, staffPrincipal(), "/theater/t1/orders")
	if d.Allow || d.Redirect != "" {
		t.Errorf("expected bare deny, got %+v", d)
	}
}

func TestNormalizePageTrimsAndDefaults(t *testing.T) {
	pg, err := NormalizePage(models.PageAccess{
		Page: "  Orders ", PageName: " Orders ", Route: " /theater/:tenantId/orders ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pg.Page != "Orders" || pg.Route != "/theater/:tenantId/orders" {
		t.Errorf("fields not trimmed: %+v", pg)
	}
	if pg.Category != "admin" {
		t.Errorf("category default = %q, want admin", pg.Category)
	}
	if len(pg.RequiredRoles) != 1 || pg.RequiredRoles[0] != models.RoleTenantAdmin {
		t.Errorf("roles default = %v, want [tenant_admin]", pg.RequiredRoles)
	}
}

func TestNormalizePageRejectsEmptyAndBadEnums(t *testing.T) {
	_, err := NormalizePage(models.PageAccess{Page: "  ", PageName: "x", Route: "/r", Category: "bogus"})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("want validation error, got %v", err)
	}
	var ae *apperr.Error
	if !asAppErr(err, &ae) {
		t.Fatal("error is not *apperr.Error")
	}
	if _, ok := ae.Fields["page"]; !ok {
		t.Error("missing field error for page")
	}
	if _, ok := ae.Fields["category"]; !ok {
		t.Error("missing field error for category")
	}

	_, err = NormalizePage(models.PageAccess{Page: "P", PageName: "P", Route: "/r", RequiredRoles: []string{"owner"}})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("unknown role should be rejected, got %v", err)
	}
}

func TestUpsertPageUpdatesExisting(t *testing.T) {
	pages := samplePages()
	updated := models.PageAccess{ID: "new", Page: "Orders", PageName: "Orders v2", Route: "/r2", Category: "orders"}
	out, rec := UpsertPage(pages, updated)
	if len(out) != len(pages) {
		t.Fatalf("upsert of existing page grew the list to %d", len(out))
	}
	if rec.ID != "new" {
		t.Errorf("explicit id should win, got %s", rec.ID)
	}
	count := 0
	for _, pg := range out {
		if pg.Page == "Orders" {
			count++
			if pg.PageName != "Orders v2" {
				t.Errorf("entry not updated: %+v", pg)
			}
		}
	}
	if count != 1 {
		t.Errorf("page appears %d times, want 1", count)
	}
}

func TestRemovePageCascadesIntoRoles(t *testing.T) {
	pages, pageName, found := RemovePageByID(samplePages(), "p2")
	if !found || pageName != "Orders" {
		t.Fatalf("remove failed: found=%v page=%q", found, pageName)
	}
	for _, pg := range pages {
		if pg.ID == "p2" {
			t.Error("page still present after removal")
		}
	}

	roles, changed := StripPageFromRoles(sampleRoles(), pageName)
	if !changed {
		t.Fatal("expected role permissions to change")
	}
	for _, r := range roles {
		for _, perm := range r.Permissions {
			if perm.Page == "Orders" {
				t.Error("role still holds a permission for the removed page")
			}
		}
	}
}

func TestDedupePermissionsLastWins(t *testing.T) {
	perms := DedupePermissions([]models.Permission{
		{Page: "Orders", HasAccess: false},
		{Page: "Stock", HasAccess: true},
		{Page: "Orders", HasAccess: true},
	})
	if len(perms) != 2 {
		t.Fatalf("got %d permissions, want 2", len(perms))
	}
	for _, p := range perms {
		if p.Page == "Orders" && !p.HasAccess {
			t.Error("later Orders entry should have won")
		}
	}
}

func asAppErr(err error, target **apperr.Error) bool {
	e, ok := err.(*apperr.Error)
	if ok {
		*target = e
	}
	return ok
}
