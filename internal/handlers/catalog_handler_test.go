package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/catalog"
	"canteen-backend/internal/models"
)

// menuRecorder captures the stock source the listing handlers request.
// Only ListProducts is implemented; the embedded interface panics on
// anything else, which is what these tests want.
type menuRecorder struct {
	catalogService
	lastSource string
	calls      int
}

func (m *menuRecorder) ListProducts(tenantID, stockSource string, page, limit int) ([]catalog.ProductView, int64, error) {
	m.lastSource = stockSource
	m.calls++
	return nil, 0, nil
}

func listingRouter(rec *menuRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &CatalogHandler{Catalog: rec}
	r := gin.New()
	r.GET("/api/public/:theaterId/menu", h.CustomerMenu)
	r.GET("/api/theaters/:theaterId/products", h.ListProducts)
	return r
}

func TestCustomerMenuAlwaysReadsCafeLedger(t *testing.T) {
	rec := &menuRecorder{}
	r := listingRouter(rec)

	// Even an explicit theater request on the public surface is pinned.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/public/t1/menu?stockSource=theater", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if rec.calls != 1 || rec.lastSource != models.StockCafe {
		t.Errorf("menu queried source %q, want %q", rec.lastSource, models.StockCafe)
	}
}

func TestProductListingSourceSelection(t *testing.T) {
	rec := &menuRecorder{}
	r := listingRouter(rec)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/theaters/t1/products", nil))
	if rec.lastSource != models.StockTheater {
		t.Errorf("default source = %q, want %q", rec.lastSource, models.StockTheater)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/theaters/t1/products?stockSource=cafe", nil))
	if rec.lastSource != models.StockCafe {
		t.Errorf("explicit source = %q, want %q", rec.lastSource, models.StockCafe)
	}
}
