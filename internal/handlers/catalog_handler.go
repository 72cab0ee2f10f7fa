package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/catalog"
	"canteen-backend/internal/models"
)

// catalogService is the slice of the catalog service the HTTP layer
// drives; tests substitute a recording fake.
type catalogService interface {
	CreateProduct(*models.Product) error
	GetProduct(tenantID, id string) (*models.Product, error)
	UpdateProduct(tenantID, id string, patch map[string]interface{}) (*models.Product, error)
	DeleteProduct(tenantID, id string) error
	ListProducts(tenantID, stockSource string, page, limit int) ([]catalog.ProductView, int64, error)
	CreateCategory(*models.Category) error
	ListCategories(tenantID string) ([]models.Category, error)
	CreateKioskType(*models.KioskType) error
	ListKioskTypes(tenantID string) ([]models.KioskType, error)
	RecordStock(tenantID, productID, source, date string, fields catalog.StockFields) (*models.MonthlyStock, error)
	GetMonthlyStock(tenantID, productID, source string, year, month int) (*models.MonthlyStock, error)
	GetDailyBalances(tenantID, source, date string) ([]catalog.DailyBalance, error)
	StockValuation(tenantID, source, date string) (*catalog.ValuationResponse, error)
}

type CatalogHandler struct {
	Catalog catalogService
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}
	product.TenantID = c.Param("theaterId")
	if err := h.Catalog.CreateProduct(&product); err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, product)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	h.listProducts(c, c.DefaultQuery("stockSource", models.StockTheater))
}

// CustomerMenu is the public QR-surface listing. Availability always
// comes from the cafe ledger, the same ledger intake gates on, no
// matter what the query string asks for.
func (h *CatalogHandler) CustomerMenu(c *gin.Context) {
	h.listProducts(c, models.StockCafe)
}

func (h *CatalogHandler) listProducts(c *gin.Context, stockSource string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	views, total, err := h.Catalog.ListProducts(c.Param("theaterId"), stockSource, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"products": views, "total": total, "page": page, "limit": limit})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.Catalog.GetProduct(c.Param("theaterId"), c.Param("productId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Param("theaterId"), c.Param("productId"), patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Param("theaterId"), c.Param("productId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		respondBadRequest(c, "invalid category payload")
		return
	}
	category.TenantID = c.Param("theaterId")
	if err := h.Catalog.CreateCategory(&category); err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, category)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	out, err := h.Catalog.ListCategories(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, out)
}

func (h *CatalogHandler) CreateKioskType(c *gin.Context) {
	var kiosk models.KioskType
	if err := c.ShouldBindJSON(&kiosk); err != nil {
		respondBadRequest(c, "invalid kiosk type payload")
		return
	}
	kiosk.TenantID = c.Param("theaterId")
	if err := h.Catalog.CreateKioskType(&kiosk); err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, kiosk)
}

func (h *CatalogHandler) ListKioskTypes(c *gin.Context) {
	out, err := h.Catalog.ListKioskTypes(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, out)
}

// ---- stock ----

type recordStockRequest struct {
	ProductID string              `json:"productId" binding:"required"`
	Source    string              `json:"source" binding:"required"`
	Date      string              `json:"date" binding:"required"`
	Fields    catalog.StockFields `json:"fields"`
}

func (h *CatalogHandler) RecordStock(c *gin.Context) {
	var req recordStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "productId, source and date are required")
		return
	}
	doc, err := h.Catalog.RecordStock(c.Param("theaterId"), req.ProductID, req.Source, req.Date, req.Fields)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, doc)
}

func (h *CatalogHandler) GetMonthlyStock(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	doc, err := h.Catalog.GetMonthlyStock(c.Param("theaterId"), c.Param("productId"),
		c.DefaultQuery("source", models.StockTheater), year, month)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, doc)
}

func (h *CatalogHandler) GetDailyBalances(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format(catalog.StockDate))
	out, err := h.Catalog.GetDailyBalances(c.Param("theaterId"),
		c.DefaultQuery("source", models.StockTheater), date)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, out)
}

func (h *CatalogHandler) StockValuation(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format(catalog.StockDate))
	out, err := h.Catalog.StockValuation(c.Param("theaterId"),
		c.DefaultQuery("source", models.StockTheater), date)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, out)
}
