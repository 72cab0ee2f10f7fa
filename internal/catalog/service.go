package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
)

// Service owns the catalog collections and both stock ledgers.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ---- catalog CRUD ----

func (s *Service) CreateProduct(p *models.Product) error {
	if p.Name == "" {
		return apperr.New(apperr.Validation, "product name must not be empty")
	}
	if p.BasePrice < 0 {
		return apperr.New(apperr.Validation, "basePrice must not be negative")
	}
	if p.GSTType == "" {
		p.GSTType = models.GSTExclude
	}
	if p.GSTType != models.GSTInclude && p.GSTType != models.GSTExclude {
		return apperr.Newf(apperr.Validation, "gstType must be INCLUDE or EXCLUDE, got %q", p.GSTType)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.db.Create(p).Error
}

func (s *Service) UpdateProduct(tenantID, id string, patch map[string]interface{}) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&product).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	delete(patch, "id")
	delete(patch, "tenant_id")
	delete(patch, "tenantId")
	if err := s.db.Model(&product).Updates(patch).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update product", err)
	}
	return &product, nil
}

func (s *Service) DeleteProduct(tenantID, id string) error {
	res := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Product{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "product not found")
	}
	return nil
}

func (s *Service) GetProduct(tenantID, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&product).Error; err != nil {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	return &product, nil
}

// ProductView is a product joined with the balance from the requested
// stock ledger. BalanceStock is authoritative for out-of-stock gating.
type ProductView struct {
	models.Product
	BalanceStock float64 `json:"balanceStock"`
	CategoryName string  `json:"categoryName,omitempty"`
}

// ListProducts pages through the tenant's products and joins each one
// against the stock source's balance for today plus the category name,
// via id-keyed maps built once per call.
func (s *Service) ListProducts(tenantID, stockSource string, page, limit int) ([]ProductView, int64, error) {
	if stockSource != models.StockTheater && stockSource != models.StockCafe {
		return nil, 0, apperr.Newf(apperr.Validation, "stockSource must be theater or cafe, got %q", stockSource)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := s.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "count products", err)
	}

	var products []models.Product
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("name").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "list products", err)
	}

	balances, err := s.BalanceStock(tenantID, stockSource, time.Now().Format(StockDate))
	if err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	if err := s.db.Where("tenant_id = ?", tenantID).Find(&categories).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "list categories", err)
	}
	catByID := make(map[string]string, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c.Name
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ProductView{
			Product:      p,
			BalanceStock: balances[p.ID],
			CategoryName: catByID[p.CategoryID],
		})
	}
	return views, total, nil
}

func (s *Service) CreateCategory(c *models.Category) error {
	if c.Name == "" {
		return apperr.New(apperr.Validation, "category name must not be empty")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return s.db.Create(c).Error
}

func (s *Service) ListCategories(tenantID string) ([]models.Category, error) {
	var out []models.Category
	err := s.db.Where("tenant_id = ?", tenantID).Order("name").Find(&out).Error
	return out, err
}

func (s *Service) CreateKioskType(k *models.KioskType) error {
	if k.Name == "" {
		return apperr.New(apperr.Validation, "kiosk type name must not be empty")
	}
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return s.db.Create(k).Error
}

func (s *Service) ListKioskTypes(tenantID string) ([]models.KioskType, error) {
	var out []models.KioskType
	err := s.db.Where("tenant_id = ?", tenantID).Order("name").Find(&out).Error
	return out, err
}

// ---- stock ledger ----

func (s *Service) monthlyDoc(tx *gorm.DB, tenantID, productID, source string, year, month int) (*models.MonthlyStock, error) {
	var doc models.MonthlyStock
	err := tx.Where("tenant_id = ? AND product_id = ? AND source = ? AND year = ? AND month = ?",
		tenantID, productID, source, year, month).First(&doc).Error
	if err == nil {
		return &doc, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "load monthly stock", err)
	}

	doc = models.MonthlyStock{
		ID: uuid.NewString(), TenantID: tenantID, ProductID: productID,
		Source: source, Year: year, Month: month,
	}
	if err := tx.Create(&doc).Error; err != nil {
		if database.IsDuplicateKey(err) {
			if err := tx.Where("tenant_id = ? AND product_id = ? AND source = ? AND year = ? AND month = ?",
				tenantID, productID, source, year, month).First(&doc).Error; err != nil {
				return nil, apperr.Wrap(apperr.Internal, "reload monthly stock", err)
			}
			return &doc, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "create monthly stock", err)
	}
	return &doc, nil
}

// RecordStock appends one day to the (tenant, product, source) ledger.
// A repeated date for the same product and month is a conflict.
func (s *Service) RecordStock(tenantID, productID, source, date string, fields StockFields) (*models.MonthlyStock, error) {
	if source != models.StockTheater && source != models.StockCafe {
		return nil, apperr.Newf(apperr.Validation, "source must be theater or cafe, got %q", source)
	}
	day, err := time.Parse(StockDate, date)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "invalid stock date %q", date)
	}
	if day.Day() != 1 && fields.CarryForward != 0 {
		return nil, apperr.New(apperr.Validation, "carryForward may only be supplied on the first day of a month")
	}

	var out *models.MonthlyStock
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := s.monthlyDoc(tx, tenantID, productID, source, day.Year(), int(day.Month()))
		if err != nil {
			return err
		}
		details, err := AppendDetail(doc.Details.Data(), date, fields)
		if err != nil {
			return err
		}
		doc.Details = datatypes.NewJSONType(details)
		doc.UpdatedAt = time.Now()
		out = doc
		return tx.Save(doc).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetMonthlyStock returns the ledger document for one product-month.
func (s *Service) GetMonthlyStock(tenantID, productID, source string, year, month int) (*models.MonthlyStock, error) {
	var doc models.MonthlyStock
	err := s.db.Where("tenant_id = ? AND product_id = ? AND source = ? AND year = ? AND month = ?",
		tenantID, productID, source, year, month).First(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.New(apperr.NotFound, "no stock recorded for that month")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load monthly stock", err)
	}
	return &doc, nil
}

// DailyBalance is the per-product ledger view for one day.
type DailyBalance struct {
	ProductID    string  `json:"productId"`
	InvordStock  float64 `json:"invordStock"`
	ExpiredStock float64 `json:"expiredStock"`
	CarryForward float64 `json:"carryForward"`
	UsedStock    float64 `json:"usedStock"`
	DamageStock  float64 `json:"damageStock"`
	Balance      float64 `json:"balance"`
}

// GetDailyBalances returns one row per tenant product for the requested
// day, zero-filled for products with no ledger entry.
func (s *Service) GetDailyBalances(tenantID, source, date string) ([]DailyBalance, error) {
	day, err := time.Parse(StockDate, date)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "invalid stock date %q", date)
	}

	var products []models.Product
	if err := s.db.Where("tenant_id = ?", tenantID).Find(&products).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list products", err)
	}

	var docs []models.MonthlyStock
	err = s.db.Where("tenant_id = ? AND source = ? AND year = ? AND month = ?",
		tenantID, source, day.Year(), int(day.Month())).Find(&docs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load monthly stock", err)
	}
	byProduct := make(map[string]*models.MonthlyStock, len(docs))
	for i := range docs {
		byProduct[docs[i].ProductID] = &docs[i]
	}

	out := make([]DailyBalance, 0, len(products))
	for _, p := range products {
		row := DailyBalance{ProductID: p.ID}
		if doc, ok := byProduct[p.ID]; ok {
			d := DetailFor(doc.Details.Data(), date)
			row = DailyBalance{
				ProductID:    p.ID,
				InvordStock:  d.InvordStock,
				ExpiredStock: d.ExpiredStock,
				CarryForward: d.CarryForward,
				UsedStock:    d.UsedStock,
				DamageStock:  d.DamageStock,
				Balance:      d.Balance,
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// BalanceStock maps productId to the day's closing balance for the
// given ledger. Listings and intake gating read from this.
func (s *Service) BalanceStock(tenantID, source, date string) (map[string]float64, error) {
	day, err := time.Parse(StockDate, date)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "invalid stock date %q", date)
	}
	var docs []models.MonthlyStock
	err = s.db.Where("tenant_id = ? AND source = ? AND year = ? AND month = ?",
		tenantID, source, day.Year(), int(day.Month())).Find(&docs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load monthly stock", err)
	}
	out := make(map[string]float64, len(docs))
	for i := range docs {
		out[docs[i].ProductID] = DetailFor(docs[i].Details.Data(), date).Balance
	}
	return out, nil
}
