package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-saas/internal/audit"
	domain "github.com/BruksfildServices01/barber-saas/internal/domain/sales"
	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/httpresp"
	"github.com/BruksfildServices01/barber-saas/internal/models"
	ucSales "github.com/BruksfildServices01/barber-saas/internal/usecase/sales"
)

// ProductHandler manages retail items and their stock.
type ProductHandler struct {
	db        *gorm.DB
	audit     *audit.Dispatcher
	moveStock *ucSales.MoveStock
}

func NewProductHandler(db *gorm.DB, audit *audit.Dispatcher, moveStock *ucSales.MoveStock) *ProductHandler {
	return &ProductHandler{db: db, audit: audit, moveStock: moveStock}
}

type CreateProductRequest struct {
	Name     string  `json:"name" binding:"required"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price" binding:"min=0"`
	Cost     float64 `json:"cost" binding:"min=0"`
	Stock    int     `json:"stock" binding:"min=0"`
	MinStock int     `json:"min_stock" binding:"min=0"`
}

// Stock is not editable here; it only moves through stock movements.
type UpdateProductRequest struct {
	Name     *string  `json:"name"`
	SKU      *string  `json:"sku"`
	Price    *float64 `json:"price" binding:"omitempty,min=0"`
	Cost     *float64 `json:"cost" binding:"omitempty,min=0"`
	MinStock *int     `json:"min_stock" binding:"omitempty,min=0"`
	Active   *bool    `json:"active"`
}

type StockMovementRequest struct {
	Type     string `json:"type" binding:"required,oneof=in out adjustment"`
	Quantity int    `json:"quantity" binding:"min=0"`
	Reason   string `json:"reason" binding:"max=255"`
}

type productView struct {
	models.Product
	LowStock bool `json:"low_stock"`
}

func viewProduct(p models.Product) productView {
	return productView{Product: p, LowStock: domain.LowStock(p.Stock, p.MinStock)}
}

func (h *ProductHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", tenantID(c))

	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}
	if c.Query("low_stock") == "true" {
		q = q.Where("stock <= min_stock")
	}

	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, viewProduct(p))
	}
	c.JSON(http.StatusOK, out)
}

// Create registers the product; an initial stock is recorded as an "in" movement.
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product := models.Product{
		BarbershopID: tenantID(c),
		Name:         strings.TrimSpace(req.Name),
		SKU:          strings.TrimSpace(req.SKU),
		Price:        req.Price,
		Cost:         req.Cost,
		MinStock:     req.MinStock,
		Active:       true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		httperr.Render(c, err)
		return
	}
	writeAudit(h.audit, c, "product_created", "product", product.ID, nil)

	if req.Stock > 0 {
		if _, err := h.moveStock.Execute(c.Request.Context(), ucSales.StockMovementInput{
			BarbershopID: product.BarbershopID,
			ActorID:      actorID(c),
			ProductID:    product.ID,
			Type:         domain.MovementIn,
			Quantity:     req.Stock,
			Reason:       "Estoque inicial",
		}); err != nil {
			httperr.Render(c, err)
			return
		}
		product.Stock = req.Stock
	}

	c.JSON(http.StatusCreated, viewProduct(product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, tenantID(c)).
		First(&product).Error; err != nil {
		notFoundOr(c, err, "product_not_found", "Produto não encontrado.")
		return
	}

	var req UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		updates["sku"] = strings.TrimSpace(*req.SKU)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Cost != nil {
		updates["cost"] = *req.Cost
	}
	if req.MinStock != nil {
		updates["min_stock"] = *req.MinStock
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&product).Updates(updates).Error; err != nil {
			httperr.Render(c, err)
			return
		}
		writeAudit(h.audit, c, "product_updated", "product", product.ID, updates)
	}

	c.JSON(http.StatusOK, viewProduct(product))
}

func (h *ProductHandler) MoveStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req StockMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	mv, err := h.moveStock.Execute(c.Request.Context(), ucSales.StockMovementInput{
		BarbershopID: tenantID(c),
		ActorID:      actorID(c),
		ProductID:    id,
		Type:         req.Type,
		Quantity:     req.Quantity,
		Reason:       strings.TrimSpace(req.Reason),
	})
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusCreated, mv)
}

func (h *ProductHandler) ListMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page := httpresp.PageFromQuery(c, 50, 200)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.StockMovement{}).
		Where("barbershop_id = ? AND product_id = ?", tenantID(c), id)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	var movements []models.StockMovement
	if err := q.Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&movements).Error; err != nil {
		httperr.Render(c, err)
		return
	}

	httpresp.Paged(c, movements, page, total)
}
