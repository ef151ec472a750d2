package handlers

import (
	"bytes"
	"math"
	"net/http"
	"time"

	"inventory-tracker/internal/cache"
	"inventory-tracker/internal/domain"
	"inventory-tracker/internal/export"
	apperrors "inventory-tracker/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryHandler serves the JSON API.
type InventoryHandler struct {
	*readModel
	logger *zap.Logger
}

// NewInventoryHandler builds the API handler. c may be nil to disable caching.
func NewInventoryHandler(service InventoryService, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		readModel: newReadModel(service, c, cacheTTL, logger),
		logger:    logger,
	}
}

// Register mounts the API under rg (normally /api/v1).
func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/items", h.ListItems)
	rg.GET("/items/:id", h.GetItem)
	rg.POST("/items", h.AddItem)
	rg.DELETE("/items/:id", h.DeleteItem)
	rg.POST("/items/:id/quantity", h.UpdateQuantity)
	rg.POST("/sales", h.RecordSale)
	rg.GET("/sales", h.ListSales)
	rg.GET("/summary", h.Summary)
	rg.GET("/export", h.Export)
}

// RegisterLegacy mounts the routes the dashboard script calls. They always
// answer 200 with {success, message}.
func (h *InventoryHandler) RegisterLegacy(rg *gin.RouterGroup) {
	rg.DELETE("/delete_item/:id", h.LegacyDeleteItem)
	rg.POST("/update_quantity/:id", h.LegacyUpdateQuantity)
}

// Health handles GET /api/v1/health
// @Summary      Health check
// @Description  Reports whether the service and its SQLite store are reachable.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *InventoryHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Service: "inventory-tracker", Store: "ok"}
	if err := h.service.Ping(c.Request.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListItems handles GET /api/v1/items
// @Summary      List items
// @Description  Returns every item ordered by name. Served from the cache when enabled.
// @Tags         items
// @Produce      json
// @Success      200  {object}  ItemListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	items, err := h.items(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ItemListResponse{Items: items, Count: len(items)})
}

// GetItem handles GET /api/v1/items/:id
// @Summary      Get an item
// @Tags         items
// @Produce      json
// @Param        id   path      int  true  "Item ID"
// @Success      200  {object}  domain.Item
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /items/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, err := domain.ParsePathItemID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AddItem handles POST /api/v1/items
// @Summary      Add an item
// @Description  Creates an item. The name is trimmed and must be unique; quantity and cost must not be negative.
// @Description  **Idempotency**: repeat the same X-Request-ID to get the stored response instead of a second insert.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string          false  "Request ID for idempotent replay"
// @Param        request       body      AddItemRequest  true   "Item to add"
// @Success      201           {object}  ItemResponse
// @Failure      400           {object}  ErrorResponse  "Validation error"
// @Failure      409           {object}  ErrorResponse  "Item already exists, or the same X-Request-ID is still in progress"
// @Failure      500           {object}  ErrorResponse
// @Router       /items [post]
func (h *InventoryHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("Invalid quantity or cost format!", err.Error()))
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), req.Name, req.Quantity, req.Cost)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusCreated, ItemResponse{Success: true, Message: domain.MsgItemAdded, Item: *item})
}

// DeleteItem handles DELETE /api/v1/items/:id
// @Summary      Delete an item
// @Description  Removes the item. Its sales stay recorded but no longer appear in the history.
// @Tags         items
// @Produce      json
// @Param        id   path      int  true  "Item ID"
// @Success      200  {object}  ResultResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /items/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, err := domain.ParsePathItemID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusOK, ResultResponse{Success: true, Message: domain.MsgItemDeleted})
}

// UpdateQuantity handles POST /api/v1/items/:id/quantity
// @Summary      Correct an item's quantity
// @Description  Overwrites the stock level without recording a sale.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id       path      int                    true  "Item ID"
// @Param        request  body      UpdateQuantityRequest  true  "New quantity"
// @Success      200      {object}  ItemResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /items/{id}/quantity [post]
func (h *InventoryHandler) UpdateQuantity(c *gin.Context) {
	id, err := domain.ParsePathItemID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	quantity, err := bindQuantity(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	item, err := h.service.UpdateItemQuantity(c.Request.Context(), id, quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusOK, ItemResponse{Success: true, Message: domain.MsgQuantityUpdated, Item: *item})
}

// RecordSale handles POST /api/v1/sales
// @Summary      Record a sale
// @Description  Removes quantity_sold units from the item and appends a sale, atomically.
// @Description  Fails without changes when the item does not have enough stock.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string             false  "Request ID for idempotent replay"
// @Param        request       body      RecordSaleRequest  true   "Sale to record"
// @Success      201           {object}  SaleResponse
// @Failure      400           {object}  ErrorResponse  "Validation error or insufficient stock"
// @Failure      404           {object}  ErrorResponse  "Item not found"
// @Failure      409           {object}  ErrorResponse  "The same X-Request-ID is still in progress"
// @Failure      500           {object}  ErrorResponse
// @Router       /sales [post]
func (h *InventoryHandler) RecordSale(c *gin.Context) {
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("Invalid item or quantity!", err.Error()))
		return
	}

	receipt, err := h.service.RecordSale(c.Request.Context(), req.ItemID, req.QuantitySold)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusCreated, SaleResponse{Success: true, Message: receipt.Message(), Sale: *receipt})
}

// ListSales handles GET /api/v1/sales
// @Summary      Sales history
// @Description  Returns sales newest first, joined to the item's current name.
// @Tags         sales
// @Produce      json
// @Success      200  {object}  SalesListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sales [get]
func (h *InventoryHandler) ListSales(c *gin.Context) {
	sales, err := h.sales(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, SalesListResponse{Sales: sales, Count: len(sales)})
}

// Summary handles GET /api/v1/summary
// @Summary      Inventory totals
// @Tags         items
// @Produce      json
// @Success      200  {object}  domain.Summary
// @Failure      500  {object}  ErrorResponse
// @Router       /summary [get]
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.summary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Export handles GET /api/v1/export
// @Summary      Export inventory
// @Description  Downloads the inventory as an XLSX workbook with a summary block.
// @Tags         items
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Failure      500  {object}  ErrorResponse
// @Router       /export [get]
func (h *InventoryHandler) Export(c *gin.Context) {
	writeExport(c, h.service, h.logger)
}

// LegacyDeleteItem handles DELETE /api/delete_item/:id
func (h *InventoryHandler) LegacyDeleteItem(c *gin.Context) {
	id, err := domain.ParsePathItemID(c.Param("id"))
	if err == nil {
		err = h.service.DeleteItem(c.Request.Context(), id)
	}
	if err == nil {
		h.invalidate(c.Request.Context())
	}
	c.JSON(http.StatusOK, domain.ResultFromError(err, domain.MsgItemDeleted))
}

// LegacyUpdateQuantity handles POST /api/update_quantity/:id
func (h *InventoryHandler) LegacyUpdateQuantity(c *gin.Context) {
	id, err := domain.ParsePathItemID(c.Param("id"))
	var quantity int
	if err == nil {
		quantity, err = bindQuantity(c)
	}
	if err == nil {
		_, err = h.service.UpdateItemQuantity(c.Request.Context(), id, quantity)
	}
	if err == nil {
		h.invalidate(c.Request.Context())
	}
	c.JSON(http.StatusOK, domain.ResultFromError(err, domain.MsgQuantityUpdated))
}

// bindQuantity reads {"quantity": ...}. A missing quantity means 0; numbers
// must be whole and numeric strings are accepted.
func bindQuantity(c *gin.Context) (int, error) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return 0, domain.NewValidationError("Invalid quantity!")
	}

	switch q := req.Quantity.(type) {
	case nil:
		return 0, nil
	case float64:
		if q != math.Trunc(q) || math.Abs(q) > math.MaxInt32 {
			return 0, domain.NewValidationError("Invalid quantity!")
		}
		return int(q), nil
	case string:
		return domain.ParseQuantity(q)
	default:
		return 0, domain.NewValidationError("Invalid quantity!")
	}
}

// writeExport streams a fresh workbook; the cache is bypassed.
func writeExport(c *gin.Context, service InventoryService, logger *zap.Logger) {
	items, err := service.ListItems(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteInventory(&buf, items); err != nil {
		logger.Error("Failed to build export", zap.Error(err))
		_ = c.Error(apperrors.NewInternalError("Error: export failed"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
