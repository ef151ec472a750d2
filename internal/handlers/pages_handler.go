package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"inventory-tracker/internal/cache"
	"inventory-tracker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// PagesHandler serves the server-rendered front end.
type PagesHandler struct {
	*readModel
	logger *zap.Logger
}

// NewPagesHandler shares the read cache with the API handler when c is the same cache.
func NewPagesHandler(service InventoryService, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *PagesHandler {
	return &PagesHandler{
		readModel: newReadModel(service, c, cacheTTL, logger),
		logger:    logger,
	}
}

func (h *PagesHandler) Register(router gin.IRoutes) {
	router.GET("/", h.Dashboard)
	router.GET("/add_item", h.AddItemForm)
	router.POST("/add_item", h.AddItem)
	router.GET("/add_sale", h.AddSaleForm)
	router.POST("/add_sale", h.AddSale)
	router.GET("/sales_history", h.SalesHistory)
	router.GET("/export_excel", h.ExportExcel)
}

func (h *PagesHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.items(ctx)
	if err != nil {
		h.renderError(c, "dashboard.html", err)
		return
	}
	summary := domain.Summarize(items)

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":   "Dashboard",
		"Items":   items,
		"Summary": summary,
	})
}

func (h *PagesHandler) AddItemForm(c *gin.Context) {
	c.HTML(http.StatusOK, "add_item.html", gin.H{"Title": "Add Item"})
}

func (h *PagesHandler) AddItem(c *gin.Context) {
	name := c.PostForm("item_name")
	quantity, qErr := domain.ParseQuantity(c.DefaultPostForm("quantity", "0"))
	cost, cErr := domain.ParseCost(c.DefaultPostForm("cost", "0"))
	if qErr != nil || cErr != nil {
		c.HTML(http.StatusOK, "add_item.html", gin.H{
			"Title": "Add Item",
			"Error": "Invalid quantity or cost format!",
		})
		return
	}

	_, err := h.service.AddItem(c.Request.Context(), name, quantity, cost)
	if err == nil {
		h.invalidate(c.Request.Context())
	}
	result := domain.ResultFromError(err, domain.MsgItemAdded)
	c.HTML(http.StatusOK, "add_item.html", withResult(gin.H{"Title": "Add Item"}, result))
}

func (h *PagesHandler) AddSaleForm(c *gin.Context) {
	h.renderSaleForm(c, nil)
}

func (h *PagesHandler) AddSale(c *gin.Context) {
	itemID, idErr := domain.ParseItemID(c.PostForm("item_id"))
	quantity, qErr := domain.ParseQuantity(c.DefaultPostForm("quantity_sold", "0"))
	if idErr != nil || qErr != nil {
		h.renderSaleForm(c, &domain.Result{Message: "Invalid item or quantity!"})
		return
	}

	receipt, err := h.service.RecordSale(c.Request.Context(), itemID, quantity)
	var result domain.Result
	if err == nil {
		h.invalidate(c.Request.Context())
		result = domain.Result{Success: true, Message: receipt.Message()}
	} else {
		result = domain.ResultFromError(err, "")
	}
	h.renderSaleForm(c, &result)
}

// renderSaleForm loads the item picker after any sale so it shows the new stock.
func (h *PagesHandler) renderSaleForm(c *gin.Context, result *domain.Result) {
	data := gin.H{"Title": "Record Sale"}
	if result != nil {
		data = withResult(data, *result)
	}

	items, err := h.items(c.Request.Context())
	if err != nil {
		h.renderError(c, "add_sale.html", err)
		return
	}
	data["Items"] = items
	c.HTML(http.StatusOK, "add_sale.html", data)
}

func (h *PagesHandler) SalesHistory(c *gin.Context) {
	sales, err := h.sales(c.Request.Context())
	if err != nil {
		h.renderError(c, "sales_history.html", err)
		return
	}
	c.HTML(http.StatusOK, "sales_history.html", gin.H{
		"Title": "Sales History",
		"Sales": sales,
	})
}

func (h *PagesHandler) ExportExcel(c *gin.Context) {
	writeExport(c, h.service, h.logger)
}

// renderError shows the service message on the page; the process keeps serving.
func (h *PagesHandler) renderError(c *gin.Context, page string, err error) {
	h.logger.Error("Page failed", zap.String("page", page), zap.Error(err))
	c.HTML(http.StatusInternalServerError, page, gin.H{
		"Error": domain.ResultFromError(err, "").Message,
	})
}

func withResult(data gin.H, result domain.Result) gin.H {
	if result.Success {
		data["Success"] = result.Message
	} else {
		data["Error"] = result.Message
	}
	return data
}
