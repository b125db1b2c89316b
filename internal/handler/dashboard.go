package handler

import (
	"net/http"

	"erp-admin/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard service.DashboardService
}

func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats は件数と売上合計を返す
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) RecentOrders(c *gin.Context) {
	orders, err := h.dashboard.RecentOrders(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *DashboardHandler) TopProducts(c *gin.Context) {
	products, err := h.dashboard.TopProducts(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// SalesByCategory は売上ゼロのカテゴリも含めて返す
func (h *DashboardHandler) SalesByCategory(c *gin.Context) {
	sales, err := h.dashboard.SalesByCategory(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": sales})
}
