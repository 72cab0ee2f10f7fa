package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/orders"
)

type OrderHandler struct {
	Orders *orders.Service
}

// Create runs intake. A replayed draft (same clientRef) answers 200
// with the stored order instead of 201.
func (h *OrderHandler) Create(c *gin.Context) {
	var draft orders.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondBadRequest(c, "invalid order payload")
		return
	}
	draft.TenantID = c.Param("theaterId")

	order, created, err := h.Orders.CreateOrder(draft)
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "data": order})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Param("theaterId"), c.Param("orderId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, total, err := h.Orders.ListOrders(c.Param("theaterId"), c.Query("status"), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"orders": out, "total": total, "page": page, "limit": limit})
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	order, err := h.Orders.UpdateStatus(c.Param("theaterId"), c.Param("orderId"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, order)
}

// SalesReport aggregates settled orders over ?start=&end= (dates,
// defaulting to the last 30 days).
func (h *OrderHandler) SalesReport(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if v := c.Query("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondBadRequest(c, "start must be YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if v := c.Query("end"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondBadRequest(c, "end must be YYYY-MM-DD")
			return
		}
		// Inclusive end of day.
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	report, err := h.Orders.GetSalesReport(c.Param("theaterId"), start, end)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, report)
}
