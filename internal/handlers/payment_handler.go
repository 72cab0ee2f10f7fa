package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"canteen-backend/internal/models"
	"canteen-backend/internal/payments"
)

type PaymentHandler struct {
	Payments *payments.Service
}

// GetConfig returns the channel config without the secret; the json
// tag on KeySecret strips it.
func (h *PaymentHandler) GetConfig(c *gin.Context) {
	cfg, err := h.Payments.GetConfig(c.Param("theaterId"), c.Param("channel"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, cfg)
}

type gatewayConfigRequest struct {
	Enabled         bool                   `json:"enabled"`
	Provider        string                 `json:"provider" binding:"required"`
	KeyID           string                 `json:"keyId"`
	KeySecret       string                 `json:"keySecret"`
	AcceptedMethods models.AcceptedMethods `json:"acceptedMethods"`
}

func (h *PaymentHandler) UpsertConfig(c *gin.Context) {
	var req gatewayConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "provider is required")
		return
	}
	cfg := &models.GatewayConfig{
		TenantID:        c.Param("theaterId"),
		Channel:         c.Param("channel"),
		Enabled:         req.Enabled,
		Provider:        req.Provider,
		KeyID:           req.KeyID,
		KeySecret:       req.KeySecret,
		AcceptedMethods: datatypes.NewJSONType(req.AcceptedMethods),
	}
	if err := h.Payments.UpsertConfig(cfg); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, cfg)
}

func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	var req struct {
		Method string `json:"method"`
	}
	c.ShouldBindJSON(&req)
	res, err := h.Payments.CreateGatewayOrder(c.Request.Context(),
		c.Param("theaterId"), c.Param("orderId"), req.Method)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, res)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var cb payments.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		respondBadRequest(c, "invalid callback payload")
		return
	}
	cb.TenantID = c.Param("theaterId")
	cb.OrderID = c.Param("orderId")
	order, err := h.Payments.VerifyPayment(cb)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, order)
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	order, err := h.Payments.CancelPayment(c.Param("theaterId"), c.Param("orderId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, order)
}
