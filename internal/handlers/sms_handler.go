package handlers

import (
	"github.com/gin-gonic/gin"

	"canteen-backend/internal/sms"
)

type SMSHandler struct {
	OTP *sms.OTPService
}

func (h *SMSHandler) SendOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "phone is required")
		return
	}
	if err := h.OTP.SendOTP(c.Request.Context(), req.Phone); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"sent": true})
}

func (h *SMSHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "phone and code are required")
		return
	}
	if err := h.OTP.VerifyOTP(req.Phone, req.Code); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"verified": true})
}
