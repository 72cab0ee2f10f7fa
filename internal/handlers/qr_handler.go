package handlers

import (
	"github.com/gin-gonic/gin"

	"canteen-backend/internal/qr"
)

type QRHandler struct {
	QR *qr.Service
}

func (h *QRHandler) List(c *gin.Context) {
	groups, err := h.QR.List(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, groups)
}

func (h *QRHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Screen string `json:"screen"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}
	group, err := h.QR.CreateGroup(c.Param("theaterId"), req.Name, req.Screen)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, group)
}

func (h *QRHandler) DeleteGroup(c *gin.Context) {
	if err := h.QR.DeleteGroup(c.Param("theaterId"), c.Param("groupId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *QRHandler) AddSeats(c *gin.Context) {
	var req struct {
		Seats []string `json:"seats" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "seats is required")
		return
	}
	group, err := h.QR.AddSeats(c.Param("theaterId"), c.Param("groupId"), req.Seats)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, group)
}

func (h *QRHandler) RemoveSeat(c *gin.Context) {
	if err := h.QR.RemoveSeat(c.Param("theaterId"), c.Param("groupId"), c.Param("label")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *QRHandler) Regenerate(c *gin.Context) {
	group, err := h.QR.Regenerate(c.Param("theaterId"), c.Param("groupId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, group)
}
