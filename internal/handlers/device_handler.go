package handlers

import (
	"github.com/gin-gonic/gin"

	"canteen-backend/internal/fanout"
)

type DeviceHandler struct {
	Registry *fanout.Registry
}

func (h *DeviceHandler) Register(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "token is required")
		return
	}
	device, err := h.Registry.RegisterDevice(c.Param("theaterId"), req.Token, req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, device)
}

func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.Registry.ListDevices(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, devices)
}

func (h *DeviceHandler) Remove(c *gin.Context) {
	if err := h.Registry.RemoveDevice(c.Param("theaterId"), c.Param("deviceId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
