package handlers

import (
	"github.com/gin-gonic/gin"

	"canteen-backend/internal/models"
	"canteen-backend/internal/tenants"
)

type TenantHandler struct {
	Tenants *tenants.Service
}

func (h *TenantHandler) Create(c *gin.Context) {
	var tenant models.Tenant
	if err := c.ShouldBindJSON(&tenant); err != nil {
		respondBadRequest(c, "invalid tenant payload")
		return
	}
	if err := h.Tenants.CreateTenant(&tenant); err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, tenant)
}

func (h *TenantHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	out, err := h.Tenants.ListTenants(activeOnly)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, out)
}

func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.Tenants.GetTenant(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, tenant)
}

func (h *TenantHandler) Update(c *gin.Context) {
	var patch tenants.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid tenant payload")
		return
	}
	tenant, err := h.Tenants.UpdateTenant(c.Param("theaterId"), patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, tenant)
}

func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.Tenants.DeleteTenant(c.Param("theaterId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// ---- settings ----

func (h *TenantHandler) GetSettings(c *gin.Context) {
	settings, err := h.Tenants.GetSettings(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, settings)
}

func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	var patch tenants.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid settings payload")
		return
	}
	settings, err := h.Tenants.UpdateSettings(c.Param("theaterId"), patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, settings)
}

// ---- tenant users ----

func (h *TenantHandler) CreateUser(c *gin.Context) {
	var in tenants.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}
	if in.Role == "" {
		in.Role = models.RoleTenantStaff
	}
	tenantID := c.Param("theaterId")
	user, err := h.Tenants.CreateUser(&tenantID, in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, user)
}

func (h *TenantHandler) ListUsers(c *gin.Context) {
	users, err := h.Tenants.ListUsers(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, users)
}

func (h *TenantHandler) SetUserStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	if err := h.Tenants.SetUserStatus(c.Param("theaterId"), c.Param("userId"), req.Status); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"status": req.Status})
}
