package handlers

import (
	"github.com/gin-gonic/gin"

	"canteen-backend/internal/access"
	"canteen-backend/internal/models"
)

type AccessHandler struct {
	Access *access.Service
}

func (h *AccessHandler) ListPages(c *gin.Context) {
	pages, err := h.Access.ListPages(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, pages)
}

func (h *AccessHandler) AddPage(c *gin.Context) {
	var page models.PageAccess
	if err := c.ShouldBindJSON(&page); err != nil {
		respondBadRequest(c, "invalid page payload")
		return
	}
	stored, err := h.Access.AddPage(c.Param("theaterId"), page)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, stored)
}

func (h *AccessHandler) RemovePage(c *gin.Context) {
	if err := h.Access.RemovePage(c.Param("theaterId"), c.Param("pageId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *AccessHandler) ListRoles(c *gin.Context) {
	roles, err := h.Access.ListRoles(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, roles)
}

func (h *AccessHandler) UpsertRole(c *gin.Context) {
	var role models.Role
	if err := c.ShouldBindJSON(&role); err != nil {
		respondBadRequest(c, "invalid role payload")
		return
	}
	stored, err := h.Access.UpsertRole(c.Param("theaterId"), role)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, stored)
}

func (h *AccessHandler) DeleteRole(c *gin.Context) {
	if err := h.Access.DeleteRole(c.Param("theaterId"), c.Param("roleId")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// Menu returns the ordered navigation the principal may see.
func (h *AccessHandler) Menu(c *gin.Context) {
	p := principal(c)
	// The super-admin browses tenant menus through the path parameter.
	if p.IsSuperAdmin() {
		p.TenantID = c.Param("theaterId")
	}
	menu, err := h.Access.GetMenu(p)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, menu)
}

// CheckRoute answers the frontend's "may I enter this route" probe.
func (h *AccessHandler) CheckRoute(c *gin.Context) {
	route := c.Query("route")
	if route == "" {
		respondBadRequest(c, "route query parameter is required")
		return
	}
	decision, err := h.Access.CheckRoute(principal(c), route)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, decision)
}
