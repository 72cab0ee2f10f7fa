// Package handlers is the gin surface. Every response uses the same
// envelope: {success, data} on the happy path, {success, error, code?}
// on failure, with the status derived from the error kind.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/access"
	"canteen-backend/internal/apperr"
	"canteen-backend/internal/middleware"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, err error) {
	body := gin.H{"success": false, "error": err.Error()}
	if code := apperr.CodeOf(err); code != "" {
		body["code"] = code
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	c.JSON(apperr.HTTPStatus(err), body)
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// principal rebuilds the authenticated principal from the context keys
// the auth middleware set.
func principal(c *gin.Context) access.Principal {
	return access.Principal{
		UserID:   c.GetString(middleware.CtxUserID),
		TenantID: c.GetString(middleware.CtxTenantID),
		Role:     c.GetString(middleware.CtxRole),
	}
}
