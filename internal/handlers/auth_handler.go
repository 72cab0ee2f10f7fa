package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/auth"
	"canteen-backend/internal/config"
	"canteen-backend/internal/models"
	"canteen-backend/internal/tenants"
)

type AuthHandler struct {
	DB      *gorm.DB
	Tenants *tenants.Service
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token. Disabled users and
// users of inactive tenants are rejected with the same message as a bad
// password; login must not leak which part failed.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		respondErr(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondErr(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}
	if user.Status != models.UserActive {
		respondErr(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}

	tenantID := ""
	if user.TenantID != nil {
		tenantID = *user.TenantID
		var tenant models.Tenant
		if err := h.DB.First(&tenant, "id = ?", tenantID).Error; err != nil || !tenant.IsActive {
			respondErr(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
			return
		}
	}

	cfg := config.AppConfig.Server
	token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, tenantID, user.Role,
		time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		respondErr(c, apperr.Wrap(apperr.Internal, "sign token", err))
		return
	}
	respondOK(c, gin.H{"token": token, "user": user})
}

// Register provisions the first super-admin. The route is only mounted
// when ALLOW_REGISTRATION is set; production keeps it off.
func (h *AuthHandler) Register(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}
	user, err := h.Tenants.CreateUser(nil, tenants.UserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	p := principal(c)
	var user models.User
	if err := h.DB.First(&user, "id = ?", p.UserID).Error; err != nil {
		respondErr(c, apperr.New(apperr.NotFound, "user not found"))
		return
	}
	respondOK(c, user)
}
