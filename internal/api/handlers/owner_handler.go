package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/api/middleware"
	"locmaison/backend/internal/auth"
	"locmaison/backend/internal/config"
	"locmaison/backend/internal/services"
)

// OwnerHandler handles owner account requests under /api/proprietaire.
type OwnerHandler struct {
	cfg          *config.Config
	ownerService services.IOwnerService
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(cfg *config.Config, ownerService services.IOwnerService) *OwnerHandler {
	return &OwnerHandler{cfg: cfg, ownerService: ownerService}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateOwnerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// Register handles POST /api/proprietaire/register. The new account is
// logged in immediately: the response carries a token.
func (h *OwnerHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	owner, err := h.ownerService.Register(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := auth.GenerateJWT(owner.ID, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Account created and logged in",
		"token":        token,
		"proprietaire": owner.Summary(),
	})
}

// Login handles POST /api/proprietaire/login. Unknown email and wrong
// password answer with one identical message.
func (h *OwnerHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	owner, err := h.ownerService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect email or password"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, err := auth.GenerateJWT(owner.ID, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        token,
		"proprietaire": owner.Summary(),
	})
}

// Me handles GET /api/proprietaire/me.
func (h *OwnerHandler) Me(c *gin.Context) {
	owner := middleware.CurrentOwner(c)
	c.JSON(http.StatusOK, gin.H{
		"name":  owner.Name,
		"email": owner.Email,
		"phone": owner.Phone,
	})
}

// Update handles PUT /api/proprietaire/update. Absent fields keep
// their current value.
func (h *OwnerHandler) Update(c *gin.Context) {
	var req updateOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	owner := middleware.CurrentOwner(c)
	updated, err := h.ownerService.UpdateProfile(c.Request.Context(), owner.ID, services.OwnerProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use by another account"})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Owner not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Profile updated",
		"proprietaire": updated.Summary(),
	})
}

// Delete handles DELETE /api/proprietaire/delete. The caller's
// listings and their media files go with the account.
func (h *OwnerHandler) Delete(c *gin.Context) {
	owner := middleware.CurrentOwner(c)
	if err := h.ownerService.DeleteOwnerAndListings(c.Request.Context(), owner.ID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account and associated listings deleted"})
}
