package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/auth"
	"locmaison/backend/internal/models"
	"locmaison/backend/internal/services"
)

// ContextKeyOwner holds the key for the authenticated owner in Gin context.
const ContextKeyOwner = "owner"

// AuthMiddleware creates a Gin middleware for JWT authentication. On
// success the full owner record is resolved from the credential store
// and attached to the context; a token for a deleted account is as
// invalid as no token at all.
func AuthMiddleware(jwtSecret string, ownerService services.IOwnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// Exactly "Bearer <token>", scheme literal case-sensitive.
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ownerID, err := primitive.ObjectIDFromHex(claims.OwnerID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		owner, err := ownerService.FindByID(c.Request.Context(), ownerID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Owner account not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			}
			return
		}

		c.Set(ContextKeyOwner, owner)
		c.Next()
	}
}

// CurrentOwner returns the owner record attached by AuthMiddleware.
func CurrentOwner(c *gin.Context) *models.Owner {
	return c.MustGet(ContextKeyOwner).(*models.Owner)
}
