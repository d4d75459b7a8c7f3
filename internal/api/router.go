package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/api/handlers"
	"locmaison/backend/internal/api/middleware"
	"locmaison/backend/internal/config"
	"locmaison/backend/internal/services"
	"locmaison/backend/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database) *gin.Engine {
	media, err := storage.NewMediaStorage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize media storage: %v", err)
	}

	ownerService := services.NewOwnerService(db, media)
	listingService := services.NewListingService(db, media)
	messageService := services.NewMessageService(db)
	statsService := services.NewStatsService(db)

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadSizeMB) << 20

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first (order matters)
	r.Use(gin.Logger())
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}))

	ownerHandler := handlers.NewOwnerHandler(cfg, ownerService)
	listingHandler := handlers.NewListingHandler(listingService, media)
	messageHandler := handlers.NewMessageHandler(messageService)
	statsHandler := handlers.NewStatsHandler(statsService)

	authRequired := middleware.AuthMiddleware(cfg.JwtSecret, ownerService)

	// Media files are served straight off local disk.
	r.Static("/uploads", cfg.UploadDir)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "LocMaison API is running")
	})

	proprietaire := r.Group("/api/proprietaire")
	{
		proprietaire.POST("/register", ownerHandler.Register)
		proprietaire.POST("/login", ownerHandler.Login)
		proprietaire.GET("/me", authRequired, ownerHandler.Me)
		proprietaire.PUT("/update", authRequired, ownerHandler.Update)
		proprietaire.DELETE("/delete", authRequired, ownerHandler.Delete)
	}

	maisons := r.Group("/api/maisons")
	{
		maisons.GET("", listingHandler.List)
		maisons.GET("/mes-maisons", authRequired, listingHandler.Mine)
		maisons.GET("/:id", listingHandler.Get)
		maisons.POST("", authRequired, listingHandler.Create)
		maisons.PUT("/:id", authRequired, listingHandler.Update)
		maisons.DELETE("/:id", authRequired, listingHandler.Delete)
	}

	messages := r.Group("/api/messages")
	{
		messages.POST("", messageHandler.CreateFromClient)
		messages.POST("/envoyer", messageHandler.Send)
		messages.GET("", authRequired, messageHandler.Inbox)
		messages.GET("/client/:email", messageHandler.ClientThread)
		messages.PUT("/:id/reponse", authRequired, messageHandler.Reply)
		messages.DELETE("/:id", authRequired, messageHandler.Delete)
	}

	r.GET("/api/stats", statsHandler.GetStats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
