package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/repository"
	"mediadrop/gateway/internal/session"
)

// SetupRoutes wires the HTTP surface onto router. The access gate runs once
// at the edge for every route; individual handlers never re-install it.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.ServerConfig,
	codec *session.Codec,
	identity IdentityExchanger,
	uploads repository.UploadRepository,
) {
	authHandler := NewAuthHandler(cfg, codec, identity)
	uploadHandler := NewUploadHandler(cfg, codec, uploads)

	router.Use(AccessGate(cfg, codec))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/", func(c *gin.Context) {
		resp := gin.H{
			"service": "mediadrop",
			"upload":  "/upload",
		}
		if user, ok := currentUser(c); ok {
			resp["user"] = gin.H{"id": user.ID, "username": user.Username}
		}
		c.JSON(http.StatusOK, resp)
	})

	authGroup := router.Group("/auth")
	{
		authGroup.GET("/login", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
	}

	router.POST("/upload", uploadHandler.Upload)
	router.GET("/uploads", uploadHandler.ListUploads)
}
