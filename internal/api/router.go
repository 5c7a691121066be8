package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/userdb/userdb/internal/health"
	"github.com/userdb/userdb/internal/users"
)

// NewRouter builds the HTTP router around an already constructed user service
func NewRouter(userService users.UserService, healthManager *health.Manager, logger *zap.Logger, maxRequestSize int64) *gin.Engine {
	router := gin.New()

	router.Use(cors.Default())
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(BodyLimit(maxRequestSize))

	router.GET("/health", healthHandler(healthManager))

	NewUserHandlers(userService, logger).RegisterRoutes(router)

	return router
}

func healthHandler(healthManager *health.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := healthManager.RuntimeHealthCheck(c.Request.Context())

		services := make(gin.H, len(results))
		for name, checkErr := range results {
			if checkErr != nil {
				services[name] = checkErr.Error()
				continue
			}
			services[name] = "healthy"
		}

		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now().Format(time.RFC3339),
				"services":  services,
				"error":     err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		})
	}
}
