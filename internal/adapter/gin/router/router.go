package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"mongo-user-service/internal/adapter/gin/handler"
	"mongo-user-service/internal/adapter/gin/middleware"
	"mongo-user-service/pkg/logger"
)

// OpenAPIPath is where the OpenAPI document is served.
const OpenAPIPath = "/openapi/users.swagger.json"

// Options configures optional parts of the router.
type Options struct {
	Mode            string                 // gin mode, release when empty
	RateLimiter     *middleware.RateLimiter // nil disables rate limiting
	SwaggerSpecPath string                 // OpenAPI file on disk, empty disables docs
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
	opts Options,
	log *zap.Logger,
) *gin.Engine {
	mode := opts.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if opts.SwaggerSpecPath != "" {
		router.GET(OpenAPIPath, func(c *gin.Context) {
			c.File(opts.SwaggerSpecPath)
		})
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(OpenAPIPath))))
	}

	users := router.Group("/users")
	users.Use(opts.RateLimiter.Middleware())
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{
			Error:   "not_found",
			Message: "route not found",
		})
	})

	return router
}
