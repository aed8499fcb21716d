package di

import (
	"context"
	"fmt"
	"time"

	"mongo-user-service/cmd/api/infrastructure"
	"mongo-user-service/internal/adapter/cache"
	"mongo-user-service/internal/adapter/db/mongodb"
	ginhandler "mongo-user-service/internal/adapter/gin/handler"
	"mongo-user-service/internal/adapter/gin/middleware"
	ginrouter "mongo-user-service/internal/adapter/gin/router"
	"mongo-user-service/internal/adapter/repository/cached"
	"mongo-user-service/internal/config"
	"mongo-user-service/internal/usecase/user"
	"mongo-user-service/pkg/health"
	redisclient "mongo-user-service/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Mongo         *mongo.Client
	RedisClient   *redisclient.Client
	UserUC        user.UserUsecase
	RateLimiter   *middleware.RateLimiter
	UserHandler   *ginhandler.UserHandler
	HealthHandler *ginhandler.HealthHandler
	Router        *gin.Engine
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	client, err := infrastructure.NewMongoClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	dbRepo := mongodb.NewUserRepoMongo(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), l)
	if err := dbRepo.EnsureIndexes(ctx); err != nil {
		_ = infrastructure.CloseDatabase(context.Background(), client)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(context.Background(), client)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Without Redis the repository is used directly and nothing is rate limited.
	var (
		repo        user.Repository = dbRepo
		rateLimiter *middleware.RateLimiter
		checkers    = []health.Checker{health.NewMongoChecker(client)}
	)
	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(dbRepo, userCache, l)

		rateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)

		checkers = append(checkers, health.NewRedisChecker(rdb.Client))
	}

	userUC := user.New(repo, l)

	userHandler := ginhandler.NewUserHandler(userUC, l)
	healthHandler := ginhandler.NewHealthHandler(health.NewService(checkers...), cfg.Logger.ServiceName, l)

	router := ginrouter.SetupRouter(userHandler, healthHandler, ginrouter.Options{
		Mode:            cfg.App.GinMode,
		RateLimiter:     rateLimiter,
		SwaggerSpecPath: cfg.App.SwaggerSpecPath,
	}, l)

	return &Container{
		Config:        cfg,
		Logger:        l,
		Mongo:         client,
		RedisClient:   rdb,
		UserUC:        userUC,
		RateLimiter:   rateLimiter,
		UserHandler:   userHandler,
		HealthHandler: healthHandler,
		Router:        router,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.Mongo != nil {
		if err := infrastructure.CloseDatabase(ctx, c.Mongo); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
