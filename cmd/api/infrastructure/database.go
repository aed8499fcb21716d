package infrastructure

import (
	"context"
	"fmt"
	"time"

	"mongo-user-service/internal/config"
	"mongo-user-service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewMongoClient connects to MongoDB with pool settings and command logging
// from configuration, and pings the primary before returning.
func NewMongoClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*mongo.Client, error) {
	monitor := logger.NewMongoMonitor(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)
	connectTimeout := time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second

	opts := options.Client().
		ApplyURI(cfg.Mongo.URL).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize).
		SetMinPoolSize(cfg.Mongo.MinPoolSize).
		SetConnectTimeout(connectTimeout).
		SetMaxConnIdleTime(time.Duration(cfg.Mongo.MaxConnIdleSeconds) * time.Second).
		SetMonitor(monitor.CommandMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	l.Info("database connected successfully",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection),
		zap.Uint64("max_pool_size", cfg.Mongo.MaxPoolSize),
		zap.Uint64("min_pool_size", cfg.Mongo.MinPoolSize),
		zap.Int("max_conn_idle_seconds", cfg.Mongo.MaxConnIdleSeconds),
	)

	return client, nil
}

// CloseDatabase disconnects the client, waiting for in-flight operations
// until ctx expires.
func CloseDatabase(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
