package logger

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.uber.org/zap"
)

// MonitorLevel controls how much the command monitor logs.
type MonitorLevel int

const (
	// MonitorSilent disables command logging
	MonitorSilent MonitorLevel = iota + 1
	// MonitorError logs failed commands only
	MonitorError
	// MonitorWarn additionally logs slow commands
	MonitorWarn
	// MonitorInfo logs every command with its body
	MonitorInfo
)

const maxCommandLength = 1000

// MongoMonitor logs MongoDB driver command events through zap.
type MongoMonitor struct {
	ZapLogger     *zap.Logger
	SlowThreshold time.Duration
	Level         MonitorLevel

	commands sync.Map // request id -> command text, only at MonitorInfo
}

// NewMongoMonitor creates a command monitor logger with configuration
func NewMongoMonitor(zapLogger *zap.Logger, slowQuerySeconds float64, logLevel string) *MongoMonitor {
	var level MonitorLevel
	switch logLevel {
	case "silent":
		level = MonitorSilent
	case "error":
		level = MonitorError
	case "warn", "warning":
		level = MonitorWarn
	case "info", "debug":
		level = MonitorInfo
	default:
		level = MonitorWarn
	}

	return &MongoMonitor{
		ZapLogger:     zapLogger,
		SlowThreshold: time.Duration(slowQuerySeconds * float64(time.Second)),
		Level:         level,
	}
}

// CommandMonitor returns the driver hook to register on the client options.
func (m *MongoMonitor) CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   m.started,
		Succeeded: m.succeeded,
		Failed:    m.failed,
	}
}

func (m *MongoMonitor) started(_ context.Context, evt *event.CommandStartedEvent) {
	if m.Level < MonitorInfo {
		return
	}

	cmd := evt.Command.String()
	if len(cmd) > maxCommandLength {
		cmd = cmd[:maxCommandLength] + "..."
	}
	m.commands.Store(evt.RequestID, cmd)
}

func (m *MongoMonitor) succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	if m.Level <= MonitorSilent {
		return
	}

	fields := m.fields(&evt.CommandFinishedEvent)
	logger := WithContext(ctx, m.ZapLogger)

	if m.SlowThreshold != 0 && evt.Duration > m.SlowThreshold && m.Level >= MonitorWarn {
		fields = append(fields, zap.Duration("threshold", m.SlowThreshold))
		logger.Warn("mongo slow command", fields...)
		return
	}

	if m.Level >= MonitorInfo {
		logger.Debug("mongo command", fields...)
	}
}

func (m *MongoMonitor) failed(ctx context.Context, evt *event.CommandFailedEvent) {
	if m.Level <= MonitorSilent {
		return
	}

	fields := m.fields(&evt.CommandFinishedEvent)
	fields = append(fields, zap.String("failure", evt.Failure))
	WithContext(ctx, m.ZapLogger).Error("mongo command error", fields...)
}

func (m *MongoMonitor) fields(evt *event.CommandFinishedEvent) []zap.Field {
	fields := []zap.Field{
		zap.String("command", evt.CommandName),
		zap.String("database", evt.DatabaseName),
		zap.Int64("driver_request_id", evt.RequestID),
		zap.Duration("elapsed", evt.Duration),
		zap.Float64("elapsed_ms", float64(evt.Duration.Nanoseconds())/1e6),
	}

	if body, ok := m.commands.LoadAndDelete(evt.RequestID); ok {
		fields = append(fields, zap.String("body", body.(string)))
	}

	return fields
}
