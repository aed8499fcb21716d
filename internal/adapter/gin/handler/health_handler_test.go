package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) Ready(ctx context.Context) error { return f(ctx) }

func setupHealth(t *testing.T, ready readinessFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(ready, "mongo-user-service", zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	return r
}

func TestHealth(t *testing.T) {
	r := setupHealth(t, func(context.Context) error { return errors.New("unused") })

	w := doRequest(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"mongo-user-service"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		r := setupHealth(t, func(context.Context) error { return nil })

		w := doRequest(r, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		r := setupHealth(t, func(context.Context) error { return errors.New("mongodb: server selection timeout") })

		w := doRequest(r, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"not_ready","details":"mongodb: server selection timeout"}`, w.Body.String())
	})
}
