package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongo-user-service/internal/adapter/gin/handler"
	"mongo-user-service/internal/usecase/user"
	"mongo-user-service/pkg/health"
)

func setupBenchAPI(b *testing.B) *gin.Engine {
	b.Helper()
	log := zap.NewNop()
	uc := user.New(newMemoryRepo(), log)
	return SetupRouter(
		handler.NewUserHandler(uc, log),
		handler.NewHealthHandler(health.NewService(), "mongo-user-service", log),
		Options{Mode: gin.ReleaseMode},
		log,
	)
}

func benchRequest(b *testing.B, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			b.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func BenchmarkAPI_CreateUser(b *testing.B) {
	r := setupBenchAPI(b)

	var counter int64
	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			id := atomic.AddInt64(&counter, 1)
			w := benchRequest(b, r, http.MethodPost, "/users", map[string]any{
				"name":  fmt.Sprintf("User_%d", id),
				"email": fmt.Sprintf("user_%d@example.com", id),
				"age":   30,
			})
			if w.Code != http.StatusCreated {
				b.Errorf("expected status 201, got %d", w.Code)
			}
		}
	})
}

func BenchmarkAPI_GetUser(b *testing.B) {
	r := setupBenchAPI(b)

	w := benchRequest(b, r, http.MethodPost, "/users", map[string]any{
		"name": "Test User", "email": "test@example.com", "age": 30,
	})
	var created handler.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		b.Fatalf("decode create response: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			if w := benchRequest(b, r, http.MethodGet, "/users/"+created.ID, nil); w.Code != http.StatusOK {
				b.Errorf("expected status 200, got %d", w.Code)
			}
		}
	})
}

func BenchmarkAPI_ListUsers(b *testing.B) {
	r := setupBenchAPI(b)

	for i := 0; i < 100; i++ {
		benchRequest(b, r, http.MethodPost, "/users", map[string]any{
			"name":  fmt.Sprintf("User_%03d", i),
			"email": fmt.Sprintf("user_%03d@example.com", i),
			"age":   20 + i%40,
		})
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if w := benchRequest(b, r, http.MethodGet, "/users?page=2&limit=20&min_age=25&q=user", nil); w.Code != http.StatusOK {
			b.Fatalf("expected status 200, got %d", w.Code)
		}
	}
}
