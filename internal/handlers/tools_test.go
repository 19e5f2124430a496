package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/gateway"
	"github.com/yungbote/lessonforge-backend/internal/middleware"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/platform/objstore"
	"github.com/yungbote/lessonforge-backend/internal/realtime"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

func newToolsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	st := store.New(log, objstore.NewMemoryStore(), "client_data", store.DefaultTaxonomy())
	hub := realtime.NewHub(log)
	gw := gateway.New(log, gateway.NewResultCache(time.Minute), gateway.NewDebounceGate(5*time.Millisecond))
	ops := gateway.NewOperations(log, st, hub, gw, nil)
	handler := NewToolsHandler(log, ops)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ActorKey, "alice@example.com")
		c.Next()
	})
	router.GET("/api/tools", handler.List)
	router.POST("/api/tools/:name", handler.Invoke)
	return router
}

func invokeTool(t *testing.T, router *gin.Engine, name string, args map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"args": args})
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tools/"+name, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	return rr
}

func TestToolsListNames(t *testing.T) {
	router := newToolsRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Tools []string `json:"tools"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tools) == 0 {
		t.Fatalf("no tools listed")
	}
}

func TestToolsInvokeCreateAndGetSection(t *testing.T) {
	router := newToolsRouter(t)

	rr := invokeTool(t, router, "lesson_create", map[string]any{"title": "HTTP lesson"})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	lessonID, _ := created["id"].(string)
	if lessonID == "" {
		t.Fatalf("create body = %s", rr.Body.String())
	}

	rr = invokeTool(t, router, "lesson_section_get", map[string]any{
		"lesson_id":   lessonID,
		"section_key": "exercises",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("section get status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestToolsInvokeErrors(t *testing.T) {
	router := newToolsRouter(t)

	rr := invokeTool(t, router, "lesson_unknown", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown op status = %d", rr.Code)
	}

	rr = invokeTool(t, router, "lesson_update", map[string]any{"lesson_id": "999999", "title": "x"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("absent lesson status = %d, body = %s", rr.Code, rr.Body.String())
	}
}
