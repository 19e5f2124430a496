package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/gateway"
	"github.com/yungbote/lessonforge-backend/internal/middleware"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

// ToolsHandler exposes the named-operation dispatch surface consumed by
// automated callers (tool-call style clients).
type ToolsHandler struct {
	log *logger.Logger
	ops *gateway.Operations
}

func NewToolsHandler(log *logger.Logger, ops *gateway.Operations) *ToolsHandler {
	return &ToolsHandler{log: log.With("Handler", "ToolsHandler"), ops: ops}
}

// GET /api/tools
func (h *ToolsHandler) List(c *gin.Context) {
	RespondOK(c, gin.H{"tools": h.ops.Names()})
}

// POST /api/tools/:name
func (h *ToolsHandler) Invoke(c *gin.Context) {
	var body struct {
		Args map[string]any `json:"args"`
	}
	// an empty body is legal for argument-less operations
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	name := c.Param("name")
	actor := middleware.Actor(c)
	result := h.ops.Dispatch(c.Request.Context(), name, actor, body.Args)
	RespondResult(c, result)
}
