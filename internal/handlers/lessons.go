package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/middleware"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

const maxIconBytes = 2 << 20

// LessonHandler serves direct reads against the document store plus the
// binary side-channels (icons, public reports, generator code) that do not
// go through the tools dispatch.
type LessonHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewLessonHandler(log *logger.Logger, st *store.Store) *LessonHandler {
	return &LessonHandler{log: log.With("Handler", "LessonHandler"), store: st}
}

// GET /api/lessons
func (h *LessonHandler) List(c *gin.Context) {
	actor := middleware.Actor(c)
	var (
		entries []store.ListingEntry
		err     error
	)
	if status := c.Query("status"); status != "" {
		entries, err = h.store.ListByStatus(c.Request.Context(), actor, status)
	} else {
		entries, err = h.store.List(c.Request.Context(), actor)
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, gin.H{"lessons": entries})
}

// GET /api/lessons/:id
func (h *LessonHandler) Get(c *gin.Context) {
	actor := middleware.Actor(c)
	lesson, err := h.store.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if lesson == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", c.Param("id")))
		return
	}
	RespondOK(c, lesson)
}

// GET /api/lessons/:id/sections
func (h *LessonHandler) Sections(c *gin.Context) {
	actor := middleware.Actor(c)
	sections, err := h.store.GetSectionsIndex(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if sections == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", c.Param("id")))
		return
	}
	RespondOK(c, gin.H{"sections": sections})
}

// GET /api/lessons/:id/sections/:key
func (h *LessonHandler) Section(c *gin.Context) {
	actor := middleware.Actor(c)
	section, err := h.store.GetSection(c.Request.Context(), actor, c.Param("id"), c.Param("key"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if section == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("section %s not found", c.Param("key")))
		return
	}
	RespondOK(c, section)
}

// GET /api/lessons/:id/generator
func (h *LessonHandler) Generator(c *gin.Context) {
	actor := middleware.Actor(c)
	content, err := h.store.GetExerciseGenerator(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if content == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no generator for lesson %s", c.Param("id")))
		return
	}
	c.Data(http.StatusOK, content.ContentType, []byte(content.Content))
}

// POST /api/lessons/:id/icon
func (h *LessonHandler) PutIcon(c *gin.Context) {
	actor := middleware.Actor(c)
	contentType := c.ContentType()
	extension := iconExtension(contentType)
	if extension == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("unsupported icon content type %q", contentType))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIconBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(payload) == 0 || len(payload) > maxIconBytes {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("icon payload must be 1 byte to %d bytes", maxIconBytes))
		return
	}
	iconURL, err := h.store.PutIcon(c.Request.Context(), actor, c.Param("id"), payload, contentType, extension)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if ok, err := h.store.UpdateIconURL(c.Request.Context(), actor, c.Param("id"), iconURL); err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	} else if !ok {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", c.Param("id")))
		return
	}
	RespondOK(c, gin.H{"iconUrl": iconURL})
}

// GET /api/lessons/:id/report
func (h *LessonHandler) GetReport(c *gin.Context) {
	actor := middleware.Actor(c)
	html, err := h.store.GetReport(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if html == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no report for lesson %s", c.Param("id")))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// PUT /api/lessons/:id/report
func (h *LessonHandler) PutReport(c *gin.Context) {
	actor := middleware.Actor(c)
	html, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	key, err := h.store.PutReport(c.Request.Context(), actor, c.Param("id"), string(html))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, gin.H{"key": key})
}

func iconExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/svg+xml":
		return "svg"
	case "image/webp":
		return "webp"
	default:
		return ""
	}
}
