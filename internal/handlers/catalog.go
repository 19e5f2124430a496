package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

// CatalogHandler serves the cross-account published catalog. These routes
// are public: the account in the path is the sanitized storage account,
// not an authenticated identity.
type CatalogHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewCatalogHandler(log *logger.Logger, st *store.Store) *CatalogHandler {
	return &CatalogHandler{log: log.With("Handler", "CatalogHandler"), store: st}
}

// GET /api/catalog
func (h *CatalogHandler) List(c *gin.Context) {
	entries, err := h.store.ListPublishedCatalog(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, gin.H{"lessons": entries})
}

// GET /api/catalog/:account/lessons/:id
func (h *CatalogHandler) GetLesson(c *gin.Context) {
	lesson, err := h.store.GetByAccount(c.Request.Context(), c.Param("account"), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if lesson == nil || !store.StatusIsPublished(lesson.Status) {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", c.Param("id")))
		return
	}
	RespondOK(c, lesson)
}

// GET /api/catalog/:account/lessons/:id/sections/:key
func (h *CatalogHandler) GetSection(c *gin.Context) {
	lesson, err := h.store.GetByAccount(c.Request.Context(), c.Param("account"), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if lesson == nil || !store.StatusIsPublished(lesson.Status) {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", c.Param("id")))
		return
	}
	section, err := h.store.GetSectionByAccount(c.Request.Context(), c.Param("account"), c.Param("id"), c.Param("key"))
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

// GET /api/catalog/:account/profile
func (h *CatalogHandler) GetProfile(c *gin.Context) {
	profile, err := h.store.GetProfileByAccount(c.Request.Context(), c.Param("account"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, profile)
}
