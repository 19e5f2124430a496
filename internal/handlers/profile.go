package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/middleware"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

type ProfileHandler struct {
	log   *logger.Logger
	store *store.Store
}

func NewProfileHandler(log *logger.Logger, st *store.Store) *ProfileHandler {
	return &ProfileHandler{log: log.With("Handler", "ProfileHandler"), store: st}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, profile)
}

// PUT /api/profile
func (h *ProfileHandler) Put(c *gin.Context) {
	var body struct {
		Name   *string `json:"name"`
		School *string `json:"school"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	profile, err := h.store.PutProfile(c.Request.Context(), middleware.Actor(c), body.Name, body.School)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}
	RespondOK(c, profile)
}
