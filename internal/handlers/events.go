package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/middleware"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/realtime"
)

const heartbeatInterval = 15 * time.Second

// EventsHandler serves the per-account live update stream over SSE.
type EventsHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewEventsHandler(log *logger.Logger, hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{log: log.With("Handler", "EventsHandler"), hub: hub}
}

// GET /api/events
func (h *EventsHandler) Stream(c *gin.Context) {
	actor := middleware.Actor(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "streaming_unsupported", fmt.Errorf("streaming unsupported"))
		return
	}

	conn := realtime.NewStreamConn()
	h.hub.Connect(actor, conn)
	defer func() {
		conn.Close()
		h.hub.Disconnect(actor, conn)
	}()
	h.log.Debug("SSE stream opened", "connID", conn.ID(), "account", actor)

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("SSE stream closed", "connID", conn.ID(), "err", ctx.Err())
			return
		case <-conn.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case event := <-conn.Events():
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("Failed to marshal event", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
