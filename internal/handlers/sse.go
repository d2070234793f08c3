package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/requestdata"
	"github.com/quantumexchange8/bankofgold/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// GET /api/events
// Streams import lifecycle events for the authenticated user over SSE.
func (h *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, rd.UserID.String())
	h.log.Info("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Info("SSE stream closed", "user_id", rd.UserID, "client_id", client.ID)
}
