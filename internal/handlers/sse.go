package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/requestdata"
  "github.com/sashaspath/backend/internal/sse"
)

type SSEHandler struct {
  log *logger.Logger
  hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
  return &SSEHandler{
    log: log.With("handler", "SSEHandler"),
    hub: hub,
  }
}

// SSEStream opens the event stream. The optional ?course=<id> query subscribes
// the client to that course's generation channel up front; further channels
// are added via events inside the app flow.
func (h *SSEHandler) SSEStream(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }

  client := h.hub.NewClient(rd.UserID)
  if courseID := c.Query("course"); courseID != "" {
    h.hub.AddChannel(client, "course:"+courseID)
  }
  defer h.hub.RemoveClient(client)

  h.hub.ServeHTTP(c.Writer, c.Request, client)
}
