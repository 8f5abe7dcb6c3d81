package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/events"
	"github.com/tessera-chat/tessera/internal/service"
)

// StreamHandler upgrades a request to a websocket and forwards the
// channel's message events until the client goes away.
type StreamHandler struct {
	channels *service.Channels
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(channels *service.Channels, hub *events.Hub, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		channels: channels,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Stream handles GET /v1/ws?channel_id=N
//
// Access follows retrieval: members always, anyone for a public channel.
// The membership check happens once at subscribe time; a client that
// later leaves the channel keeps its open stream until it reconnects,
// which matches how retrieval pages already fetched behave.
func (h *StreamHandler) Stream(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Query("channel_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel_id"})
		return
	}
	if _, err := h.channels.GetDetails(GetUserID(c), channelID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	evs, cancel := h.hub.Subscribe(channelID)
	defer cancel()

	// Reader goroutine: the client never sends meaningful frames, but
	// reading is how we notice the peer closed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
