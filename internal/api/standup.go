package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/service"
)

// StandupHandler covers the standup window: start, buffer a line, query.
type StandupHandler struct {
	standups *service.Standups
	logger   *zap.Logger
}

func NewStandupHandler(standups *service.Standups, logger *zap.Logger) *StandupHandler {
	return &StandupHandler{standups: standups, logger: logger}
}

type startStandupRequest struct {
	ChannelID int64 `json:"channel_id"`
	Length    int64 `json:"length" binding:"required"` // seconds
}

// Start handles POST /v1/standup/start
func (h *StandupHandler) Start(c *gin.Context) {
	var req startStandupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dueAt, err := h.standups.Start(GetUserID(c), req.ChannelID, time.Duration(req.Length)*time.Second)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"time_finish": dueAt.Unix()})
}

type standupSendRequest struct {
	ChannelID int64  `json:"channel_id"`
	Message   string `json:"message" binding:"required"`
}

// Send handles POST /v1/standup/send
func (h *StandupHandler) Send(c *gin.Context) {
	var req standupSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.standups.Send(GetUserID(c), req.ChannelID, req.Message); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Active handles GET /v1/standup/active?channel_id=N
func (h *StandupHandler) Active(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Query("channel_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel_id"})
		return
	}
	dueAt, err := h.standups.Active(channelID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if dueAt == nil {
		c.JSON(http.StatusOK, gin.H{"is_active": false, "time_finish": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_active": true, "time_finish": dueAt.Unix()})
}
