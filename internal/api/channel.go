package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/service"
)

// ChannelHandler covers channel lifecycle, membership, ownership, and
// paginated retrieval.
type ChannelHandler struct {
	channels *service.Channels
	messages *service.Messages
	logger   *zap.Logger
}

func NewChannelHandler(channels *service.Channels, messages *service.Messages, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, messages: messages, logger: logger}
}

type createChannelRequest struct {
	Name     string `json:"name" binding:"required"`
	IsPublic *bool  `json:"is_public" binding:"required"`
}

// Create handles POST /v1/channels/create
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visibility := models.Private
	if *req.IsPublic {
		visibility = models.Public
	}
	channelID, err := h.channels.Create(GetUserID(c), req.Name, visibility)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"channel_id": channelID})
}

// List handles GET /v1/channels/list — the actor's channels.
func (h *ChannelHandler) List(c *gin.Context) {
	summaries, err := h.channels.ListForUser(GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": summaries})
}

// ListAll handles GET /v1/channels/listall — every public channel.
func (h *ChannelHandler) ListAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.channels.ListAllPublic()})
}

type channelRequest struct {
	ChannelID int64 `json:"channel_id"`
}

// Join handles POST /v1/channel/join
func (h *ChannelHandler) Join(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channels.Join(GetUserID(c), req.ChannelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Leave handles POST /v1/channel/leave
func (h *ChannelHandler) Leave(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channels.Leave(GetUserID(c), req.ChannelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type memberRequest struct {
	ChannelID int64 `json:"channel_id"`
	UserID    int64 `json:"user_id"`
}

// Invite handles POST /v1/channel/invite
func (h *ChannelHandler) Invite(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channels.Invite(GetUserID(c), req.UserID, req.ChannelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// AddOwner handles POST /v1/channel/addowner
func (h *ChannelHandler) AddOwner(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channels.AddOwner(GetUserID(c), req.UserID, req.ChannelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RemoveOwner handles POST /v1/channel/removeowner
func (h *ChannelHandler) RemoveOwner(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.channels.RemoveOwner(GetUserID(c), req.UserID, req.ChannelID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Details handles GET /v1/channel/details?channel_id=N
func (h *ChannelHandler) Details(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Query("channel_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel_id"})
		return
	}
	details, err := h.channels.GetDetails(GetUserID(c), channelID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Messages handles GET /v1/channel/messages?channel_id=N&start=M
//
// Offset pagination: start counts back from the newest message; the
// response's end field is the next start, or -1 when no pages remain.
func (h *ChannelHandler) Messages(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Query("channel_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel_id"})
		return
	}
	var start int64
	if s := c.Query("start"); s != "" {
		start, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
			return
		}
	}

	page, err := h.messages.Retrieve(GetUserID(c), channelID, start)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
