package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/service"
)

// MessageHandler covers message mutation, reactions, search, and the
// send-later queue.
type MessageHandler struct {
	messages *service.Messages
	deferred *service.Deferred
	logger   *zap.Logger
}

func NewMessageHandler(messages *service.Messages, deferred *service.Deferred, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, deferred: deferred, logger: logger}
}

type sendMessageRequest struct {
	ChannelID int64  `json:"channel_id"`
	Message   string `json:"message" binding:"required"`
}

// Send handles POST /v1/message/send
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	messageID, err := h.messages.Send(GetUserID(c), req.ChannelID, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": messageID})
}

type sendLaterRequest struct {
	ChannelID int64  `json:"channel_id"`
	Message   string `json:"message" binding:"required"`
	SendAt    int64  `json:"send_at" binding:"required"` // unix seconds
}

// SendLater handles POST /v1/message/sendlater
func (h *MessageHandler) SendLater(c *gin.Context) {
	var req sendLaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	messageID, err := h.deferred.Enqueue(GetUserID(c), req.ChannelID, req.Message, time.Unix(req.SendAt, 0))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": messageID})
}

type editMessageRequest struct {
	MessageID int64  `json:"message_id"`
	Message   string `json:"message"`
}

// Edit handles PUT /v1/message/edit
func (h *MessageHandler) Edit(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.Edit(GetUserID(c), req.MessageID, req.Message); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type messageIDRequest struct {
	MessageID int64 `json:"message_id"`
}

// Remove handles DELETE /v1/message/remove
func (h *MessageHandler) Remove(c *gin.Context) {
	var req messageIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.Remove(GetUserID(c), req.MessageID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Pin handles POST /v1/message/pin
func (h *MessageHandler) Pin(c *gin.Context) {
	var req messageIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.Pin(GetUserID(c), req.MessageID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Unpin handles POST /v1/message/unpin
func (h *MessageHandler) Unpin(c *gin.Context) {
	var req messageIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.Unpin(GetUserID(c), req.MessageID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type reactRequest struct {
	MessageID int64  `json:"message_id"`
	Kind      string `json:"kind" binding:"required"`
}

// React handles POST /v1/message/react
func (h *MessageHandler) React(c *gin.Context) {
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.React(GetUserID(c), req.MessageID, models.ReactionKind(req.Kind)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Unreact handles POST /v1/message/unreact
func (h *MessageHandler) Unreact(c *gin.Context) {
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.messages.Unreact(GetUserID(c), req.MessageID, models.ReactionKind(req.Kind)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Search handles GET /v1/search?query_str=...
func (h *MessageHandler) Search(c *gin.Context) {
	matches, err := h.messages.Search(GetUserID(c), c.Query("query_str"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": matches})
}
