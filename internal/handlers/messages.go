package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"academy-chat/internal/models"
	"academy-chat/internal/repositories"
	"academy-chat/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Dispatcher fans a persisted message out after the commit point.
type Dispatcher interface {
	MessageStored(msg models.Message)
	DirectMessageStored(dm models.DirectMessage, conv models.Conversation)
}

// MessageHandler manages room message endpoints.
type MessageHandler struct {
	messages   repositories.MessageRepository
	users      repositories.UserRepository
	store      storage.ObjectStore
	dispatcher Dispatcher
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages repositories.MessageRepository, users repositories.UserRepository, store storage.ObjectStore, dispatcher Dispatcher) *MessageHandler {
	return &MessageHandler{
		messages:   messages,
		users:      users,
		store:      store,
		dispatcher: dispatcher,
	}
}

// ListRooms returns the fixed room enumeration.
func (h *MessageHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": models.Rooms})
}

// SendMessage validates, persists, and fans out a room message. Everything
// before persistence fails loudly to the sender; everything after is
// dispatched without the sender waiting on it.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	room := c.Param("room")
	if !models.ValidRoom(room) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
		return
	}

	var req struct {
		Body             string  `json:"body" binding:"required"`
		ImageBase64      string  `json:"image_base64,omitempty"`
		ImageContentType string  `json:"image_content_type,omitempty"`
		Mentions         []int64 `json:"mentions,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if utf8.RuneCountInString(req.Body) > models.MaxBodyLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body too long"})
		return
	}

	userID := c.GetInt("userID")
	sender, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	var imageURL, imageKey *string
	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image encoding"})
			return
		}
		// The size ceiling is checked before storage is ever touched.
		if len(data) > models.MaxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds size limit"})
			return
		}
		key := fmt.Sprintf("chat-%s", uuid.NewString())
		url, err := h.store.Put(c.Request.Context(), key, data, req.ImageContentType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}
		imageURL, imageKey = &url, &key
	}

	msg, err := h.messages.Append(c.Request.Context(), repositories.NewMessage{
		Room:       room,
		SenderID:   userID,
		SenderName: sender.DisplayName,
		Body:       req.Body,
		ImageURL:   imageURL,
		ImageKey:   imageKey,
		Mentions:   req.Mentions,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.dispatcher.MessageStored(msg)
	c.JSON(http.StatusCreated, msg)
}

// FetchHistory returns the most recent messages for a room, newest-last.
func (h *MessageHandler) FetchHistory(c *gin.Context) {
	room := c.Param("room")
	if !models.ValidRoom(room) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
		return
	}

	limit := parseLimit(c)
	msgs, err := h.messages.History(c.Request.Context(), room, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "fetched_at": time.Now().UTC()})
}

func parseLimit(c *gin.Context) int {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit
}
