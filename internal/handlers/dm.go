package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"academy-chat/internal/models"
	"academy-chat/internal/repositories"
)

// DMHandler manages direct-message endpoints.
type DMHandler struct {
	conversations repositories.ConversationRepository
	directs       repositories.DirectMessageRepository
	users         repositories.UserRepository
	dispatcher    Dispatcher
}

// NewDMHandler builds a DMHandler.
func NewDMHandler(conversations repositories.ConversationRepository, directs repositories.DirectMessageRepository, users repositories.UserRepository, dispatcher Dispatcher) *DMHandler {
	return &DMHandler{
		conversations: conversations,
		directs:       directs,
		users:         users,
		dispatcher:    dispatcher,
	}
}

// ListConversations returns the caller's conversations with unread counts.
func (h *DMHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	convs, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// StartConversation creates or returns the conversation between the caller
// and another user. Repeated calls from either side return the same row.
func (h *DMHandler) StartConversation(c *gin.Context) {
	var req struct {
		FriendID int `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start conversation with yourself"})
		return
	}
	if _, err := h.users.GetUser(c.Request.Context(), req.FriendID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	conv, err := h.conversations.CreateOrGet(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// SendDirectMessage persists a DM and fans it out to both participants.
func (h *DMHandler) SendDirectMessage(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.Participant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if utf8.RuneCountInString(req.Body) > models.MaxBodyLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body too long"})
		return
	}

	sender, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	dm, err := h.directs.Append(c.Request.Context(), conversationID, userID, sender.DisplayName, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.dispatcher.DirectMessageStored(dm, conv)
	c.JSON(http.StatusCreated, dm)
}

// FetchDirectHistory returns the most recent DMs, newest-last.
func (h *DMHandler) FetchDirectHistory(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.Participant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	msgs, err := h.directs.History(c.Request.Context(), conversationID, parseLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkRead advances the caller's last-read marker.
func (h *DMHandler) MarkRead(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.Participant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	if err := h.conversations.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark read"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseConversationID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return id, true
}
