package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academy-chat/internal/models"
	"academy-chat/internal/relay"
	"academy-chat/internal/repositories"
)

// RelayHandler issues capability-scoped tokens for clients that hold their
// own relay subscription.
type RelayHandler struct {
	issuer        *relay.TokenIssuer
	conversations repositories.ConversationRepository
}

// NewRelayHandler builds a RelayHandler.
func NewRelayHandler(issuer *relay.TokenIssuer, conversations repositories.ConversationRepository) *RelayHandler {
	return &RelayHandler{issuer: issuer, conversations: conversations}
}

// IssueToken signs a grant scoped to the caller: publish/subscribe on chat
// topics, subscribe-only on the caller's own DM topics, and presence.
func (h *RelayHandler) IssueToken(c *gin.Context) {
	userID := c.GetInt("userID")

	convs, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	conversationIDs := make([]int, 0, len(convs))
	for _, conv := range convs {
		conversationIDs = append(conversationIDs, conv.ConversationID)
	}

	capabilities := relay.GrantFor(userID, models.Rooms, conversationIDs)
	token, err := h.issuer.Issue(userID, capabilities)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "capabilities": capabilities})
}
