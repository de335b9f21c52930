package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academy-chat/internal/models"
	"academy-chat/internal/repositories"
)

// NotificationHandler manages preference and push-destination endpoints.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetPreference returns the caller's notification preference.
func (h *NotificationHandler) GetPreference(c *gin.Context) {
	userID := c.GetInt("userID")
	pref, err := h.notifications.GetPreference(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preference"})
		return
	}
	c.JSON(http.StatusOK, pref)
}

// PutPreference saves the caller's notification preference. Only the owning
// user can mutate their row.
func (h *NotificationHandler) PutPreference(c *gin.Context) {
	var req struct {
		PushEnabled    bool    `json:"push_enabled"`
		DirectMessages bool    `json:"direct_messages"`
		RoomMessages   bool    `json:"room_messages"`
		Mentions       bool    `json:"mentions"`
		Announcements  bool    `json:"announcements"`
		QuietStart     *string `json:"quiet_start"`
		QuietEnd       *string `json:"quiet_end"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validClock(req.QuietStart) || !validClock(req.QuietEnd) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiet hours must be HH:MM"})
		return
	}
	if (req.QuietStart == nil) != (req.QuietEnd == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiet hours require both start and end"})
		return
	}

	pref, err := h.notifications.UpsertPreference(c.Request.Context(), models.NotificationPreference{
		UserID:         c.GetInt("userID"),
		PushEnabled:    req.PushEnabled,
		DirectMessages: req.DirectMessages,
		RoomMessages:   req.RoomMessages,
		Mentions:       req.Mentions,
		Announcements:  req.Announcements,
		QuietStart:     req.QuietStart,
		QuietEnd:       req.QuietEnd,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preference"})
		return
	}
	c.JSON(http.StatusOK, pref)
}

// RegisterDestination records a push token for the caller's device.
func (h *NotificationHandler) RegisterDestination(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Platform == "" {
		req.Platform = "unknown"
	}

	dest, err := h.notifications.RegisterDestination(c.Request.Context(), c.GetInt("userID"), req.Token, req.Platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register destination"})
		return
	}
	c.JSON(http.StatusCreated, dest)
}

// UnregisterDestination deactivates a push token.
func (h *NotificationHandler) UnregisterDestination(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.notifications.DeactivateDestination(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister destination"})
		return
	}
	c.Status(http.StatusNoContent)
}

func validClock(value *string) bool {
	if value == nil {
		return true
	}
	_, err := time.Parse("15:04", *value)
	return err == nil
}
