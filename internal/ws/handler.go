package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"academy-chat/internal/auth"
	"academy-chat/internal/models"
	"academy-chat/internal/observability"
	"academy-chat/internal/ratelimit"
	"academy-chat/internal/repositories"
)

const joinHistoryLimit = 50

// Handler upgrades socket-room connections for the legacy transport.
type Handler struct {
	hub      *Hub
	verifier auth.TokenVerifier
	users    repositories.UserRepository
	messages repositories.MessageRepository
	limiter  *ratelimit.Limiter
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, verifier auth.TokenVerifier, users repositories.UserRepository, messages repositories.MessageRepository, limiter *ratelimit.Limiter) *Handler {
	return &Handler{hub: hub, verifier: verifier, users: users, messages: messages, limiter: limiter}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is the only inbound message shape the server accepts; typing
// indicators are ephemeral and never persisted.
type clientFrame struct {
	Type   string `json:"type"`
	Typing bool   `json:"typing"`
}

// Handle validates the join against the token, upgrades the connection, and
// replies with the most recent history slice before live events begin.
func (h *Handler) Handle(c *gin.Context) {
	room := c.Param("room")
	if !models.ValidRoom(room) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
		return
	}

	ctx, span := otel.Tracer("academy-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ip := observability.IPFromRequest(c.Request)
	if allowed, _ := h.limiter.Allow(ip, ratelimit.AuthWindow); !allowed {
		observability.IncRateLimited(ratelimit.AuthWindow.Name)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed handshakes"})
		return
	}

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}
	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.limiter.Success(ip, ratelimit.AuthWindow)
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	history, err := h.messages.History(c.Request.Context(), room, joinHistoryLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		Username:    user.DisplayName,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}

	// Bridge the gap between connect and the first live event.
	historyEvent := models.StreamEvent{Type: models.EventRoomHistory, History: history}
	if payload, err := json.Marshal(historyEvent); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}

	h.hub.AddClient(room, conn, info)
	observability.IncLiveConnections("ws")
	observability.IncTransportEvent("ws", "connect")

	go h.readLoop(room, conn, info)
}

func (h *Handler) readLoop(room string, conn *websocket.Conn, info ConnInfo) {
	defer func() {
		h.hub.RemoveClient(room, conn)
		observability.DecLiveConnections("ws")
		observability.IncTransportEvent("ws", "disconnect")
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncTransportEvent("ws", "read_error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == models.EventTyping {
			h.hub.BroadcastTyping(room, conn, models.TypingEvent{
				Room:     room,
				UserID:   info.UserID,
				Username: info.Username,
				Typing:   frame.Typing,
			})
		}
	}
}

func (h *Handler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.verifier.VerifyToken(parts[1])
	}
	return 0, auth.ErrInvalidToken
}
