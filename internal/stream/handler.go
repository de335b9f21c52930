package stream

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"academy-chat/internal/auth"
	"academy-chat/internal/observability"
	"academy-chat/internal/ratelimit"
	"academy-chat/internal/repositories"
)

// Handler exposes the live event stream over SSE.
type Handler struct {
	registry *Registry
	verifier auth.TokenVerifier
	users    repositories.UserRepository
	limiter  *ratelimit.Limiter
}

// NewHandler constructs a Handler.
func NewHandler(registry *Registry, verifier auth.TokenVerifier, users repositories.UserRepository, limiter *ratelimit.Limiter) *Handler {
	return &Handler{registry: registry, verifier: verifier, users: users, limiter: limiter}
}

// Attach upgrades the request to a server-sent event stream and registers
// the connection until the client disconnects or heartbeats evict it.
func (h *Handler) Attach(c *gin.Context) {
	ctx, span := otel.Tracer("academy-chat/stream").Start(c.Request.Context(), "stream.attach")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ip := observability.IPFromRequest(c.Request)
	if allowed, _ := h.limiter.Allow(ip, ratelimit.AuthWindow); !allowed {
		observability.IncRateLimited(ratelimit.AuthWindow.Name)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed handshakes"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.VerifyToken(token)
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

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	conn := h.registry.Attach(userID, user.DisplayName, nil)
	defer h.registry.Detach(conn.ID)
	observability.IncTransportEvent("stream", "attach")
	defer observability.IncTransportEvent("stream", "detach")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-conn.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-conn.Done():
			return false
		case <-clientGone:
			return false
		}
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
