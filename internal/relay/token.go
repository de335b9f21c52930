package relay

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capability scopes one topic for a relay subscriber token.
type Capability struct {
	Topic     string `json:"topic"`
	Publish   bool   `json:"publish"`
	Subscribe bool   `json:"subscribe"`
}

// TokenIssuer signs capability grants for clients that subscribe to the
// relay directly instead of going through this backend.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(signingKey []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{signingKey: signingKey, ttl: ttl, now: time.Now}
}

// GrantFor computes the capability set for a user: publish and subscribe on
// every chat topic, subscribe-only on the user's own DM topics, and the
// global presence channel.
func GrantFor(userID int, rooms []string, conversationIDs []int) []Capability {
	caps := make([]Capability, 0, len(rooms)+len(conversationIDs)+1)
	for _, room := range rooms {
		caps = append(caps, Capability{Topic: RoomTopic(room), Publish: true, Subscribe: true})
	}
	for _, id := range conversationIDs {
		caps = append(caps, Capability{Topic: ConversationTopic(id), Subscribe: true})
	}
	caps = append(caps, Capability{Topic: PresenceTopic, Publish: true, Subscribe: true})
	return caps
}

// Issue signs a token embedding the user's capability grant.
func (i *TokenIssuer) Issue(userID int, capabilities []Capability) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(userID),
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
		"caps": capabilities,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.signingKey)
}
