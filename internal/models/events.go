package models

// Stream event types. The set is closed; each type populates exactly one of
// the optional payload fields below.
const (
	EventConnected   = "connected"
	EventNewMessage  = "new_message"
	EventNewDirect   = "new_direct_message"
	EventMention     = "mention"
	EventOnlineUsers = "online_users"
	EventPing        = "ping"
	EventTyping      = "typing"
	EventRoomHistory = "history"
)

// StreamEvent is the envelope written to live transports.
type StreamEvent struct {
	Type          string         `json:"type"`
	ConnectionID  string         `json:"connection_id,omitempty"`
	Message       *Message       `json:"message,omitempty"`
	DirectMessage *DirectMessage `json:"direct_message,omitempty"`
	Mention       *MentionEvent  `json:"mention,omitempty"`
	OnlineUserIDs []int          `json:"online_user_ids,omitempty"`
	Typing        *TypingEvent   `json:"typing,omitempty"`
	History       []Message      `json:"history,omitempty"`
}

// MentionEvent notifies a user they were mentioned in a room message.
type MentionEvent struct {
	Room       string `json:"room"`
	MessageID  int    `json:"message_id"`
	SenderID   int    `json:"sender_id"`
	SenderName string `json:"sender_name"`
}

// TypingEvent is ephemeral and never persisted.
type TypingEvent struct {
	Room     string `json:"room"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

func ConnectedEvent(connID string) StreamEvent {
	return StreamEvent{Type: EventConnected, ConnectionID: connID}
}

func NewMessageEvent(msg Message) StreamEvent {
	return StreamEvent{Type: EventNewMessage, Message: &msg}
}

func NewDirectEvent(dm DirectMessage) StreamEvent {
	return StreamEvent{Type: EventNewDirect, DirectMessage: &dm}
}

func NewMentionEvent(m MentionEvent) StreamEvent {
	return StreamEvent{Type: EventMention, Mention: &m}
}

func OnlineUsersEvent(userIDs []int) StreamEvent {
	return StreamEvent{Type: EventOnlineUsers, OnlineUserIDs: userIDs}
}

func PingEvent() StreamEvent {
	return StreamEvent{Type: EventPing}
}
