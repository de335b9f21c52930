package stream

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"academy-chat/internal/models"
	"academy-chat/internal/observability"
)

// RoomAll subscribes a connection to every room broadcast.
const RoomAll = "*"

const eventBuffer = 32

// Connection is one attached live receiver. It exists only for the lifetime
// of this process and is owned by the Registry.
type Connection struct {
	ID          string
	UserID      int
	Username    string
	ConnectedAt time.Time

	rooms  map[string]struct{}
	events chan models.StreamEvent
	done   chan struct{}
	once   sync.Once

	// missed heartbeat count, guarded by the registry mutex.
	missed int
}

// Events is the stream the transport handler drains.
func (c *Connection) Events() <-chan models.StreamEvent {
	return c.events
}

// Done is closed when the connection is detached.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) subscribed(room string) bool {
	if _, ok := c.rooms[room]; ok {
		return true
	}
	_, ok := c.rooms[RoomAll]
	return ok
}

// deliver enqueues without blocking. A full buffer or detached connection is
// a failed write; the caller logs and moves on.
func (c *Connection) deliver(event models.StreamEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Registry tracks the live streaming connections of this process and fans
// events out to them. Structural mutation is synchronized; writes to
// individual connections are independent.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection
	interval  time.Duration
	maxMissed int
}

// NewRegistry creates an empty registry. Heartbeats tick every interval and
// a connection missing maxMissed consecutive beats is detached.
func NewRegistry(interval time.Duration, maxMissed int) *Registry {
	return &Registry{
		conns:     make(map[string]*Connection),
		interval:  interval,
		maxMissed: maxMissed,
	}
}

// Attach registers a new connection for the user, subscribed to the given
// rooms (the full room set when rooms is nil). The connected event is queued
// before any broadcast can reach the connection.
func (r *Registry) Attach(userID int, username string, rooms []string) *Connection {
	conn := &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    username,
		ConnectedAt: time.Now(),
		rooms:       make(map[string]struct{}),
		events:      make(chan models.StreamEvent, eventBuffer),
		done:        make(chan struct{}),
	}
	if rooms == nil {
		conn.rooms[RoomAll] = struct{}{}
	}
	for _, room := range rooms {
		conn.rooms[room] = struct{}{}
	}
	conn.deliver(models.ConnectedEvent(conn.ID))

	r.mu.Lock()
	r.conns[conn.ID] = conn
	r.mu.Unlock()

	observability.IncLiveConnections("stream")
	r.broadcastOnlineUsers()
	return conn
}

// Detach removes the connection and wakes its handler. Safe to call more
// than once and concurrently with broadcasts.
func (r *Registry) Detach(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	conn.once.Do(func() { close(conn.done) })
	observability.DecLiveConnections("stream")
	r.broadcastOnlineUsers()
}

// BroadcastToRoom delivers the event to every connection subscribed to the
// room. A failed write on one connection never aborts delivery to others.
func (r *Registry) BroadcastToRoom(room string, event models.StreamEvent) {
	for _, conn := range r.snapshot() {
		if !conn.subscribed(room) {
			continue
		}
		if !conn.deliver(event) {
			log.Printf("stream: dropped %s event for conn %s user %d", event.Type, conn.ID, conn.UserID)
		}
	}
}

// BroadcastToUser delivers the event to every connection owned by the user,
// covering multiple simultaneous devices.
func (r *Registry) BroadcastToUser(userID int, event models.StreamEvent) {
	for _, conn := range r.snapshot() {
		if conn.UserID != userID {
			continue
		}
		if !conn.deliver(event) {
			log.Printf("stream: dropped %s event for conn %s user %d", event.Type, conn.ID, conn.UserID)
		}
	}
}

// OnlineUserIDs returns the distinct users with at least one attached
// connection, in ascending attach order.
func (r *Registry) OnlineUserIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int]struct{}, len(r.conns))
	ids := make([]int, 0, len(r.conns))
	for _, conn := range r.conns {
		if _, ok := seen[conn.UserID]; ok {
			continue
		}
		seen[conn.UserID] = struct{}{}
		ids = append(ids, conn.UserID)
	}
	return ids
}

// Run drives the heartbeat loop until stop is closed. A connection whose
// ping cannot be queued for maxMissed consecutive intervals is detached.
func (r *Registry) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.heartbeat()
		case <-stop:
			r.detachAll()
			return
		}
	}
}

func (r *Registry) heartbeat() {
	ping := models.PingEvent()

	r.mu.Lock()
	var stale []*Connection
	for _, conn := range r.conns {
		if conn.deliver(ping) {
			conn.missed = 0
			continue
		}
		conn.missed++
		if conn.missed >= r.maxMissed {
			stale = append(stale, conn)
		}
	}
	r.mu.Unlock()

	for _, conn := range stale {
		log.Printf("stream: conn %s user %d missed %d heartbeats, detaching", conn.ID, conn.UserID, r.maxMissed)
		r.Detach(conn.ID)
	}
}

func (r *Registry) detachAll() {
	for _, conn := range r.snapshot() {
		r.Detach(conn.ID)
	}
}

func (r *Registry) snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) broadcastOnlineUsers() {
	event := models.OnlineUsersEvent(r.OnlineUserIDs())
	for _, conn := range r.snapshot() {
		conn.deliver(event)
	}
}
