package delivery

import (
	"context"
	"log"
	"time"

	"academy-chat/internal/models"
	"academy-chat/internal/relay"
)

const fanoutTimeout = 30 * time.Second

// Broadcaster is a live transport that can address rooms and users. Both the
// streaming registry and the socket hub satisfy it.
type Broadcaster interface {
	BroadcastToRoom(room string, event models.StreamEvent)
	BroadcastToUser(userID int, event models.StreamEvent)
}

// Notifier runs the push-notification fan-out for a stored message.
type Notifier interface {
	NotifyRoomMessage(ctx context.Context, msg models.Message)
	NotifyDirectMessage(ctx context.Context, dm models.DirectMessage, conv models.Conversation)
}

// Dispatcher fans a persisted message out across the three transports and
// the notification targeter. Persistence is the commit point: everything
// here runs after the sender's response and each path fails independently.
type Dispatcher struct {
	registry  Broadcaster
	hub       Broadcaster
	publisher relay.Publisher
	notifier  Notifier
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(registry Broadcaster, hub Broadcaster, publisher relay.Publisher, notifier Notifier) *Dispatcher {
	return &Dispatcher{registry: registry, hub: hub, publisher: publisher, notifier: notifier}
}

// MessageStored dispatches a stored room message. It returns immediately;
// the sender never waits on fan-out completion.
func (d *Dispatcher) MessageStored(msg models.Message) {
	event := models.NewMessageEvent(msg)

	go d.run("stream broadcast", func(context.Context) {
		d.registry.BroadcastToRoom(msg.Room, event)
		d.broadcastMentions(d.registry, msg)
	})
	go d.run("ws broadcast", func(context.Context) {
		d.hub.BroadcastToRoom(msg.Room, event)
		d.broadcastMentions(d.hub, msg)
	})
	go d.run("relay publish", func(ctx context.Context) {
		_ = d.publisher.Publish(ctx, relay.RoomTopic(msg.Room), relay.Wrap(event))
	})
	go d.run("notify", func(ctx context.Context) {
		d.notifier.NotifyRoomMessage(ctx, msg)
	})
}

// DirectMessageStored dispatches a stored direct message to both
// participants' live connections, the conversation's relay topic, and the
// recipient's push destinations.
func (d *Dispatcher) DirectMessageStored(dm models.DirectMessage, conv models.Conversation) {
	event := models.NewDirectEvent(dm)

	go d.run("stream broadcast", func(context.Context) {
		d.registry.BroadcastToUser(conv.User1ID, event)
		d.registry.BroadcastToUser(conv.User2ID, event)
	})
	go d.run("ws broadcast", func(context.Context) {
		d.hub.BroadcastToUser(conv.User1ID, event)
		d.hub.BroadcastToUser(conv.User2ID, event)
	})
	go d.run("relay publish", func(ctx context.Context) {
		_ = d.publisher.Publish(ctx, relay.ConversationTopic(dm.ConversationID), relay.Wrap(event))
	})
	go d.run("notify", func(ctx context.Context) {
		d.notifier.NotifyDirectMessage(ctx, dm, conv)
	})
}

func (d *Dispatcher) broadcastMentions(b Broadcaster, msg models.Message) {
	for _, userID := range msg.Mentions {
		if int(userID) == msg.SenderID {
			continue
		}
		b.BroadcastToUser(int(userID), models.NewMentionEvent(models.MentionEvent{
			Room:       msg.Room,
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
		}))
	}
}

// run isolates one fan-out path: a panic or error in one path must not
// cancel the others, and nothing here propagates to the sender.
func (d *Dispatcher) run(name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("delivery: %s panicked: %v", name, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()
	fn(ctx)
}
