package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"academy-chat/internal/models"
	"academy-chat/internal/observability"
	"academy-chat/internal/repositories"
)

// Targeter computes the recipient set for a stored message, filters it by
// preference and quiet hours, and dispatches batched push notifications.
// Everything here is best-effort: a failure is logged and never affects the
// message's delivered status.
type Targeter struct {
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	provider      Provider
	now           func() time.Time
}

// NewTargeter constructs a Targeter.
func NewTargeter(users repositories.UserRepository, notifications repositories.NotificationRepository, provider Provider) *Targeter {
	return &Targeter{
		users:         users,
		notifications: notifications,
		provider:      provider,
		now:           time.Now,
	}
}

// NotifyRoomMessage pushes a stored room message to every known user except
// the sender. Mentioned users receive a distinct mention push instead,
// independent of room membership.
func (t *Targeter) NotifyRoomMessage(ctx context.Context, msg models.Message) {
	userIDs, err := t.users.ListUserIDs(ctx)
	if err != nil {
		log.Printf("notify: list users failed: %v", err)
		return
	}

	mentioned := make(map[int]struct{}, len(msg.Mentions))
	for _, id := range msg.Mentions {
		mentioned[int(id)] = struct{}{}
	}

	category := models.CategoryRoomMessage
	if msg.Room == "announcements" {
		category = models.CategoryAnnouncement
	}

	var batch []PushMessage
	for _, userID := range userIDs {
		if userID == msg.SenderID {
			continue
		}
		if _, ok := mentioned[userID]; ok {
			continue
		}
		batch = append(batch, t.messagesFor(ctx, userID, category, PushMessage{
			Title:    fmt.Sprintf("#%s", msg.Room),
			Body:     fmt.Sprintf("%s: %s", msg.SenderName, msg.Body),
			Category: category,
			Data:     map[string]string{"room": msg.Room, "message_id": strconv.Itoa(msg.ID)},
		})...)
	}

	for userID := range mentioned {
		if userID == msg.SenderID {
			continue
		}
		batch = append(batch, t.messagesFor(ctx, userID, models.CategoryMention, PushMessage{
			Title:    fmt.Sprintf("%s mentioned you", msg.SenderName),
			Body:     msg.Body,
			Category: models.CategoryMention,
			Data:     map[string]string{"room": msg.Room, "message_id": strconv.Itoa(msg.ID)},
		})...)
	}

	t.dispatch(ctx, batch)
}

// NotifyDirectMessage pushes a stored DM to the other participant.
func (t *Targeter) NotifyDirectMessage(ctx context.Context, dm models.DirectMessage, conv models.Conversation) {
	recipient := conv.Other(dm.SenderID)
	batch := t.messagesFor(ctx, recipient, models.CategoryDirectMessage, PushMessage{
		Title:    dm.SenderName,
		Body:     dm.Body,
		Category: models.CategoryDirectMessage,
		Data:     map[string]string{"conversation_id": strconv.Itoa(dm.ConversationID)},
	})
	t.dispatch(ctx, batch)
}

// messagesFor expands one logical notification into per-destination push
// messages, applying the recipient's preference and quiet-hours filters.
// Preferences are fetched at send time so the latest value always wins.
func (t *Targeter) messagesFor(ctx context.Context, userID int, category string, template PushMessage) []PushMessage {
	pref, err := t.notifications.GetPreference(ctx, userID)
	if err != nil {
		log.Printf("notify: preference lookup failed for user %d: %v", userID, err)
		return nil
	}
	if !pref.PushEnabled || !pref.CategoryEnabled(category) {
		return nil
	}
	if InQuietHours(pref, t.now()) {
		return nil
	}

	dests, err := t.notifications.ActiveDestinations(ctx, []int{userID})
	if err != nil {
		log.Printf("notify: destination lookup failed for user %d: %v", userID, err)
		return nil
	}

	msgs := make([]PushMessage, 0, len(dests))
	for _, dest := range dests {
		msg := template
		msg.To = dest.Token
		msgs = append(msgs, msg)
	}
	return msgs
}

// dispatch chunks the batch and sends each chunk, handling per-ticket
// failures without aborting the rest.
func (t *Targeter) dispatch(ctx context.Context, batch []PushMessage) {
	for start := 0; start < len(batch); start += ChunkSize {
		end := start + ChunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]

		tickets, err := t.provider.SendBatch(ctx, chunk)
		if err != nil {
			log.Printf("notify: push batch of %d failed: %v", len(chunk), err)
			observability.IncPushDispatch("batch_error")
			continue
		}

		for i, ticket := range tickets {
			if i >= len(chunk) {
				break
			}
			if ticket.OK() {
				observability.IncPushDispatch("ok")
				continue
			}
			observability.IncPushDispatch("error")
			log.Printf("notify: push ticket failed token=%s: %s", chunk[i].To, ticket.Message)
			if ticket.Details.Error == DeviceNotRegistered {
				if err := t.notifications.DeactivateDestination(ctx, chunk[i].To); err != nil {
					log.Printf("notify: deactivate destination failed: %v", err)
				}
			}
		}
	}
}

// InQuietHours reports whether now falls inside the preference's quiet
// window. A window with start after end wraps midnight; equal start and end
// means never quiet.
func InQuietHours(pref models.NotificationPreference, now time.Time) bool {
	if pref.QuietStart == nil || pref.QuietEnd == nil {
		return false
	}
	start, ok := parseClock(*pref.QuietStart)
	if !ok {
		return false
	}
	end, ok := parseClock(*pref.QuietEnd)
	if !ok {
		return false
	}
	if start == end {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
