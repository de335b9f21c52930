package reconcile

import (
	"sort"
	"sync"

	"academy-chat/internal/models"
)

// Reconciler merges a fetched history snapshot with live-streamed messages
// into a single deduplicated, time-ordered view for one room or
// conversation. Dedup is keyed by message identity, so transport duplicates
// and the local-echo race both collapse to one entry.
type Reconciler struct {
	mu        sync.Mutex
	byID      map[int]models.Message
	connected bool
}

// New creates an empty Reconciler. The live transport is assumed connected
// until reported otherwise.
func New() *Reconciler {
	return &Reconciler{
		byID:      make(map[int]models.Message),
		connected: true,
	}
}

// SetBaseline merges a fetched history snapshot into the view. Messages
// admitted live before the fetch completed are kept.
func (r *Reconciler) SetBaseline(history []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range history {
		r.byID[msg.ID] = msg
	}
}

// AdmitLive admits a live-arriving message unless its identity is already
// present. It returns whether the message was new.
func (r *Reconciler) AdmitLive(msg models.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[msg.ID]; ok {
		return false
	}
	r.byID[msg.ID] = msg
	return true
}

// Confirm records the persisted copy returned by a send call. A locally
// composed message is not considered delivered until either its live echo
// arrives or this confirmation lands, whichever comes first.
func (r *Reconciler) Confirm(msg models.Message) bool {
	return r.AdmitLive(msg)
}

// SetConnected reports the live transport state.
func (r *Reconciler) SetConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = connected
}

// Connected returns the last reported live transport state.
func (r *Reconciler) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// AfterLocalSend runs the polling fallback: while the live transport is
// down, history is refetched after every locally-sent message because the
// echo cannot otherwise be observed.
func (r *Reconciler) AfterLocalSend(fetch func() ([]models.Message, error)) error {
	if r.Connected() {
		return nil
	}
	history, err := fetch()
	if err != nil {
		return err
	}
	r.SetBaseline(history)
	return nil
}

// View returns the rendered message list, ordered by persisted creation time
// with ties broken by identity, never by arrival order.
func (r *Reconciler) View() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := make([]models.Message, 0, len(r.byID))
	for _, msg := range r.byID {
		view = append(view, msg)
	}
	sort.Slice(view, func(i, j int) bool {
		if view[i].CreatedAt.Equal(view[j].CreatedAt) {
			return view[i].ID < view[j].ID
		}
		return view[i].CreatedAt.Before(view[j].CreatedAt)
	})
	return view
}
