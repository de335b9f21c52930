package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy-chat/internal/models"
)

func msg(id int, at time.Time) models.Message {
	return models.Message{ID: id, Room: "general", Body: "m", CreatedAt: at}
}

func TestDuplicateLiveMessageCollapsesToOneEntry(t *testing.T) {
	r := New()
	base := time.Now()

	assert.True(t, r.AdmitLive(msg(1, base)))
	assert.False(t, r.AdmitLive(msg(1, base)))
	assert.Len(t, r.View(), 1)
}

func TestBaselineAndLiveMerge(t *testing.T) {
	r := New()
	base := time.Now()

	// Live message lands while the history fetch is still in flight.
	require.True(t, r.AdmitLive(msg(3, base.Add(2*time.Second))))
	r.SetBaseline([]models.Message{msg(1, base), msg(2, base.Add(time.Second)), msg(3, base.Add(2*time.Second))})

	view := r.View()
	require.Len(t, view, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{view[0].ID, view[1].ID, view[2].ID})
}

func TestViewOrdersByCreationTimeNotArrival(t *testing.T) {
	r := New()
	base := time.Now()

	r.AdmitLive(msg(2, base.Add(time.Second)))
	r.AdmitLive(msg(1, base))

	view := r.View()
	require.Len(t, view, 2)
	assert.Equal(t, 1, view[0].ID)
	assert.Equal(t, 2, view[1].ID)
}

func TestViewBreaksTimestampTiesByID(t *testing.T) {
	r := New()
	at := time.Now()

	r.AdmitLive(msg(7, at))
	r.AdmitLive(msg(4, at))

	view := r.View()
	require.Len(t, view, 2)
	assert.Equal(t, 4, view[0].ID)
	assert.Equal(t, 7, view[1].ID)
}

func TestConfirmThenEchoIsSingleEntry(t *testing.T) {
	r := New()
	stored := msg(9, time.Now())

	assert.True(t, r.Confirm(stored))
	assert.False(t, r.AdmitLive(stored), "live echo of a confirmed send must be dropped")
	assert.Len(t, r.View(), 1)
}

func TestAfterLocalSendSkipsFetchWhileConnected(t *testing.T) {
	r := New()

	err := r.AfterLocalSend(func() ([]models.Message, error) {
		t.Fatal("fetch must not run while the live transport is up")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestAfterLocalSendRefetchesWhenDisconnected(t *testing.T) {
	r := New()
	r.SetConnected(false)
	base := time.Now()

	fetched := false
	err := r.AfterLocalSend(func() ([]models.Message, error) {
		fetched = true
		return []models.Message{msg(1, base), msg(2, base.Add(time.Second))}, nil
	})
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Len(t, r.View(), 2)
}

func TestAfterLocalSendPropagatesFetchError(t *testing.T) {
	r := New()
	r.SetConnected(false)

	boom := errors.New("history unavailable")
	err := r.AfterLocalSend(func() ([]models.Message, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.View())
}
