package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"academy-chat/internal/mocks"
	"academy-chat/internal/models"
)

func strptr(s string) *string { return &s }

type providerMock struct {
	mock.Mock
}

func (m *providerMock) SendBatch(ctx context.Context, messages []PushMessage) ([]Ticket, error) {
	args := m.Called(ctx, messages)
	var tickets []Ticket
	if val := args.Get(0); val != nil {
		tickets = val.([]Ticket)
	}
	return tickets, args.Error(1)
}

func TestInQuietHours(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		now   string
		quiet bool
	}{
		{"wrap window, inside before midnight", "22:00", "07:00", "23:30", true},
		{"wrap window, inside after midnight", "22:00", "07:00", "03:00", true},
		{"wrap window, outside", "22:00", "07:00", "12:00", false},
		{"same-day window, inside", "09:00", "17:00", "10:00", true},
		{"same-day window, outside", "09:00", "17:00", "20:00", false},
		{"equal start and end is never quiet", "08:00", "08:00", "08:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pref := models.NotificationPreference{QuietStart: strptr(tc.start), QuietEnd: strptr(tc.end)}
			now, err := time.Parse("15:04", tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.quiet, InQuietHours(pref, now))
		})
	}
}

func TestInQuietHoursUnset(t *testing.T) {
	assert.False(t, InQuietHours(models.NotificationPreference{}, time.Now()))
}

func newTestTargeter(users *mocks.UserRepositoryMock, notifications *mocks.NotificationRepositoryMock, provider *providerMock) *Targeter {
	targeter := NewTargeter(users, notifications, provider)
	noon, _ := time.Parse("15:04", "12:00")
	targeter.now = func() time.Time { return noon }
	return targeter
}

func enabledPref(userID int) models.NotificationPreference {
	return models.DefaultPreference(userID)
}

func TestNotifyRoomMessageSkipsSender(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	users.On("ListUserIDs", mock.Anything).Return([]int{1, 2}, nil).Once()
	notifications.On("GetPreference", mock.Anything, 2).Return(enabledPref(2), nil).Once()
	notifications.On("ActiveDestinations", mock.Anything, []int{2}).
		Return([]models.PushDestination{{UserID: 2, Token: "tok-2"}}, nil).Once()
	provider.On("SendBatch", mock.Anything, mock.MatchedBy(func(batch []PushMessage) bool {
		return len(batch) == 1 && batch[0].To == "tok-2"
	})).Return([]Ticket{{Status: "ok"}}, nil).Once()

	targeter.NotifyRoomMessage(context.Background(), models.Message{ID: 9, Room: "general", SenderID: 1, SenderName: "coach", Body: "hi"})

	users.AssertExpectations(t)
	notifications.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestNotifyRoomMessagePushDisabled(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	pref := enabledPref(2)
	pref.PushEnabled = false
	users.On("ListUserIDs", mock.Anything).Return([]int{1, 2}, nil).Once()
	notifications.On("GetPreference", mock.Anything, 2).Return(pref, nil).Once()

	targeter.NotifyRoomMessage(context.Background(), models.Message{ID: 9, Room: "general", SenderID: 1, Body: "hi"})

	provider.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "ActiveDestinations", mock.Anything, mock.Anything)
}

func TestNotifyRoomMessageQuietHoursSuppressed(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := NewTargeter(users, notifications, provider)
	lateNight, _ := time.Parse("15:04", "23:30")
	targeter.now = func() time.Time { return lateNight }

	pref := enabledPref(2)
	pref.QuietStart = strptr("22:00")
	pref.QuietEnd = strptr("07:00")
	users.On("ListUserIDs", mock.Anything).Return([]int{1, 2}, nil).Once()
	notifications.On("GetPreference", mock.Anything, 2).Return(pref, nil).Once()

	targeter.NotifyRoomMessage(context.Background(), models.Message{ID: 9, Room: "general", SenderID: 1, Body: "hi"})

	provider.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything)
}

func TestMentionPushReachesNonMember(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	// User 3 is not in the directory listing at all, only mentioned.
	users.On("ListUserIDs", mock.Anything).Return([]int{1}, nil).Once()
	notifications.On("GetPreference", mock.Anything, 3).Return(enabledPref(3), nil).Once()
	notifications.On("ActiveDestinations", mock.Anything, []int{3}).
		Return([]models.PushDestination{{UserID: 3, Token: "tok-3"}}, nil).Once()
	provider.On("SendBatch", mock.Anything, mock.MatchedBy(func(batch []PushMessage) bool {
		return len(batch) == 1 && batch[0].To == "tok-3" && batch[0].Category == models.CategoryMention
	})).Return([]Ticket{{Status: "ok"}}, nil).Once()

	targeter.NotifyRoomMessage(context.Background(), models.Message{
		ID: 9, Room: "general", SenderID: 1, SenderName: "coach", Body: "hi", Mentions: []int64{3},
	})

	provider.AssertExpectations(t)
}

func TestDispatchDeactivatesDeadTokens(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	dead := Ticket{Status: "error", Message: "device gone"}
	dead.Details.Error = DeviceNotRegistered
	provider.On("SendBatch", mock.Anything, mock.Anything).
		Return([]Ticket{{Status: "ok"}, dead}, nil).Once()
	notifications.On("DeactivateDestination", mock.Anything, "tok-dead").Return(nil).Once()

	targeter.dispatch(context.Background(), []PushMessage{{To: "tok-live"}, {To: "tok-dead"}})

	notifications.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestDispatchChunks(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	batch := make([]PushMessage, ChunkSize+5)
	for i := range batch {
		batch[i] = PushMessage{To: "tok"}
	}
	provider.On("SendBatch", mock.Anything, mock.MatchedBy(func(chunk []PushMessage) bool {
		return len(chunk) == ChunkSize
	})).Return(nil, nil).Once()
	provider.On("SendBatch", mock.Anything, mock.MatchedBy(func(chunk []PushMessage) bool {
		return len(chunk) == 5
	})).Return(nil, nil).Once()

	targeter.dispatch(context.Background(), batch)

	provider.AssertExpectations(t)
}

func TestNotifyDirectMessage(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	provider := new(providerMock)
	targeter := newTestTargeter(users, notifications, provider)

	notifications.On("GetPreference", mock.Anything, 2).Return(enabledPref(2), nil).Once()
	notifications.On("ActiveDestinations", mock.Anything, []int{2}).
		Return([]models.PushDestination{{UserID: 2, Token: "tok-2"}}, nil).Once()
	provider.On("SendBatch", mock.Anything, mock.MatchedBy(func(batch []PushMessage) bool {
		return len(batch) == 1 && batch[0].Category == models.CategoryDirectMessage
	})).Return([]Ticket{{Status: "ok"}}, nil).Once()

	targeter.NotifyDirectMessage(context.Background(),
		models.DirectMessage{ID: 4, ConversationID: 7, SenderID: 1, SenderName: "coach", Body: "hello"},
		models.Conversation{ID: 7, User1ID: 1, User2ID: 2})

	provider.AssertExpectations(t)
}
