package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"academy-chat/internal/models"
	"academy-chat/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, msg repositories.NewMessage) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) History(ctx context.Context, room string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, room, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGet(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID int, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type DirectMessageRepositoryMock struct {
	mock.Mock
}

func (m *DirectMessageRepositoryMock) Append(ctx context.Context, conversationID int, senderID int, senderName string, body string) (models.DirectMessage, error) {
	args := m.Called(ctx, conversationID, senderID, senderName, body)
	var dm models.DirectMessage
	if val := args.Get(0); val != nil {
		dm = val.(models.DirectMessage)
	}
	return dm, args.Error(1)
}

func (m *DirectMessageRepositoryMock) History(ctx context.Context, conversationID int, limit int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) GetPreference(ctx context.Context, userID int) (models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	var pref models.NotificationPreference
	if val := args.Get(0); val != nil {
		pref = val.(models.NotificationPreference)
	}
	return pref, args.Error(1)
}

func (m *NotificationRepositoryMock) UpsertPreference(ctx context.Context, pref models.NotificationPreference) (models.NotificationPreference, error) {
	args := m.Called(ctx, pref)
	var stored models.NotificationPreference
	if val := args.Get(0); val != nil {
		stored = val.(models.NotificationPreference)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) ActiveDestinations(ctx context.Context, userIDs []int) ([]models.PushDestination, error) {
	args := m.Called(ctx, userIDs)
	var dests []models.PushDestination
	if val := args.Get(0); val != nil {
		dests = val.([]models.PushDestination)
	}
	return dests, args.Error(1)
}

func (m *NotificationRepositoryMock) RegisterDestination(ctx context.Context, userID int, token string, platform string) (models.PushDestination, error) {
	args := m.Called(ctx, userID, token, platform)
	var dest models.PushDestination
	if val := args.Get(0); val != nil {
		dest = val.(models.PushDestination)
	}
	return dest, args.Error(1)
}

func (m *NotificationRepositoryMock) DeactivateDestination(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUserIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.DirectMessageRepository = (*DirectMessageRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
