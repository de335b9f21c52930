package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"academy-chat/internal/models"
)

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) MessageStored(msg models.Message) {
	m.Called(msg)
}

func (m *DispatcherMock) DirectMessageStored(dm models.DirectMessage, conv models.Conversation) {
	m.Called(dm, conv)
}

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}
