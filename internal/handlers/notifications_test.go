package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"academy-chat/internal/mocks"
	"academy-chat/internal/models"
)

func setupNotificationRouter(handler *NotificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/notifications/preferences", handler.GetPreference)
	r.PUT("/notifications/preferences", handler.PutPreference)
	r.POST("/notifications/devices", handler.RegisterDestination)
	r.DELETE("/notifications/devices", handler.UnregisterDestination)
	return r
}

func TestGetPreference(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("GetPreference", mock.Anything, 1).Return(models.DefaultPreference(1), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/notifications/preferences", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestPutPreferenceWithQuietHours(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	start, end := "22:00", "07:00"
	repo.On("UpsertPreference", mock.Anything, models.NotificationPreference{
		UserID:         1,
		PushEnabled:    true,
		DirectMessages: true,
		RoomMessages:   false,
		Mentions:       true,
		Announcements:  true,
		QuietStart:     &start,
		QuietEnd:       &end,
	}).Return(models.NotificationPreference{UserID: 1}, nil).Once()

	body := `{"push_enabled":true,"direct_messages":true,"room_messages":false,"mentions":true,"announcements":true,"quiet_start":"22:00","quiet_end":"07:00"}`
	req := httptest.NewRequest(http.MethodPut, "/notifications/preferences", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestPutPreferenceRejectsMalformedClock(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	body := `{"push_enabled":true,"quiet_start":"25:99","quiet_end":"07:00"}`
	req := httptest.NewRequest(http.MethodPut, "/notifications/preferences", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "UpsertPreference", mock.Anything, mock.Anything)
}

func TestPutPreferenceRejectsHalfQuietWindow(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	body := `{"push_enabled":true,"quiet_start":"22:00"}`
	req := httptest.NewRequest(http.MethodPut, "/notifications/preferences", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "UpsertPreference", mock.Anything, mock.Anything)
}

func TestRegisterDestinationDefaultsPlatform(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("RegisterDestination", mock.Anything, 1, "ExponentPushToken[abc]", "unknown").
		Return(models.PushDestination{ID: 1, UserID: 1, Token: "ExponentPushToken[abc]"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/devices", bytes.NewBufferString(`{"token":"ExponentPushToken[abc]"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	repo.AssertExpectations(t)
}

func TestUnregisterDestination(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo)
	router := setupNotificationRouter(handler)

	repo.On("DeactivateDestination", mock.Anything, "ExponentPushToken[abc]").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/notifications/devices", bytes.NewBufferString(`{"token":"ExponentPushToken[abc]"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}
