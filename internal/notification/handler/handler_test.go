package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/internal/auth"
	"hemolink/internal/notification"
	notifstore "hemolink/internal/notification/store"
	"hemolink/pkg/domain"
)

var jwtService = auth.NewJWTService("test-signing-key", "hemolink", "hemolink-api")

func newRouter(t *testing.T, store *notifstore.InMemoryStore) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(store, logger, nil, auth.NewJWTServiceAdapter(jwtService))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(t *testing.T, router http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a token", func(t *testing.T) {
		router := newRouter(t, notifstore.NewInMemory())
		rec := get(t, router, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns own and global notifications only", func(t *testing.T) {
		store := notifstore.NewInMemory()
		me := domain.NewUserID()
		other := domain.NewUserID()

		require.NoError(t, store.Create(ctx, notification.Notification{
			ID: domain.NewNotificationID(), UserID: me,
			Type: notification.TypeBloodRequest, Message: "mine",
			CreatedAt: time.Now(),
		}))
		require.NoError(t, store.Create(ctx, notification.Notification{
			ID: domain.NewNotificationID(), IsGlobal: true,
			Type: notification.TypeDonorAccepted, Message: "global",
			CreatedAt: time.Now(),
		}))
		require.NoError(t, store.Create(ctx, notification.Notification{
			ID: domain.NewNotificationID(), UserID: other,
			Type: notification.TypeBloodRequest, Message: "not mine",
			CreatedAt: time.Now(),
		}))

		router := newRouter(t, store)
		token, err := jwtService.GenerateAccessToken(me, time.Hour)
		require.NoError(t, err)

		rec := get(t, router, "Bearer "+token)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Notifications []notification.Notification `json:"notifications"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Notifications, 2)
		for _, n := range resp.Notifications {
			assert.NotEqual(t, "not mine", n.Message)
		}
	})

	t.Run("empty feed is an empty array", func(t *testing.T) {
		router := newRouter(t, notifstore.NewInMemory())
		token, err := jwtService.GenerateAccessToken(domain.NewUserID(), time.Hour)
		require.NoError(t, err)

		rec := get(t, router, "Bearer "+token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"notifications":[]}`, rec.Body.String())
	})
}
