package handler_test

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/internal/auth"
	"hemolink/internal/verify"
	"hemolink/internal/verify/handler"
	"hemolink/pkg/domain"
	"hemolink/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *auth.JWTService) {
	t.Helper()

	jwtService := auth.NewJWTService("test-signing-key", "hemolink", "hemolink-api")
	svc := verify.NewService(verify.NewMemoryCodeStore(), verify.DefaultTTL)
	h := handler.New(svc, slog.New(slog.DiscardHandler), auth.NewJWTServiceAdapter(jwtService))

	r := chi.NewRouter()
	h.Register(r)
	return r, jwtService
}

func bearer(t *testing.T, jwtService *auth.JWTService, userID domain.UserID) string {
	t.Helper()
	token, err := jwtService.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestVerifyFlow(t *testing.T) {
	router, jwtService := newRouter(t)
	user := domain.NewUserID()
	authz := bearer(t, jwtService, user)

	t.Run("requires authentication", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/verify", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("issue then confirm", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/verify", nil)
		req.Header.Set("Authorization", authz)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		issued := testutil.UnmarshalResponse[map[string]string](t, rr)
		code := (*issued)["code"]
		require.Len(t, code, 6)

		req = testutil.NewJSONRequest(t, http.MethodPost, "/verify/confirm", map[string]string{"code": code})
		req.Header.Set("Authorization", authz)
		rr = testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"status":"verified"}`, rr.Body.String())
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/verify", nil)
		req.Header.Set("Authorization", authz)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		req = testutil.NewJSONRequest(t, http.MethodPost, "/verify/confirm", map[string]string{"code": "000000"})
		req.Header.Set("Authorization", authz)
		rr = testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "unauthorized")
	})

	t.Run("confirm without an issued code", func(t *testing.T) {
		stranger := bearer(t, jwtService, domain.NewUserID())

		req := testutil.NewJSONRequest(t, http.MethodPost, "/verify/confirm", map[string]string{"code": "123456"})
		req.Header.Set("Authorization", stranger)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
