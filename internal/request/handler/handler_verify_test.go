package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/internal/auth"
	"hemolink/internal/donor"
	"hemolink/internal/notification/dispatch"
	notifstore "hemolink/internal/notification/store"
	"hemolink/internal/request/service"
	"hemolink/internal/request/store"
	"hemolink/internal/verify"
	"hemolink/pkg/domain"
)

func newVerifiedStack(t *testing.T) (http.Handler, *verify.Service) {
	t.Helper()
	requests := store.NewInMemory()
	notifications := notifstore.NewInMemory()
	directory := donor.NewFakeDirectory()
	dispatcher := dispatch.New(directory, notifications)
	svc := service.New(requests, notifications, dispatcher, directory)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := verify.NewService(verify.NewMemoryCodeStore(), verify.DefaultTTL)

	h := New(svc, logger, nil, auth.NewJWTServiceAdapter(jwtService), WithVerifier(verifier))
	r := chi.NewRouter()
	h.Register(r)
	return r, verifier
}

func TestSubmitWithVerificationCode(t *testing.T) {
	t.Run("valid code is accepted", func(t *testing.T) {
		router, verifier := newVerifiedStack(t)
		requester := domain.NewUserID()
		code, err := verifier.Issue(context.Background(), requester)
		require.NoError(t, err)

		body := submitBody()
		body["verification_code"] = code
		rec := doJSON(t, router, http.MethodPost, "/requests", bearerFor(t, requester), body)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		router, verifier := newVerifiedStack(t)
		requester := domain.NewUserID()
		_, err := verifier.Issue(context.Background(), requester)
		require.NoError(t, err)

		body := submitBody()
		body["verification_code"] = "000000"
		rec := doJSON(t, router, http.MethodPost, "/requests", bearerFor(t, requester), body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("anonymous caller cannot use a code", func(t *testing.T) {
		router, _ := newVerifiedStack(t)

		body := submitBody()
		body["verification_code"] = "123456"
		rec := doJSON(t, router, http.MethodPost, "/requests", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("omitting the code skips the check", func(t *testing.T) {
		router, _ := newVerifiedStack(t)

		rec := doJSON(t, router, http.MethodPost, "/requests", "", submitBody())
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
