// Package handler exposes contact verification over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hemolink/internal/platform/middleware"
	"hemolink/internal/transport/http/shared"
	"hemolink/internal/verify"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// Handler handles verification-code endpoints. Code delivery (SMS, email)
// is a downstream consumer's job; the issue response returns the code only
// so operators can bridge delivery manually in early deployments.
type Handler struct {
	service      *verify.Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(service *verify.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	verifyRouter := chi.NewRouter()
	verifyRouter.Use(middleware.Recovery(h.logger))
	verifyRouter.Use(middleware.RequestID)
	verifyRouter.Use(middleware.Logger(h.logger))
	verifyRouter.Use(middleware.Timeout(10 * time.Second))
	verifyRouter.Use(middleware.ContentTypeJSON)
	verifyRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	verifyRouter.Post("/", h.handleIssue)
	verifyRouter.Post("/confirm", h.handleConfirm)

	r.Mount("/verify", verifyRouter)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	code, err := h.service.Issue(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue verification code",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"code": code})
}

type confirmRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var body confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.Confirm(ctx, userID, body.Code); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
