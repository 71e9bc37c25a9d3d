// Package handler exposes a donor's notification feed over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hemolink/internal/notification"
	"hemolink/internal/platform/metrics"
	"hemolink/internal/platform/middleware"
	"hemolink/internal/transport/http/shared"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// Store defines the notification reads the HTTP layer needs.
type Store interface {
	ListByUser(ctx context.Context, userID domain.UserID) ([]notification.Notification, error)
}

// Handler handles notification endpoints.
type Handler struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new notification Handler.
func New(
	store Store,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		store:        store,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	notificationRouter := chi.NewRouter()
	notificationRouter.Use(middleware.Recovery(h.logger))
	notificationRouter.Use(middleware.RequestID)
	notificationRouter.Use(middleware.Logger(h.logger))
	notificationRouter.Use(middleware.Timeout(15 * time.Second))
	notificationRouter.Use(middleware.ContentTypeJSON)
	notificationRouter.Use(middleware.LatencyMiddleware(h.metrics))
	notificationRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	notificationRouter.Get("/", h.handleList)

	r.Mount("/notifications", notificationRouter)
}

// handleList returns the caller's notifications plus global broadcasts,
// newest first.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	notifications, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list notifications"))
		return
	}
	if notifications == nil {
		notifications = []notification.Notification{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
