// Package handler exposes the blood-request lifecycle over HTTP.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hemolink/internal/notification/dispatch"
	"hemolink/internal/platform/metrics"
	"hemolink/internal/platform/middleware"
	"hemolink/internal/request/models"
	"hemolink/internal/request/service"
	"hemolink/internal/request/store"
	"hemolink/internal/transport/http/shared"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// Service defines the request operations the HTTP layer delegates to.
type Service interface {
	SubmitRequest(ctx context.Context, params service.SubmitParams) (*service.SubmitResult, error)
	GetRequest(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error)
	ListRequests(ctx context.Context, filter store.Filter) ([]*models.BloodRequest, error)
	UpdateStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus, fulfilled bool) error
	Respond(ctx context.Context, params service.RespondParams) (*service.RespondResult, error)
	RedispatchRequest(ctx context.Context, id domain.RequestID) (dispatch.Result, error)
	PruneStale(ctx context.Context) (int, error)
}

// Verifier confirms a previously issued contact-verification code.
type Verifier interface {
	Confirm(ctx context.Context, userID domain.UserID, code string) error
}

// Handler handles blood-request endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	verifier     Verifier
}

// Option configures optional Handler collaborators.
type Option func(*Handler)

// WithVerifier enables verification-code checking on submissions that
// carry one.
func WithVerifier(v Verifier) Option {
	return func(h *Handler) { h.verifier = v }
}

// New creates a new request Handler.
func New(
	svc Service,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	opts ...Option) *Handler {
	h := &Handler{
		service:      svc,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the request routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	requestRouter := chi.NewRouter()
	requestRouter.Use(middleware.Recovery(h.logger))
	requestRouter.Use(middleware.RequestID)
	requestRouter.Use(middleware.Logger(h.logger))
	requestRouter.Use(middleware.Timeout(30 * time.Second))
	requestRouter.Use(middleware.ContentTypeJSON)
	requestRouter.Use(middleware.LatencyMiddleware(h.metrics))

	requestRouter.Group(func(public chi.Router) {
		public.Use(middleware.OptionalAuth(h.jwtValidator, h.logger))
		public.Post("/", h.handleSubmit)
		public.Get("/", h.handleList)
		public.Get("/{id}", h.handleGet)
	})
	requestRouter.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		authed.Patch("/{id}/status", h.handleUpdateStatus)
		authed.Post("/{id}/respond", h.handleRespond)
		authed.Post("/{id}/dispatch", h.handleRedispatch)
	})

	r.Mount("/requests", requestRouter)
}

type submitRequest struct {
	PatientName   string `json:"patient_name"`
	BloodGroup    string `json:"blood_group"`
	UnitsRequired int    `json:"units_required"`
	UrgencyLevel  string `json:"urgency_level"`
	HospitalName  string `json:"hospital_name"`
	ContactPerson string `json:"contact_person"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
	MedicalReason string `json:"medical_reason"`

	// VerificationCode is optional; when present it is checked against the
	// caller's issued code before the request is accepted.
	VerificationCode string `json:"verification_code,omitempty"`
}

type submitResponse struct {
	ID                    domain.RequestID `json:"id"`
	Status                string           `json:"status"`
	NotificationsSent     int              `json:"notifications_sent"`
	CompatibleDonorsFound int              `json:"compatible_donors_found"`
	DispatchError         string           `json:"dispatch_error,omitempty"`
}

// handleSubmit creates a request and fans it out. An authenticated caller
// becomes the requester; anonymous submissions are accepted too.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	bloodGroup, err := domain.ParseBloodGroup(body.BloodGroup)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	urgency, err := domain.ParseUrgencyLevel(body.UrgencyLevel)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if body.VerificationCode != "" {
		caller := h.callerID(ctx)
		if h.verifier == nil || caller == nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "verification is not available for this request"))
			return
		}
		if err := h.verifier.Confirm(ctx, *caller, body.VerificationCode); err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	params := service.SubmitParams{
		PatientName:   body.PatientName,
		BloodGroup:    bloodGroup,
		UnitsRequired: body.UnitsRequired,
		UrgencyLevel:  urgency,
		HospitalName:  body.HospitalName,
		ContactPerson: body.ContactPerson,
		ContactPhone:  body.ContactPhone,
		ContactEmail:  body.ContactEmail,
		MedicalReason: body.MedicalReason,
	}
	if requesterID := h.callerID(ctx); requesterID != nil {
		params.RequesterID = requesterID
	}

	result, err := h.service.SubmitRequest(ctx, params)
	if err != nil {
		h.logger.WarnContext(ctx, "blood request rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	resp := submitResponse{
		ID:                    result.Request.ID,
		Status:                result.Request.Status.String(),
		NotificationsSent:     result.Dispatch.NotificationsSent,
		CompatibleDonorsFound: result.Dispatch.CompatibleDonors,
	}
	if result.DispatchErr != nil {
		// The request exists; tell the caller the fan-out needs a retry.
		resp.DispatchError = "request created but donor notifications were not sent"
		shared.WriteJSON(w, http.StatusAccepted, resp)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}

// handleList returns requests matching the query filters, newest first.
// Each list fetch opportunistically prunes stale terminal requests.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if _, err := h.service.PruneStale(ctx); err != nil {
		h.logger.WarnContext(ctx, "opportunistic prune failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}

	requests, err := h.service.ListRequests(ctx, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []*models.BloodRequest{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, req)
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	Fulfilled bool   `json:"fulfilled"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var body updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := models.ParseRequestStatus(body.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.UpdateStatus(ctx, id, status, body.Fulfilled); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type respondRequest struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

// handleRespond records the authenticated donor's reply.
func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	callerID := h.callerID(ctx)
	if callerID == nil {
		// Should never happen behind RequireAuth.
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var body respondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	kind, err := models.ParseResponseKind(body.Response)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.service.Respond(ctx, service.RespondParams{
		RequestID: id,
		DonorID:   *callerID,
		CallerID:  *callerID,
		Response:  kind,
		Message:   body.Message,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRedispatch(w http.ResponseWriter, r *http.Request) {
	id, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.service.RedispatchRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

// callerID resolves the authenticated user, nil when anonymous.
func (h *Handler) callerID(ctx context.Context) *domain.UserID {
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		return nil
	}
	id, err := domain.ParseUserID(raw)
	if err != nil {
		return nil
	}
	return &id
}

func requestIDFromURL(r *http.Request) (domain.RequestID, error) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.RequestID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid request id")
	}
	return id, nil
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	var filter store.Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseRequestStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Status = status
	}
	if raw := q.Get("blood_group"); raw != "" {
		group, err := domain.ParseBloodGroup(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.BloodGroup = group
	}
	if raw := q.Get("urgency"); raw != "" {
		urgency, err := domain.ParseUrgencyLevel(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Urgency = urgency
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return store.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
