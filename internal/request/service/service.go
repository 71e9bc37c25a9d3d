// Package service orchestrates the blood-request lifecycle: submission and
// fan-out, donor responses, admin status transitions, and housekeeping.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hemolink/internal/donor"
	"hemolink/internal/notification"
	"hemolink/internal/notification/dispatch"
	"hemolink/internal/platform/events"
	"hemolink/internal/platform/metrics"
	"hemolink/internal/request/models"
	"hemolink/internal/request/store"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// RequestStore is the persistence the service requires for requests.
type RequestStore interface {
	Create(ctx context.Context, req *models.BloodRequest) error
	Get(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error)
	List(ctx context.Context, filter store.Filter) ([]*models.BloodRequest, error)
	UpsertDonorResponse(ctx context.Context, id domain.RequestID, resp models.DonorResponse) error
	UpdateStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus, fulfilled bool) error
	Delete(ctx context.Context, id domain.RequestID) error
}

// NotificationStore is the slice of the notification store the response
// path reconciles against.
type NotificationStore interface {
	Create(ctx context.Context, n notification.Notification) error
	MarkResponded(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error
	DeleteByRequestAndUser(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error
	DeleteByRequest(ctx context.Context, requestID domain.RequestID) error
}

// Dispatcher fans a request out to compatible donors.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.BloodRequest) (dispatch.Result, error)
}

// EventEmitter queues lifecycle events without blocking.
type EventEmitter interface {
	Emit(event events.Event)
}

// Service is the blood-request lifecycle orchestrator.
type Service struct {
	requests      RequestStore
	notifications NotificationStore
	dispatcher    Dispatcher
	directory     donor.Directory
	logger        *slog.Logger
	metrics       *metrics.Metrics
	emitter       EventEmitter
	pruneMaxAge   time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventEmitter(emitter EventEmitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// WithPruneMaxAge overrides the default 7-day housekeeping horizon.
func WithPruneMaxAge(maxAge time.Duration) Option {
	return func(s *Service) {
		s.pruneMaxAge = maxAge
	}
}

// New constructs a Service.
func New(requests RequestStore, notifications NotificationStore, dispatcher Dispatcher, directory donor.Directory, opts ...Option) *Service {
	s := &Service{
		requests:      requests,
		notifications: notifications,
		dispatcher:    dispatcher,
		directory:     directory,
		pruneMaxAge:   7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitParams carries a validated submission. RequesterID is nil for
// anonymous/public submissions.
type SubmitParams struct {
	RequesterID   *domain.UserID
	PatientName   string
	BloodGroup    domain.BloodGroup
	UnitsRequired int
	UrgencyLevel  domain.UrgencyLevel
	HospitalName  string
	ContactPerson string
	ContactPhone  string
	ContactEmail  string
	MedicalReason string
}

// SubmitResult reports the created request and the fan-out outcome.
// DispatchErr is non-nil when notifications could not be written; the
// request itself stands and dispatch may be retried.
type SubmitResult struct {
	Request     *models.BloodRequest
	Dispatch    dispatch.Result
	DispatchErr error
}

// SubmitRequest creates a blood request and fans it out to compatible
// donors. A dispatch failure never rolls the request back.
func (s *Service) SubmitRequest(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	req, err := models.NewBloodRequest(
		domain.NewRequestID(),
		params.RequesterID,
		params.PatientName,
		params.BloodGroup,
		params.UnitsRequired,
		params.UrgencyLevel,
		params.HospitalName,
		params.ContactPerson,
		params.ContactPhone,
		params.ContactEmail,
		params.MedicalReason,
		time.Now(),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid blood request")
		}
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood request")
	}
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	s.emit(events.Event{
		Kind:       events.KindRequestCreated,
		RequestID:  req.ID,
		BloodGroup: req.BloodGroup,
		Urgency:    req.UrgencyLevel.String(),
	})

	result := &SubmitResult{Request: req}
	result.Dispatch, result.DispatchErr = s.dispatcher.Dispatch(ctx, req)
	if result.DispatchErr == nil {
		s.emit(events.Event{
			Kind:      events.KindNotificationsDispatched,
			RequestID: req.ID,
			Count:     result.Dispatch.NotificationsSent,
		})
	} else {
		s.logWarn(ctx, "dispatch failed after request creation",
			"request_id", req.ID.String(),
			"error", result.DispatchErr.Error(),
		)
	}
	return result, nil
}

// RedispatchRequest retries the fan-out for an existing active request.
// Donors already holding a live prompt are not notified again.
func (s *Service) RedispatchRequest(ctx context.Context, id domain.RequestID) (dispatch.Result, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return dispatch.Result{}, err
	}
	if req.Status != models.StatusActive {
		return dispatch.Result{}, dErrors.Newf(dErrors.CodeValidation,
			"cannot dispatch a %s request", req.Status)
	}

	result, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return result, err
	}
	s.emit(events.Event{
		Kind:      events.KindNotificationsDispatched,
		RequestID: req.ID,
		Count:     result.NotificationsSent,
	})
	return result, nil
}

// GetRequest fetches one request by id.
func (s *Service) GetRequest(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	return s.getRequest(ctx, id)
}

// ListRequests returns requests matching the filter, newest first.
func (s *Service) ListRequests(ctx context.Context, filter store.Filter) ([]*models.BloodRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood requests")
	}
	return requests, nil
}

// UpdateStatus applies an admin-driven status transition. Fulfillment is
// only legal together with completion.
func (s *Service) UpdateStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus, fulfilled bool) error {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := req.CanTransition(status); err != nil {
		return err
	}
	if err := req.ApplyStatus(status, fulfilled, time.Now()); err != nil {
		return err
	}
	if err := s.requests.UpdateStatus(ctx, id, req.Status, req.Fulfilled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request status")
	}

	s.emit(events.Event{
		Kind:      events.KindStatusChanged,
		RequestID: id,
		Detail:    status.String(),
	})
	return nil
}

func (s *Service) getRequest(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood request")
	}
	return req, nil
}

func (s *Service) emit(event events.Event) {
	if s.emitter != nil {
		s.emitter.Emit(event)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
