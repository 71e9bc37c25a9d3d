// Package dispatch fans a new blood request out to every compatible,
// eligible donor as individual notification records.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"hemolink/internal/donor"
	"hemolink/internal/match"
	"hemolink/internal/notification"
	"hemolink/internal/platform/metrics"
	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

var tracer = otel.Tracer("hemolink/dispatch")

// NotificationStore is the slice of the notification store the dispatcher
// needs: an atomic batch write plus the recipient set for dedupe.
type NotificationStore interface {
	CreateBatch(ctx context.Context, batch []notification.Notification) error
	PromptRecipients(ctx context.Context, requestID domain.RequestID) ([]domain.UserID, error)
}

// Result reports fan-out counts for the API response.
type Result struct {
	NotificationsSent int `json:"notifications_sent"`
	CompatibleDonors  int `json:"compatible_donors_found"`
}

// Dispatcher broadcasts blood requests. It never mutates the request; a
// failed batch write is reported as retryable and the request stands.
type Dispatcher struct {
	directory donor.Directory
	store     NotificationStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New constructs a Dispatcher.
func New(directory donor.Directory, store NotificationStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{directory: directory, store: store}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch creates one blood_request notification per compatible donor,
// excluding the requester and any donor that already holds a live prompt
// for this request (so a retried dispatch cannot double-notify).
//
// Errors: CodeInvalidInput for an unknown blood group (no side effects);
// CodeDispatchPartial when the batch write fails after the request was
// already created; the returned Result still carries the compatible-donor
// count and the caller may retry.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.BloodRequest) (Result, error) {
	ctx, span := tracer.Start(ctx, "dispatch.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", req.ID.String()),
		attribute.String("blood_group", req.BloodGroup.String()),
	)
	start := time.Now()

	groups, err := match.CompatibleDonorGroups(req.BloodGroup)
	if err != nil {
		return Result{}, err
	}

	// The directory query and the dedupe set are independent reads.
	var (
		donors   []donor.Donor
		notified []domain.UserID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donors, err = d.directory.FindActiveEligibleDonors(gctx, groups)
		return err
	})
	g.Go(func() error {
		var err error
		notified, err = d.store.PromptRecipients(gctx, req.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dispatch inputs")
	}

	skip := make(map[domain.UserID]bool, len(notified)+1)
	for _, id := range notified {
		skip[id] = true
	}
	if req.RequesterID != nil {
		skip[*req.RequesterID] = true
	}

	now := time.Now()
	compatible := 0
	var batch []notification.Notification
	for _, candidate := range donors {
		if req.RequesterID != nil && candidate.ID == *req.RequesterID {
			continue
		}
		compatible++
		if skip[candidate.ID] {
			continue
		}
		skip[candidate.ID] = true // directory rows may repeat a donor
		batch = append(batch, notification.NewBloodRequestPrompt(req, candidate, now))
	}

	result := Result{NotificationsSent: len(batch), CompatibleDonors: compatible}

	if len(batch) > 0 {
		if err := d.store.CreateBatch(ctx, batch); err != nil {
			span.RecordError(err)
			d.logWarn(ctx, "notification batch write failed; request stands",
				"request_id", req.ID.String(),
				"batch_size", len(batch),
				"error", err.Error(),
			)
			result.NotificationsSent = 0
			return result, dErrors.Wrap(err, dErrors.CodeDispatchPartial,
				"request created but donor notifications were not sent")
		}
	}

	if d.metrics != nil {
		d.metrics.NotificationsDispatched.Add(float64(result.NotificationsSent))
		d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}
	d.logInfo(ctx, "dispatched blood request",
		"request_id", req.ID.String(),
		"compatible_donors", compatible,
		"notifications_sent", result.NotificationsSent,
	)
	return result, nil
}

func (d *Dispatcher) logInfo(ctx context.Context, msg string, args ...any) {
	if d.logger != nil {
		d.logger.InfoContext(ctx, msg, args...)
	}
}

func (d *Dispatcher) logWarn(ctx context.Context, msg string, args ...any) {
	if d.logger != nil {
		d.logger.WarnContext(ctx, msg, args...)
	}
}
