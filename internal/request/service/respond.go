package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"hemolink/internal/donor"
	"hemolink/internal/notification"
	"hemolink/internal/platform/events"
	"hemolink/internal/request/models"
	"hemolink/internal/request/store"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

var tracer = otel.Tracer("hemolink/request")

// RespondParams carries a donor's reply. CallerID is the authenticated
// identity; it must match DonorID.
type RespondParams struct {
	RequestID domain.RequestID
	DonorID   domain.UserID
	CallerID  domain.UserID
	Response  models.ResponseKind
	Message   string
}

// RespondResult reports the recorded response and the user-facing message.
type RespondResult struct {
	Message       string               `json:"message"`
	DonorResponse models.DonorResponse `json:"donor_response"`
}

// Respond records a donor's reply to a blood request.
//
// The reply upsert is the source of truth: once it succeeds, notification
// reconciliation (marking, deleting, creating follow-ups) is best-effort
// and never rolls the reply back. A donor may re-respond any number of
// times; the latest reply wins.
//
// Errors: CodeForbidden when the caller is not the donor, CodeNotFound for
// a missing request or donor, CodeConflict when the store exhausted its
// upsert retries.
func (s *Service) Respond(ctx context.Context, params RespondParams) (*RespondResult, error) {
	ctx, span := tracer.Start(ctx, "request.Respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", params.RequestID.String()),
		attribute.String("response", params.Response.String()),
	)

	if params.CallerID != params.DonorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "you can only respond as yourself")
	}
	if !params.Response.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid response %q", params.Response.String())
	}

	req, err := s.getRequest(ctx, params.RequestID)
	if err != nil {
		return nil, err
	}

	profile, err := s.directory.GetByID(ctx, params.DonorID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor profile")
	}

	resp := models.DonorResponse{
		DonorID:         profile.ID,
		DonorName:       profile.DisplayName(),
		DonorEmail:      profile.Email,
		DonorPhone:      profile.Phone,
		DonorBloodGroup: profile.BloodGroup,
		Response:        params.Response,
		Message:         params.Message,
		ContactShared:   params.Response == models.ResponseAccepted,
		RespondedAt:     time.Now(),
	}

	if err := s.requests.UpsertDonorResponse(ctx, req.ID, resp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donor response")
	}

	if s.metrics != nil {
		s.metrics.ResponsesRecorded.WithLabelValues(resp.Response.String()).Inc()
	}
	s.emit(events.Event{
		Kind:       events.KindDonorResponded,
		RequestID:  req.ID,
		UserID:     profile.ID,
		BloodGroup: profile.BloodGroup,
		Response:   resp.Response.String(),
	})

	// From here on the reply is recorded; reconciliation is best-effort.
	s.reconcileNotifications(ctx, req, profile.ID, resp)

	message := "Your response has been recorded."
	if resp.ContactShared {
		message = "Your contact details have been shared with the requester."
	}
	return &RespondResult{Message: message, DonorResponse: resp}, nil
}

func donorFromResponse(resp models.DonorResponse) donor.Donor {
	return donor.Donor{
		ID:         resp.DonorID,
		Name:       resp.DonorName,
		Email:      resp.DonorEmail,
		Phone:      resp.DonorPhone,
		BloodGroup: resp.DonorBloodGroup,
	}
}

// reconcileNotifications settles the donor's open prompt and, on accept,
// creates the contact-sharing and reminder notifications. Applied in
// order; failures are logged and retried on the next response, never
// surfaced to the donor.
func (s *Service) reconcileNotifications(ctx context.Context, req *models.BloodRequest, donorID domain.UserID, resp models.DonorResponse) {
	if err := s.notifications.MarkResponded(ctx, req.ID, donorID); err != nil {
		s.logWarn(ctx, "failed to mark prompt responded",
			"request_id", req.ID.String(), "error", err.Error())
	}

	if resp.Response != models.ResponseAccepted {
		return
	}

	// Accepted: the action item is resolved, drop the open prompt.
	if err := s.notifications.DeleteByRequestAndUser(ctx, req.ID, donorID); err != nil {
		s.logWarn(ctx, "failed to delete answered prompt",
			"request_id", req.ID.String(), "error", err.Error())
	}

	now := time.Now()
	profile := donorFromResponse(resp)
	accepted := notification.NewDonorAccepted(req, profile, resp.Message, now)
	if err := s.notifications.Create(ctx, accepted); err != nil {
		s.logWarn(ctx, "failed to create donor_accepted notification",
			"request_id", req.ID.String(), "error", err.Error())
	}
	reminder := notification.NewDonationReminder(req, profile, now)
	if err := s.notifications.Create(ctx, reminder); err != nil {
		s.logWarn(ctx, "failed to create donation_reminder notification",
			"request_id", req.ID.String(), "error", err.Error())
	}

	if s.metrics != nil {
		s.metrics.ContactsShared.Inc()
	}
	s.emit(events.Event{
		Kind:       events.KindContactShared,
		RequestID:  req.ID,
		UserID:     donorID,
		BloodGroup: resp.DonorBloodGroup,
	})
	s.logInfo(ctx, "donor accepted blood request; contact shared",
		"request_id", req.ID.String(),
		"donor_id", donorID.String(),
	)
}
