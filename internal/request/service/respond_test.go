package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/internal/notification"
	"hemolink/internal/platform/events"
	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

func respondAs(d domain.UserID, requestID domain.RequestID, kind models.ResponseKind) RespondParams {
	return RespondParams{
		RequestID: requestID,
		DonorID:   d,
		CallerID:  d,
		Response:  kind,
		Message:   "on my way",
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("accept shares contact and settles the prompt", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupONeg)
		f := newFixture(t, d)

		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupAPos, domain.UrgencyCritical))
		require.NoError(t, err)
		require.Equal(t, 1, submitted.Dispatch.NotificationsSent)

		result, err := f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)
		assert.Equal(t, "Your contact details have been shared with the requester.", result.Message)
		assert.True(t, result.DonorResponse.ContactShared)
		assert.Equal(t, d.Email, result.DonorResponse.DonorEmail)

		stored, err := f.service.GetRequest(ctx, submitted.Request.ID)
		require.NoError(t, err)
		require.Len(t, stored.DonorResponses, 1)
		assert.Equal(t, models.ResponseAccepted, stored.DonorResponses[0].Response)
		assert.True(t, stored.DonorResponses[0].ContactShared)
		assert.Equal(t, models.StatusActive, stored.Status, "accepting must not auto-complete the request")

		visible, err := f.notifications.ListByUser(ctx, d.ID)
		require.NoError(t, err)
		byType := map[notification.Type]int{}
		for _, n := range visible {
			byType[n.Type]++
		}
		assert.Zero(t, byType[notification.TypeBloodRequest], "the open prompt is deleted on accept")
		assert.Equal(t, 1, byType[notification.TypeDonorAccepted])
		assert.Equal(t, 1, byType[notification.TypeDonationReminder])

		var accepted notification.Notification
		for _, n := range visible {
			if n.Type == notification.TypeDonorAccepted {
				accepted = n
			}
		}
		assert.True(t, accepted.IsGlobal)
		assert.Equal(t, d.Phone, accepted.DonorPhone)
		assert.Equal(t, "on my way", accepted.DonorMessage)

		assert.Contains(t, f.recorder.kinds(), events.KindDonorResponded)
		assert.Contains(t, f.recorder.kinds(), events.KindContactShared)
	})

	t.Run("decline keeps the prompt and shares nothing", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupOPos)
		f := newFixture(t, d)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupOPos, domain.UrgencyNormal))
		require.NoError(t, err)

		result, err := f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseDeclined))
		require.NoError(t, err)
		assert.Equal(t, "Your response has been recorded.", result.Message)
		assert.False(t, result.DonorResponse.ContactShared)

		visible, err := f.notifications.ListByUser(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, notification.TypeBloodRequest, visible[0].Type)
		assert.True(t, visible[0].Responded)
		assert.True(t, visible[0].Read)

		assert.NotContains(t, f.recorder.kinds(), events.KindContactShared)
	})

	t.Run("latest response wins", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupABNeg)
		f := newFixture(t, d)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupABPos, domain.UrgencyUrgent))
		require.NoError(t, err)

		_, err = f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseDeclined))
		require.NoError(t, err)
		_, err = f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)

		stored, err := f.service.GetRequest(ctx, submitted.Request.ID)
		require.NoError(t, err)
		require.Len(t, stored.DonorResponses, 1, "re-responding replaces, never duplicates")
		assert.Equal(t, models.ResponseAccepted, stored.DonorResponses[0].Response)
		assert.True(t, stored.DonorResponses[0].ContactShared)
	})

	t.Run("repeat accept is idempotent on the response set", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupANeg)
		f := newFixture(t, d)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupAPos, domain.UrgencyNormal))
		require.NoError(t, err)

		_, err = f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)
		_, err = f.service.Respond(ctx, respondAs(d.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)

		stored, err := f.service.GetRequest(ctx, submitted.Request.ID)
		require.NoError(t, err)
		assert.Len(t, stored.DonorResponses, 1)
	})

	t.Run("multiple donors may accept the same request", func(t *testing.T) {
		first := activeDonor(domain.BloodGroupONeg)
		second := activeDonor(domain.BloodGroupOPos)
		f := newFixture(t, first, second)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupOPos, domain.UrgencyCritical))
		require.NoError(t, err)

		_, err = f.service.Respond(ctx, respondAs(first.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)
		_, err = f.service.Respond(ctx, respondAs(second.ID, submitted.Request.ID, models.ResponseAccepted))
		require.NoError(t, err)

		stored, err := f.service.GetRequest(ctx, submitted.Request.ID)
		require.NoError(t, err)
		assert.Len(t, stored.DonorResponses, 2)
	})

	t.Run("caller must be the donor", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupAPos)
		f := newFixture(t, d)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupAPos, domain.UrgencyNormal))
		require.NoError(t, err)

		params := respondAs(d.ID, submitted.Request.ID, models.ResponseAccepted)
		params.CallerID = domain.NewUserID()
		_, err = f.service.Respond(ctx, params)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown request and unknown donor", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupAPos)
		f := newFixture(t, d)

		_, err := f.service.Respond(ctx, respondAs(d.ID, domain.NewRequestID(), models.ResponseMaybe))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupAPos, domain.UrgencyNormal))
		require.NoError(t, err)
		stranger := domain.NewUserID()
		_, err = f.service.Respond(ctx, respondAs(stranger, submitted.Request.ID, models.ResponseMaybe))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("invalid response kind", func(t *testing.T) {
		d := activeDonor(domain.BloodGroupAPos)
		f := newFixture(t, d)
		submitted, err := f.service.SubmitRequest(ctx, submitParams(domain.BloodGroupAPos, domain.UrgencyNormal))
		require.NoError(t, err)

		params := respondAs(d.ID, submitted.Request.ID, models.ResponseKind("later"))
		_, err = f.service.Respond(ctx, params)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
