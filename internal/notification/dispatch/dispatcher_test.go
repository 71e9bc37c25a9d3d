package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/internal/donor"
	"hemolink/internal/notification"
	notifstore "hemolink/internal/notification/store"
	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

func newDonor(g domain.BloodGroup) donor.Donor {
	return donor.Donor{
		ID:         domain.NewUserID(),
		Name:       "Donor " + g.String(),
		Email:      "donor@example.com",
		Phone:      "555-0101",
		BloodGroup: g,
		IsActive:   true,
		CanDonate:  true,
	}
}

func newRequest(t *testing.T, g domain.BloodGroup, requesterID *domain.UserID) *models.BloodRequest {
	t.Helper()
	req, err := models.NewBloodRequest(
		domain.NewRequestID(), requesterID, "Patient", g, 2, domain.UrgencyCritical,
		"City General", "Dr. Mills", "555-0100", "icu@example.com", "", time.Now())
	require.NoError(t, err)
	return req
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies only compatible donors", func(t *testing.T) {
		oneg := newDonor(domain.BloodGroupONeg)
		bpos := newDonor(domain.BloodGroupBPos)
		apos := newDonor(domain.BloodGroupAPos)
		directory := donor.NewFakeDirectory(oneg, bpos, apos)
		notifications := notifstore.NewInMemory()

		d := New(directory, notifications)
		result, err := d.Dispatch(ctx, newRequest(t, domain.BloodGroupAPos, nil))
		require.NoError(t, err)

		assert.Equal(t, 2, result.CompatibleDonors)
		assert.Equal(t, 2, result.NotificationsSent)

		recipients, err := notifications.PromptRecipients(ctx, domain.RequestID{})
		require.NoError(t, err)
		assert.Empty(t, recipients, "prompts are keyed to the dispatched request")
	})

	t.Run("prompt carries the rendered message and payload", func(t *testing.T) {
		d := newDonor(domain.BloodGroupONeg)
		directory := donor.NewFakeDirectory(d)
		notifications := notifstore.NewInMemory()

		req := newRequest(t, domain.BloodGroupAPos, nil)
		_, err := New(directory, notifications).Dispatch(ctx, req)
		require.NoError(t, err)

		got, err := notifications.ListByUser(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		prompt := got[0]
		assert.Equal(t, notification.TypeBloodRequest, prompt.Type)
		assert.Equal(t, req.ID, prompt.BloodRequestID)
		assert.False(t, prompt.Read)
		assert.False(t, prompt.Responded)
		assert.Contains(t, prompt.Message, "CRITICAL: Immediate response needed!")
		assert.Contains(t, prompt.Message, "City General")
		assert.Equal(t, domain.BloodGroupONeg, prompt.DonorGroup)
	})

	t.Run("excludes the requester even when compatible", func(t *testing.T) {
		self := newDonor(domain.BloodGroupONeg)
		other := newDonor(domain.BloodGroupAPos)
		directory := donor.NewFakeDirectory(self, other)
		notifications := notifstore.NewInMemory()

		req := newRequest(t, domain.BloodGroupAPos, &self.ID)
		result, err := New(directory, notifications).Dispatch(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, 1, result.CompatibleDonors)
		assert.Equal(t, 1, result.NotificationsSent)

		own, err := notifications.ListByUser(ctx, self.ID)
		require.NoError(t, err)
		assert.Empty(t, own, "requester must not be prompted for their own request")
	})

	t.Run("retried dispatch skips donors with live prompts", func(t *testing.T) {
		a := newDonor(domain.BloodGroupAPos)
		directory := donor.NewFakeDirectory(a)
		notifications := notifstore.NewInMemory()
		d := New(directory, notifications)

		req := newRequest(t, domain.BloodGroupAPos, nil)
		first, err := d.Dispatch(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, first.NotificationsSent)

		directory.Add(newDonor(domain.BloodGroupONeg))
		second, err := d.Dispatch(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, second.CompatibleDonors)
		assert.Equal(t, 1, second.NotificationsSent, "only the new donor is prompted")

		existing, err := notifications.ListByUser(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, existing, 1, "no duplicate prompt for the same donor")
	})

	t.Run("invalid blood group fails fast with no side effects", func(t *testing.T) {
		notifications := notifstore.NewInMemory()
		req := newRequest(t, domain.BloodGroupAPos, nil)
		req.BloodGroup = domain.BloodGroup("X+")

		_, err := New(donor.NewFakeDirectory(), notifications).Dispatch(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("batch failure is reported as retryable", func(t *testing.T) {
		directory := donor.NewFakeDirectory(newDonor(domain.BloodGroupONeg))
		notifications := notifstore.NewInMemory()
		notifications.FailCreates(true)

		result, err := New(directory, notifications).Dispatch(ctx, newRequest(t, domain.BloodGroupABPos, nil))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDispatchPartial))
		assert.Equal(t, 1, result.CompatibleDonors)
		assert.Zero(t, result.NotificationsSent)
	})

	t.Run("no compatible donors is a clean zero", func(t *testing.T) {
		directory := donor.NewFakeDirectory(newDonor(domain.BloodGroupABPos))
		notifications := notifstore.NewInMemory()

		result, err := New(directory, notifications).Dispatch(ctx, newRequest(t, domain.BloodGroupONeg, nil))
		require.NoError(t, err)
		assert.Zero(t, result.CompatibleDonors)
		assert.Zero(t, result.NotificationsSent)
	})
}
