package notification

import (
	"fmt"
	"time"

	"hemolink/internal/donor"
	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
)

// callToAction returns the urgency-specific closing line of a donor prompt.
func callToAction(urgency domain.UrgencyLevel) string {
	switch urgency {
	case domain.UrgencyCritical:
		return "CRITICAL: Immediate response needed!"
	case domain.UrgencyUrgent:
		return "URGENT: Response needed within 24-48 hours"
	default:
		return "Your donation could save a life!"
	}
}

// NewBloodRequestPrompt builds the blood_request notification addressed to
// one compatible donor.
func NewBloodRequestPrompt(req *models.BloodRequest, d donor.Donor, now time.Time) Notification {
	message := fmt.Sprintf(
		"%s needs %d unit(s) of %s blood at %s. Your blood group %s is compatible. %s",
		req.PatientName, req.UnitsRequired, req.BloodGroup, req.HospitalName,
		d.BloodGroup, callToAction(req.UrgencyLevel),
	)
	return Notification{
		ID:             domain.NewNotificationID(),
		UserID:         d.ID,
		Type:           TypeBloodRequest,
		BloodRequestID: req.ID,
		Message:        message,
		PatientName:    req.PatientName,
		RecipientGroup: req.BloodGroup,
		DonorGroup:     d.BloodGroup,
		UrgencyLevel:   req.UrgencyLevel,
		HospitalName:   req.HospitalName,
		UnitsRequired:  req.UnitsRequired,
		CreatedAt:      now,
	}
}

// NewDonorAccepted builds the global notification that carries the donor's
// contact details across to the requester side.
func NewDonorAccepted(req *models.BloodRequest, d donor.Donor, donorMessage string, now time.Time) Notification {
	message := fmt.Sprintf(
		"%s (%s) accepted the %s blood request for %s at %s. Contact: %s / %s",
		d.DisplayName(), d.BloodGroup, req.BloodGroup, req.PatientName, req.HospitalName,
		d.Email, d.Phone,
	)
	return Notification{
		ID:             domain.NewNotificationID(),
		IsGlobal:       true,
		Type:           TypeDonorAccepted,
		BloodRequestID: req.ID,
		Message:        message,
		PatientName:    req.PatientName,
		RecipientGroup: req.BloodGroup,
		DonorGroup:     d.BloodGroup,
		UrgencyLevel:   req.UrgencyLevel,
		HospitalName:   req.HospitalName,
		UnitsRequired:  req.UnitsRequired,
		DonorName:      d.DisplayName(),
		DonorEmail:     d.Email,
		DonorPhone:     d.Phone,
		DonorMessage:   donorMessage,
		CreatedAt:      now,
	}
}

// NewDonationReminder builds the reminder addressed back to the accepting
// donor, reinforcing the commitment.
func NewDonationReminder(req *models.BloodRequest, d donor.Donor, now time.Time) Notification {
	message := fmt.Sprintf(
		"Thank you for accepting! Please donate %d unit(s) at %s (%s urgency). Ask for %s.",
		req.UnitsRequired, req.HospitalName, req.UrgencyLevel, req.ContactPerson,
	)
	return Notification{
		ID:             domain.NewNotificationID(),
		UserID:         d.ID,
		Type:           TypeDonationReminder,
		BloodRequestID: req.ID,
		Message:        message,
		PatientName:    req.PatientName,
		RecipientGroup: req.BloodGroup,
		DonorGroup:     d.BloodGroup,
		UrgencyLevel:   req.UrgencyLevel,
		HospitalName:   req.HospitalName,
		UnitsRequired:  req.UnitsRequired,
		ContactPerson:  req.ContactPerson,
		CreatedAt:      now,
	}
}
