// Package notification models the records fanned out to donors and back to
// requesters. Notifications reference a blood request by id only; deleting
// a notification never touches the request.
package notification

import (
	"time"

	"hemolink/pkg/domain"
)

// Type distinguishes the three notification kinds the lifecycle produces.
type Type string

const (
	// TypeBloodRequest is the open prompt sent to each compatible donor.
	TypeBloodRequest Type = "blood_request"
	// TypeDonorAccepted carries a donor's contact details to the requester
	// side. It is the only channel contact information crosses on.
	TypeDonorAccepted Type = "donor_accepted"
	// TypeDonationReminder summarizes where and when the accepting donor
	// should show up.
	TypeDonationReminder Type = "donation_reminder"
)

// Notification is an individually addressed record. IsGlobal notifications
// have no UserID and are visible to the admin surface.
type Notification struct {
	ID             domain.NotificationID `json:"id"`
	UserID         domain.UserID         `json:"user_id,omitempty"`
	IsGlobal       bool                  `json:"is_global"`
	Type           Type                  `json:"type"`
	BloodRequestID domain.RequestID      `json:"blood_request_id"`
	Message        string                `json:"message"`

	// Payload context rendered into Message and kept structured for
	// downstream consumers.
	PatientName    string              `json:"patient_name,omitempty"`
	RecipientGroup domain.BloodGroup   `json:"recipient_blood_group,omitempty"`
	DonorGroup     domain.BloodGroup   `json:"donor_blood_group,omitempty"`
	UrgencyLevel   domain.UrgencyLevel `json:"urgency_level,omitempty"`
	HospitalName   string              `json:"hospital_name,omitempty"`
	UnitsRequired  int                 `json:"units_required,omitempty"`
	DonorName      string              `json:"donor_name,omitempty"`
	DonorEmail     string              `json:"donor_email,omitempty"`
	DonorPhone     string              `json:"donor_phone,omitempty"`
	DonorMessage   string              `json:"donor_message,omitempty"`
	ContactPerson  string              `json:"contact_person,omitempty"`

	Read      bool      `json:"read"`
	Responded bool      `json:"responded"`
	CreatedAt time.Time `json:"created_at"`
}
