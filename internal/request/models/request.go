package models

import (
	"strings"
	"time"

	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// ResponseKind is a donor's answer to a blood request.
type ResponseKind string

const (
	ResponseAccepted ResponseKind = "accepted"
	ResponseDeclined ResponseKind = "declined"
	ResponseMaybe    ResponseKind = "maybe"
)

var validResponses = map[ResponseKind]bool{
	ResponseAccepted: true,
	ResponseDeclined: true,
	ResponseMaybe:    true,
}

// ParseResponseKind constructs a ResponseKind from external input.
func ParseResponseKind(s string) (ResponseKind, error) {
	k := ResponseKind(s)
	if !validResponses[k] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid response %q", s)
	}
	return k, nil
}

// IsValid checks if the response kind is one of the supported values.
func (k ResponseKind) IsValid() bool {
	return validResponses[k]
}

// String returns the string representation of the response kind.
func (k ResponseKind) String() string {
	return string(k)
}

// DonorResponse is a donor's reply embedded in the owning BloodRequest.
// Upserted by donor id; the latest reply wins. ContactShared is derived:
// true iff the response is accepted.
type DonorResponse struct {
	DonorID         domain.UserID     `json:"donor_id"`
	DonorName       string            `json:"donor_name"`
	DonorEmail      string            `json:"donor_email"`
	DonorPhone      string            `json:"donor_phone"`
	DonorBloodGroup domain.BloodGroup `json:"donor_blood_group"`
	Response        ResponseKind      `json:"response"`
	Message         string            `json:"message"`
	ContactShared   bool              `json:"contact_shared"`
	RespondedAt     time.Time         `json:"responded_at"`
}

// BloodRequest is the aggregate root of the request/response lifecycle.
//
// Invariants:
//   - BloodGroup is one of the eight valid groups
//   - UnitsRequired >= 1
//   - Fulfilled == true implies Status == completed
//   - DonorResponses holds at most one entry per donor id
//   - Status transitions: active -> {completed, cancelled, rejected} only
//
// Accepting is additive, not exclusive: several donors may accept the same
// request. Fulfillment is an explicit admin action, never a side effect of
// a donor response, because the requester may need more than one unit.
type BloodRequest struct {
	ID             domain.RequestID    `json:"id"`
	RequesterID    *domain.UserID      `json:"requester_id,omitempty"`
	PatientName    string              `json:"patient_name"`
	BloodGroup     domain.BloodGroup   `json:"blood_group"`
	UnitsRequired  int                 `json:"units_required"`
	UrgencyLevel   domain.UrgencyLevel `json:"urgency_level"`
	HospitalName   string              `json:"hospital_name"`
	ContactPerson  string              `json:"contact_person"`
	ContactPhone   string              `json:"contact_phone"`
	ContactEmail   string              `json:"contact_email"`
	MedicalReason  string              `json:"medical_reason,omitempty"`
	Status         RequestStatus       `json:"status"`
	Fulfilled      bool                `json:"fulfilled"`
	DonorResponses []DonorResponse     `json:"donor_responses"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewBloodRequest constructs an active, unfulfilled request and validates
// invariants. requesterID is nil for anonymous/public submissions.
func NewBloodRequest(
	id domain.RequestID,
	requesterID *domain.UserID,
	patientName string,
	bloodGroup domain.BloodGroup,
	unitsRequired int,
	urgency domain.UrgencyLevel,
	hospitalName, contactPerson, contactPhone, contactEmail, medicalReason string,
	now time.Time,
) (*BloodRequest, error) {
	patientName = strings.TrimSpace(patientName)
	if patientName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient name cannot be empty")
	}
	if !bloodGroup.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid blood group %q", bloodGroup.String())
	}
	if unitsRequired < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "units required must be at least 1")
	}
	if !urgency.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid urgency level %q", urgency.String())
	}
	if strings.TrimSpace(hospitalName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "hospital name cannot be empty")
	}

	return &BloodRequest{
		ID:            id,
		RequesterID:   requesterID,
		PatientName:   patientName,
		BloodGroup:    bloodGroup,
		UnitsRequired: unitsRequired,
		UrgencyLevel:  urgency,
		HospitalName:  strings.TrimSpace(hospitalName),
		ContactPerson: strings.TrimSpace(contactPerson),
		ContactPhone:  strings.TrimSpace(contactPhone),
		ContactEmail:  strings.TrimSpace(contactEmail),
		MedicalReason: strings.TrimSpace(medicalReason),
		Status:        StatusActive,
		Fulfilled:     false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanTransition checks whether the request may move to next.
func (r *BloodRequest) CanTransition(next RequestStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot transition request from %s to %s", r.Status, next)
	}
	return nil
}

// ApplyStatus transitions the request and keeps the fulfilled invariant:
// a request may only be marked fulfilled when completing.
// Call CanTransition first to validate the transition.
func (r *BloodRequest) ApplyStatus(next RequestStatus, fulfilled bool, now time.Time) error {
	if fulfilled && next != StatusCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "only completed requests can be fulfilled")
	}
	r.Status = next
	r.Fulfilled = fulfilled
	r.UpdatedAt = now
	return nil
}

// ResponseFor returns the donor's current response, if any.
func (r *BloodRequest) ResponseFor(donorID domain.UserID) (DonorResponse, bool) {
	for _, resp := range r.DonorResponses {
		if resp.DonorID == donorID {
			return resp, true
		}
	}
	return DonorResponse{}, false
}

// UpsertResponse replaces any existing entry for the donor, else appends.
// Keeps the one-entry-per-donor invariant.
func (r *BloodRequest) UpsertResponse(resp DonorResponse, now time.Time) {
	for i, existing := range r.DonorResponses {
		if existing.DonorID == resp.DonorID {
			r.DonorResponses[i] = resp
			r.UpdatedAt = now
			return
		}
	}
	r.DonorResponses = append(r.DonorResponses, resp)
	r.UpdatedAt = now
}

// StaleAndTerminal reports whether the request is old enough and settled
// enough for housekeeping to delete it. Cancelled requests are retained:
// only completed and rejected requests age out.
func (r *BloodRequest) StaleAndTerminal(now time.Time, maxAge time.Duration) bool {
	if r.Status != StatusCompleted && r.Status != StatusRejected {
		return false
	}
	return r.CreatedAt.Before(now.Add(-maxAge))
}
