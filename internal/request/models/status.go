package models

import dErrors "hemolink/pkg/domain-errors"

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

const (
	StatusActive    RequestStatus = "active"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
	StatusRejected  RequestStatus = "rejected"
)

// validStatuses is the single source of truth for valid statuses.
var validStatuses = map[RequestStatus]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusRejected:  true,
}

// ParseRequestStatus constructs a RequestStatus from external input.
func ParseRequestStatus(s string) (RequestStatus, error) {
	status := RequestStatus(s)
	if !validStatuses[status] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid request status %q", s)
	}
	return status, nil
}

// IsValid checks if the status is one of the supported values.
func (s RequestStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether no further transition may occur. Terminal
// status gates housekeeping: only terminal requests are ever auto-deleted.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// CanTransitionTo enforces the state machine: active may move to any
// terminal status; terminal statuses never move again.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if !validStatuses[next] {
		return false
	}
	return s == StatusActive && next != StatusActive
}

// String returns the string representation of the status.
func (s RequestStatus) String() string {
	return string(s)
}
