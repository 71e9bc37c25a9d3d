package domain

import "github.com/google/uuid"

// Typed IDs keep aggregates from being cross-wired. They wrap uuid.UUID so
// zero values are detectable via IsNil.

// UserID identifies a registered user (donor or requester).
type UserID uuid.UUID

// RequestID identifies a blood request aggregate.
type RequestID uuid.UUID

// NotificationID identifies a notification record.
type NotificationID uuid.UUID

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewRequestID() RequestID           { return RequestID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// ParseUserID parses a user id from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseRequestID parses a request id from its string form.
func ParseRequestID(s string) (RequestID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// ParseNotificationID parses a notification id from its string form.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(u), nil
}

// MarshalText implementations keep typed ids JSON-friendly as their
// canonical UUID strings.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = NotificationID(parsed)
	return nil
}
