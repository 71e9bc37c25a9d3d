// Package events publishes blood-request lifecycle events for downstream
// consumers (delivery channels, reporting, admin feeds). Publishing is
// best-effort: the request path never fails because Kafka is down.
package events

import (
	"time"

	"hemolink/pkg/domain"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindRequestCreated          Kind = "request_created"
	KindNotificationsDispatched Kind = "notifications_dispatched"
	KindDonorResponded          Kind = "donor_responded"
	KindContactShared           Kind = "contact_shared"
	KindStatusChanged           Kind = "status_changed"
	KindRequestPruned           Kind = "request_pruned"
)

// Event is emitted from domain logic to capture key lifecycle actions.
// Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Kind       Kind              `json:"kind"`
	Timestamp  time.Time         `json:"timestamp"`
	RequestID  domain.RequestID  `json:"request_id"`
	UserID     domain.UserID     `json:"user_id,omitempty"`
	BloodGroup domain.BloodGroup `json:"blood_group,omitempty"`
	Urgency    string            `json:"urgency,omitempty"`
	Response   string            `json:"response,omitempty"`
	Count      int               `json:"count,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}
