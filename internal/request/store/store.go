// Package store persists BloodRequest aggregates. Implementations must
// guarantee atomic per-donor upsert of the embedded response list so
// concurrent responses from different donors never clobber each other.
package store

import (
	"errors"

	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
)

// ErrNotFound keeps storage-specific 404s consistent across the in-memory
// and PostgreSQL implementations.
var ErrNotFound = errors.New("blood request not found")

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Status     models.RequestStatus
	BloodGroup domain.BloodGroup
	Urgency    domain.UrgencyLevel
	Limit      int
}

// Matches reports whether the request passes the filter.
func (f Filter) Matches(r *models.BloodRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.BloodGroup != "" && r.BloodGroup != f.BloodGroup {
		return false
	}
	if f.Urgency != "" && r.UrgencyLevel != f.Urgency {
		return false
	}
	return true
}
