// Package donor defines the read-side view of registered donors. The
// directory is an external collaborator; this service only queries it.
package donor

import (
	"context"
	"strings"

	"hemolink/pkg/domain"
	"hemolink/pkg/email"
)

// Donor is the subset of a user profile relevant to matching. Records are
// normalized at the directory adapter boundary: BloodGroup is always a
// valid group and contact fields are plain strings (empty when absent).
type Donor struct {
	ID         domain.UserID     `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	BloodGroup domain.BloodGroup `json:"blood_group"`
	IsActive   bool              `json:"is_active"`
	CanDonate  bool              `json:"can_donate"`
}

// Eligible reports whether the donor may be asked to donate.
func (d Donor) Eligible() bool {
	return d.IsActive && d.CanDonate && d.BloodGroup.IsValid()
}

// DisplayName returns the profile name, falling back to a name derived
// from the email address when the profile never set one.
func (d Donor) DisplayName() string {
	if strings.TrimSpace(d.Name) != "" {
		return d.Name
	}
	return email.DisplayName(d.Email)
}

// Directory is the query interface the core requires from the user store.
//
// FindActiveEligibleDonors returns donors whose blood group is in groups,
// who are active, and who have not disabled donation. Implementations may
// return donors matching the caller's own id; self-exclusion is enforced by
// the dispatcher, not here.
type Directory interface {
	FindActiveEligibleDonors(ctx context.Context, groups []domain.BloodGroup) ([]Donor, error)
	GetByID(ctx context.Context, id domain.UserID) (Donor, error)
}
