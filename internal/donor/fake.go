package donor

import (
	"context"
	"sync"

	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// FakeDirectory is an in-memory Directory for tests and local wiring. It
// applies the same eligibility filtering as the production adapter so test
// behavior matches what the core observes in deployment.
type FakeDirectory struct {
	mu     sync.RWMutex
	donors map[domain.UserID]Donor
}

func NewFakeDirectory(donors ...Donor) *FakeDirectory {
	d := &FakeDirectory{donors: make(map[domain.UserID]Donor, len(donors))}
	for _, donor := range donors {
		d.donors[donor.ID] = donor
	}
	return d
}

// Add inserts or replaces a donor record.
func (d *FakeDirectory) Add(donor Donor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.donors[donor.ID] = donor
}

func (d *FakeDirectory) FindActiveEligibleDonors(_ context.Context, groups []domain.BloodGroup) ([]Donor, error) {
	wanted := make(map[domain.BloodGroup]bool, len(groups))
	for _, g := range groups {
		wanted[g] = true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Donor
	for _, donor := range d.donors {
		if donor.Eligible() && wanted[donor.BloodGroup] {
			out = append(out, donor)
		}
	}
	return out, nil
}

func (d *FakeDirectory) GetByID(_ context.Context, id domain.UserID) (Donor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	donor, ok := d.donors[id]
	if !ok {
		return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	return donor, nil
}
