// Package match encodes donor/recipient blood-group compatibility and the
// scoring used to rank willing donors. The table is fixed at compile time;
// nothing in this package mutates state.
package match

import (
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// compatibleDonors maps recipient group -> groups that may donate to it,
// per standard transfusion rules.
//
// Invariants:
//   - O- appears in every recipient's donor set (universal donor)
//   - AB+ may receive from all eight groups (universal recipient)
//   - O- may receive from O- only
var compatibleDonors = map[domain.BloodGroup][]domain.BloodGroup{
	domain.BloodGroupAPos:  {domain.BloodGroupAPos, domain.BloodGroupANeg, domain.BloodGroupOPos, domain.BloodGroupONeg},
	domain.BloodGroupANeg:  {domain.BloodGroupANeg, domain.BloodGroupONeg},
	domain.BloodGroupBPos:  {domain.BloodGroupBPos, domain.BloodGroupBNeg, domain.BloodGroupOPos, domain.BloodGroupONeg},
	domain.BloodGroupBNeg:  {domain.BloodGroupBNeg, domain.BloodGroupONeg},
	domain.BloodGroupABPos: {domain.BloodGroupAPos, domain.BloodGroupANeg, domain.BloodGroupBPos, domain.BloodGroupBNeg, domain.BloodGroupABPos, domain.BloodGroupABNeg, domain.BloodGroupOPos, domain.BloodGroupONeg},
	domain.BloodGroupABNeg: {domain.BloodGroupANeg, domain.BloodGroupBNeg, domain.BloodGroupABNeg, domain.BloodGroupONeg},
	domain.BloodGroupOPos:  {domain.BloodGroupOPos, domain.BloodGroupONeg},
	domain.BloodGroupONeg:  {domain.BloodGroupONeg},
}

// CompatibleDonorGroups returns the set of groups that may donate to the
// recipient.
//
// Errors: CodeInvalidInput when recipient is not one of the eight groups.
func CompatibleDonorGroups(recipient domain.BloodGroup) ([]domain.BloodGroup, error) {
	donors, ok := compatibleDonors[recipient]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid blood group %q", recipient.String())
	}
	out := make([]domain.BloodGroup, len(donors))
	copy(out, donors)
	return out, nil
}

// IsCompatible reports whether donor blood may be transfused into recipient.
// Unknown groups read as not compatible rather than erroring; callers that
// need the distinction validate via CompatibleDonorGroups first.
func IsCompatible(donor, recipient domain.BloodGroup) bool {
	for _, g := range compatibleDonors[recipient] {
		if g == donor {
			return true
		}
	}
	return false
}
