package domain

import dErrors "hemolink/pkg/domain-errors"

// BloodGroup is one of the eight ABO/Rh combinations.
// Invariant: the value must be one of the supported groups.
//
// Usage: construct via ParseBloodGroup at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// validBloodGroups is the single source of truth for valid groups.
var validBloodGroups = map[BloodGroup]bool{
	BloodGroupAPos:  true,
	BloodGroupANeg:  true,
	BloodGroupBPos:  true,
	BloodGroupBNeg:  true,
	BloodGroupABPos: true,
	BloodGroupABNeg: true,
	BloodGroupOPos:  true,
	BloodGroupONeg:  true,
}

// AllBloodGroups returns the eight groups in a stable order.
func AllBloodGroups() []BloodGroup {
	return []BloodGroup{
		BloodGroupAPos, BloodGroupANeg,
		BloodGroupBPos, BloodGroupBNeg,
		BloodGroupABPos, BloodGroupABNeg,
		BloodGroupOPos, BloodGroupONeg,
	}
}

// ParseBloodGroup constructs a BloodGroup from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not one of the
// eight groups; no other errors are expected.
func ParseBloodGroup(s string) (BloodGroup, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood group cannot be empty")
	}
	g := BloodGroup(s)
	if !g.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid blood group %q", s)
	}
	return g, nil
}

// IsValid checks if the blood group is one of the eight supported values.
func (g BloodGroup) IsValid() bool {
	return validBloodGroups[g]
}

// String returns the string representation of the blood group.
func (g BloodGroup) String() string {
	return string(g)
}
