package domain

import dErrors "hemolink/pkg/domain-errors"

// UrgencyLevel expresses how quickly a blood request needs a donor.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyUrgent   UrgencyLevel = "urgent"
	UrgencyNormal   UrgencyLevel = "normal"
)

// urgencyWeights orders urgency for compatibility scoring. Higher weight
// means a more desirable match under time pressure.
var urgencyWeights = map[UrgencyLevel]int{
	UrgencyCritical: 3,
	UrgencyUrgent:   2,
	UrgencyNormal:   1,
}

// ParseUrgencyLevel constructs an UrgencyLevel from external input.
// An empty value defaults to normal; invalid values fail with CodeInvalidInput.
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	if s == "" {
		return UrgencyNormal, nil
	}
	u := UrgencyLevel(s)
	if !u.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid urgency level %q", s)
	}
	return u, nil
}

// IsValid checks if the urgency level is one of the supported values.
func (u UrgencyLevel) IsValid() bool {
	_, ok := urgencyWeights[u]
	return ok
}

// Weight returns the scoring multiplier for the urgency level. Unknown
// levels weigh the same as normal so scoring never errors mid-sort.
func (u UrgencyLevel) Weight() int {
	if w, ok := urgencyWeights[u]; ok {
		return w
	}
	return urgencyWeights[UrgencyNormal]
}

// String returns the string representation of the urgency level.
func (u UrgencyLevel) String() string {
	return string(u)
}
