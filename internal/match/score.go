package match

import (
	"sort"

	"hemolink/internal/donor"
	"hemolink/pkg/domain"
)

// Score ranks how desirable a donor is for a recipient under the given
// urgency. Incompatible pairs score zero. Compatible pairs start at 1,
// +2 for an exact group match, +1 when an O- donor answers a critical
// request, all multiplied by the urgency weight. The result totally orders
// willing donors: exact match, universal-donor-in-emergency, and urgency
// each raise rank.
func Score(d, recipient domain.BloodGroup, urgency domain.UrgencyLevel) int {
	if !IsCompatible(d, recipient) {
		return 0
	}
	score := 1
	if d == recipient {
		score += 2
	}
	if d == domain.BloodGroupONeg && urgency == domain.UrgencyCritical {
		score++
	}
	return score * urgency.Weight()
}

// RankedDonor pairs a donor with their computed score.
type RankedDonor struct {
	Donor donor.Donor
	Score int
}

// SortDonors filters out incompatible donors and orders the rest by
// descending score. The sort is stable: ties keep input order.
func SortDonors(donors []donor.Donor, recipient domain.BloodGroup, urgency domain.UrgencyLevel) []RankedDonor {
	ranked := make([]RankedDonor, 0, len(donors))
	for _, d := range donors {
		s := Score(d.BloodGroup, recipient, urgency)
		if s == 0 {
			continue
		}
		ranked = append(ranked, RankedDonor{Donor: d, Score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
