package scoring

import "github.com/procurelane/evalengine/internal/domain"

// EffectiveWeight computes the weight of a criterion after applying the
// community's category override. An override factor is a percentage
// multiplier: 100 leaves the base weight unchanged, 150 inflates it by
// half, 0 removes the category from consideration.
//
// No clamping is applied. An override can push a category's effective
// weight past its authored value, inflating its share of the aggregate;
// whether that is sane is the caller's concern, and the config loader
// warns about factor totals rather than rejecting them.
func EffectiveWeight(criterion domain.Criterion, overrides domain.WeightOverrides) float64 {
	if overrides == nil {
		return criterion.Weight
	}
	factor, ok := overrides[criterion.Category]
	if !ok {
		return criterion.Weight
	}
	return criterion.Weight * factor / 100
}
