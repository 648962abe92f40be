package scoring

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

// BonusTier maps an ownership percentage threshold to an additive bonus.
type BonusTier struct {
	// MinOwnership is the inclusive ownership percentage threshold.
	MinOwnership float64 `yaml:"min_ownership" json:"min_ownership" validate:"min=0,max=100"`

	// Bonus is the points awarded at or above the threshold.
	Bonus float64 `yaml:"bonus" json:"bonus" validate:"min=0,max=100"`
}

// BonusConfig defines the configuration parameters for the
// PreferenceBonusCalculator.
type BonusConfig struct {
	// Tiers is the progressive ownership ladder, evaluated from the
	// highest threshold down. The first tier whose threshold the
	// snapshot meets wins.
	Tiers []BonusTier `yaml:"tiers" json:"tiers" validate:"required,min=1,dive"`

	// RequirementBonus is awarded when ownership meets the requirement's
	// own minimum but no ladder tier.
	RequirementBonus float64 `yaml:"requirement_bonus" json:"requirement_bonus" validate:"min=0,max=100"`

	// Factor caps for the rich preference-factor variant. Each factor
	// contributes independently up to its cap; contributions are summed
	// before the final-score ceiling.
	OwnershipCap   float64 `yaml:"ownership_cap" json:"ownership_cap" validate:"min=0,max=100"`
	AffiliationCap float64 `yaml:"affiliation_cap" json:"affiliation_cap" validate:"min=0,max=100"`
	ProximityCap   float64 `yaml:"proximity_cap" json:"proximity_cap" validate:"min=0,max=100"`
	EndorsementCap float64 `yaml:"endorsement_cap" json:"endorsement_cap" validate:"min=0,max=100"`
	AlignmentCap   float64 `yaml:"alignment_cap" json:"alignment_cap" validate:"min=0,max=100"`

	// ProximityRadiusKM is the distance at which proximity credit
	// reaches zero. Full credit at distance zero, linear falloff.
	ProximityRadiusKM float64 `yaml:"proximity_radius_km" json:"proximity_radius_km" validate:"gt=0"`

	// FullEndorsements is the endorsement count earning the full
	// endorsement cap; smaller counts earn a proportional share.
	FullEndorsements int `yaml:"full_endorsements" json:"full_endorsements" validate:"min=1"`
}

// DefaultBonusConfig returns the domain-standard tiers: full ownership 15,
// then 10/7/5 at 75/51/33 percent, 3 at the requirement minimum, and the
// 40/20/20/10/10 factor caps.
func DefaultBonusConfig() BonusConfig {
	return BonusConfig{
		Tiers: []BonusTier{
			{MinOwnership: 100, Bonus: 15},
			{MinOwnership: 75, Bonus: 10},
			{MinOwnership: 51, Bonus: 7},
			{MinOwnership: 33, Bonus: 5},
		},
		RequirementBonus:  3,
		OwnershipCap:      40,
		AffiliationCap:    20,
		ProximityCap:      20,
		EndorsementCap:    10,
		AlignmentCap:      10,
		ProximityRadiusKM: 100,
		FullEndorsements:  3,
	}
}

// FactorBreakdown itemizes the rich preference-factor variant. Factors are
// independent and order-insensitive; Total is their sum before the
// final-score ceiling.
type FactorBreakdown struct {
	Ownership   float64 `json:"ownership"`
	Affiliation float64 `json:"affiliation"`
	Proximity   float64 `json:"proximity"`
	Endorsement float64 `json:"endorsement"`
	Alignment   float64 `json:"alignment"`
	Total       float64 `json:"total"`
}

// PreferenceBonusCalculator computes additive bonuses from a submission's
// eligibility snapshot and composes them with the base score under a hard
// ceiling of 100, so a bonus can never push apparent quality above the
// theoretical maximum and comparability with non-eligible submissions is
// preserved.
type PreferenceBonusCalculator struct {
	name   string
	config BonusConfig
}

// NewPreferenceBonusCalculator creates a calculator with the given
// configuration. Tiers are sorted by descending threshold so lookup order
// does not depend on authoring order.
func NewPreferenceBonusCalculator(name string, config BonusConfig) (*PreferenceBonusCalculator, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	sorted := make([]BonusTier, len(config.Tiers))
	copy(sorted, config.Tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinOwnership > sorted[j].MinOwnership })
	config.Tiers = sorted
	return &PreferenceBonusCalculator{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (pbc *PreferenceBonusCalculator) Name() string { return pbc.name }

// Bonus computes the progressive ownership-tier bonus for a submission.
// A submission that does not meet the base eligibility category gets 0
// regardless of ownership.
func (pbc *PreferenceBonusCalculator) Bonus(snapshot domain.EligibilitySnapshot) float64 {
	if !snapshot.Eligible {
		return 0
	}
	for _, tier := range pbc.config.Tiers {
		if snapshot.OwnershipPercent >= tier.MinOwnership {
			return tier.Bonus
		}
	}
	if snapshot.RequiredOwnershipPercent > 0 &&
		snapshot.OwnershipPercent >= snapshot.RequiredOwnershipPercent {
		return pbc.config.RequirementBonus
	}
	return 0
}

// FactorBonus computes the rich preference-factor variant: ownership,
// affiliation, proximity, endorsement, and alignment each contribute
// independently up to their configured caps. It returns a
// domain.ValidationError when the alignment score falls outside [0, 1].
func (pbc *PreferenceBonusCalculator) FactorBonus(snapshot domain.EligibilitySnapshot) (FactorBreakdown, error) {
	if snapshot.AlignmentScore < 0 || snapshot.AlignmentScore > 1 {
		verr := domain.NewValidationError("eligibility snapshot")
		verr.AddError(fmt.Sprintf("alignment score %g outside [0,1]", snapshot.AlignmentScore))
		return FactorBreakdown{}, verr
	}
	if !snapshot.Eligible {
		return FactorBreakdown{}, nil
	}

	var fb FactorBreakdown
	fb.Ownership = clampFactor(snapshot.OwnershipPercent/100, pbc.config.OwnershipCap)
	if snapshot.RequiredAffiliationID != "" && snapshot.AffiliationID == snapshot.RequiredAffiliationID {
		fb.Affiliation = pbc.config.AffiliationCap
	}
	fb.Proximity = clampFactor(1-snapshot.DistanceKM/pbc.config.ProximityRadiusKM, pbc.config.ProximityCap)
	fb.Endorsement = clampFactor(float64(snapshot.Endorsements)/float64(pbc.config.FullEndorsements), pbc.config.EndorsementCap)
	fb.Alignment = snapshot.AlignmentScore * pbc.config.AlignmentCap
	fb.Total = fb.Ownership + fb.Affiliation + fb.Proximity + fb.Endorsement + fb.Alignment
	return fb, nil
}

// Apply composes a base score with a bonus under the 100-point ceiling.
func (pbc *PreferenceBonusCalculator) Apply(baseScore, bonus float64) float64 {
	final := baseScore + bonus
	if final > 100 {
		return 100
	}
	return final
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (pbc *PreferenceBonusCalculator) Validate() error {
	if err := validate.Struct(pbc.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// updates the unit's configuration. Not safe for concurrent use with the
// computation methods.
func (pbc *PreferenceBonusCalculator) UnmarshalParameters(params yaml.Node) error {
	config := DefaultBonusConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	sort.Slice(config.Tiers, func(i, j int) bool { return config.Tiers[i].MinOwnership > config.Tiers[j].MinOwnership })
	pbc.config = config
	return nil
}

// clampFactor scales a 0-1 share onto a factor cap, bounding the share
// into [0, 1] first so out-of-range inputs cannot exceed the cap.
func clampFactor(share, limit float64) float64 {
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}
	return share * limit
}
