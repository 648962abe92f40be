// Package domain contains pure, dependency-free domain models and types
// for the bid evaluation scoring engine.
package domain

// Category classifies a criterion into one of the recognized evaluation
// dimensions. The set is closed: configuration referencing an unknown
// category is rejected at load time rather than silently ignored.
type Category string

// Recognized criterion categories.
const (
	// CategoryPrice covers cost and pricing criteria.
	CategoryPrice Category = "price"

	// CategoryTechnical covers technical merit and solution quality.
	CategoryTechnical Category = "technical"

	// CategoryExperience covers vendor track record and references.
	CategoryExperience Category = "experience"

	// CategoryCommunityContent covers local or community participation
	// requirements attached to the procurement.
	CategoryCommunityContent Category = "community_content"

	// CategorySustainability covers environmental and social criteria.
	CategorySustainability Category = "sustainability"

	// CategoryCompliance covers regulatory and contractual conformance.
	CategoryCompliance Category = "compliance"
)

// Categories lists every recognized category in display order.
var Categories = []Category{
	CategoryPrice,
	CategoryTechnical,
	CategoryExperience,
	CategoryCommunityContent,
	CategorySustainability,
	CategoryCompliance,
}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizationMethod selects how a raw criterion score is mapped onto the
// common 0-100 scale before weighting.
type NormalizationMethod string

// Supported normalization methods.
const (
	// NormalizationLinear rescales raw/max onto 0-100.
	NormalizationLinear NormalizationMethod = "linear"

	// NormalizationMinMax is an alias of linear kept for configuration
	// compatibility; both divide by the criterion maximum.
	NormalizationMinMax NormalizationMethod = "min_max"

	// NormalizationZScore standardizes against the population of raw
	// scores for the same criterion across all submissions. The caller
	// must supply that population explicitly.
	NormalizationZScore NormalizationMethod = "z_score"

	// NormalizationPercentile maps a raw score to its percentile rank
	// within the population. The caller must supply the population.
	NormalizationPercentile NormalizationMethod = "percentile"

	// NormalizationNone passes the raw score through unchanged.
	NormalizationNone NormalizationMethod = "none"
)

// Valid reports whether m is a supported normalization method.
func (m NormalizationMethod) Valid() bool {
	switch m {
	case NormalizationLinear, NormalizationMinMax, NormalizationZScore,
		NormalizationPercentile, NormalizationNone:
		return true
	}
	return false
}

// PopulationDependent reports whether the method requires the full raw-score
// population of the criterion across all submissions.
func (m NormalizationMethod) PopulationDependent() bool {
	return m == NormalizationZScore || m == NormalizationPercentile
}

// Criterion is a single scored dimension of an evaluation. Criteria are
// immutable once their parent criteria set is published.
type Criterion struct {
	// ID uniquely identifies the criterion within its criteria set.
	ID string `json:"id" yaml:"id"`

	// Category places the criterion in one of the recognized categories.
	Category Category `json:"category" yaml:"category"`

	// Weight is the base weight on a 0-100 scale. Weights within a set
	// need not sum to 100, though authored sets typically do.
	Weight float64 `json:"weight" yaml:"weight"`

	// MaxScore is the maximum raw score an evaluator may assign.
	MaxScore float64 `json:"max_score" yaml:"max_score"`

	// Mandatory marks the criterion as pass/fail gating: a submission
	// failing it is disqualified regardless of overall score.
	Mandatory bool `json:"mandatory" yaml:"mandatory"`

	// MinPassingScore is the raw score required to pass a mandatory
	// criterion. Only meaningful when Mandatory is true.
	MinPassingScore float64 `json:"min_passing_score" yaml:"min_passing_score"`

	// DisplayOrder controls presentation ordering and has no effect on
	// scoring.
	DisplayOrder int `json:"display_order" yaml:"display_order"`
}

// CriteriaSet is a published, immutable collection of criteria together with
// the normalization method applied to all of them.
type CriteriaSet struct {
	// ID uniquely identifies the criteria set.
	ID string `json:"id" yaml:"id"`

	// Normalization is the method applied to every criterion in the set.
	Normalization NormalizationMethod `json:"normalization" yaml:"normalization"`

	// Criteria holds the set members in authoring order.
	Criteria []Criterion `json:"criteria" yaml:"criteria"`
}

// Criterion returns the member with the given id.
func (cs CriteriaSet) Criterion(id string) (Criterion, bool) {
	for _, c := range cs.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

// TotalWeight returns the sum of base weights across the set.
func (cs CriteriaSet) TotalWeight() float64 {
	var total float64
	for _, c := range cs.Criteria {
		total += c.Weight
	}
	return total
}

// WeightOverrides maps a category to a percentage multiplier applied to the
// base weight of every criterion in that category. A factor of 100 leaves
// the weight unchanged. Overrides are tenant-scoped and supplied read-only
// by the persistence layer.
//
// Factors are deliberately not clamped: an override above 100 inflates the
// category beyond its authored weight, and sanity-checking aggregate weight
// is the caller's responsibility.
type WeightOverrides map[Category]float64
