package scoring

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

// CriterionInput pairs a criterion definition with one evaluator's raw
// score for it. Population carries the raw scores of every submission on
// the same criterion and is required only for population-dependent
// normalization methods.
type CriterionInput struct {
	Criterion     domain.Criterion
	RawScore      float64
	Justification string
	Population    []float64
}

// AggregatorConfig defines the configuration parameters for the
// ScoreAggregator. All fields are validated during unit creation and
// parameter unmarshaling.
type AggregatorConfig struct {
	// Normalization selects how raw scores map onto the 0-100 scale
	// before weighting.
	Normalization domain.NormalizationMethod `yaml:"normalization" json:"normalization" validate:"required,oneof=linear min_max z_score percentile none"`

	// Overrides are the community's category weight multipliers. Keys
	// must be recognized categories; unknown keys are rejected rather
	// than silently ignored.
	Overrides domain.WeightOverrides `yaml:"overrides" json:"overrides"`

	// Precision is the number of decimal places kept on emitted scores.
	Precision int32 `yaml:"precision" json:"precision" validate:"min=0,max=10"`
}

// DefaultAggregatorConfig returns an AggregatorConfig with linear
// normalization, no overrides, and four decimal places of precision.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Normalization: domain.NormalizationLinear,
		Precision:     4,
	}
}

// AggregateResult is the outcome of aggregating one evaluator's criterion
// scores for one submission.
type AggregateResult struct {
	// BaseScore is sum(weighted) / sum(effective weight) in [0, 100].
	// A criteria set with zero total weight yields exactly 0 rather
	// than an error, because an evaluation must still produce a
	// sortable value.
	BaseScore float64

	// CategoryBreakdown holds the same ratio scoped per category.
	CategoryBreakdown map[domain.Category]float64

	// CriterionScores holds the per-criterion detail, including
	// normalized scores, effective weights, and mandatory pass flags.
	CriterionScores []domain.CriterionScore

	// TotalWeight is the sum of effective weights across all criteria.
	TotalWeight float64
}

// ScoreAggregator combines normalized, weighted criterion scores into a
// submission's base score and per-category breakdown. Accumulation uses
// fixed-point decimal arithmetic rather than binary floats so that many
// small weighted terms cannot drift; the base score feeds a strict ranking
// comparison where drift would matter.
//
// The aggregator is stateless after construction and safe for concurrent
// use.
type ScoreAggregator struct {
	name   string
	config AggregatorConfig
}

// NewScoreAggregator creates a ScoreAggregator with the given
// configuration. It returns ErrEmptyUnitName for an empty name, a wrapped
// validation error for malformed configuration, and a ConfigurationError
// when the override map references an unrecognized category.
func NewScoreAggregator(name string, config AggregatorConfig) (*ScoreAggregator, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	for category := range config.Overrides {
		if !category.Valid() {
			return nil, domain.NewConfigurationError(name,
				fmt.Sprintf("weight override references unknown category %q", category), nil)
		}
	}
	return &ScoreAggregator{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (sa *ScoreAggregator) Name() string { return sa.name }

// Aggregate computes the base score and category breakdown for one
// submission from one evaluator's raw criterion scores.
//
// Each input is normalized, weighted with the community overrides, and
// accumulated in decimal arithmetic. Mandatory criteria are marked passed
// or failed against their minimum passing score; failure does not abort
// aggregation since disqualification is a ranking outcome, not an error.
//
// Errors are all-or-nothing: a malformed input rejects the whole
// submission without emitting partial results.
func (sa *ScoreAggregator) Aggregate(submissionID, evaluatorID string, inputs []CriterionInput) (AggregateResult, error) {
	if len(inputs) == 0 {
		return AggregateResult{}, ErrNoScores
	}

	var (
		sumWeighted    = decimal.Zero
		sumWeight      = decimal.Zero
		catWeighted    = make(map[domain.Category]decimal.Decimal, len(domain.Categories))
		catWeight      = make(map[domain.Category]decimal.Decimal, len(domain.Categories))
		criterionRows  = make([]domain.CriterionScore, 0, len(inputs))
	)

	for _, in := range inputs {
		c := in.Criterion
		if c.ID == "" {
			return AggregateResult{}, domain.NewConfigurationError(sa.name,
				"criterion input has no criterion id", domain.ErrCriterionNotFound)
		}

		if sa.config.Normalization.PopulationDependent() && len(in.Population) == 0 {
			return AggregateResult{}, fmt.Errorf("criterion %s: %w", c.ID, ErrPopulationRequired)
		}

		normalized, err := Normalize(in.RawScore, c.MaxScore, sa.config.Normalization, in.Population)
		if err != nil {
			return AggregateResult{}, fmt.Errorf("criterion %s: %w", c.ID, err)
		}

		weight := EffectiveWeight(c, sa.config.Overrides)
		normDec := decimal.NewFromFloat(normalized)
		weightDec := decimal.NewFromFloat(weight)
		weighted := normDec.Mul(weightDec)

		sumWeighted = sumWeighted.Add(weighted)
		sumWeight = sumWeight.Add(weightDec)
		catWeighted[c.Category] = catWeighted[c.Category].Add(weighted)
		catWeight[c.Category] = catWeight[c.Category].Add(weightDec)

		criterionRows = append(criterionRows, domain.CriterionScore{
			SubmissionID:    submissionID,
			CriterionID:     c.ID,
			EvaluatorID:     evaluatorID,
			RawScore:        in.RawScore,
			NormalizedScore: normalized,
			EffectiveWeight: weight,
			WeightedScore:   weighted.Round(sa.config.Precision).InexactFloat64(),
			Justification:   in.Justification,
			Passed:          !c.Mandatory || in.RawScore >= c.MinPassingScore,
		})
	}

	result := AggregateResult{
		BaseScore:         sa.ratio(sumWeighted, sumWeight),
		CategoryBreakdown: make(map[domain.Category]float64, len(catWeighted)),
		CriterionScores:   criterionRows,
		TotalWeight:       sumWeight.Round(sa.config.Precision).InexactFloat64(),
	}
	for category, weighted := range catWeighted {
		result.CategoryBreakdown[category] = sa.ratio(weighted, catWeight[category])
	}
	return result, nil
}

// ratio divides accumulated weighted scores by accumulated weight, rounded
// to the configured precision. A zero denominator yields 0 by design.
func (sa *ScoreAggregator) ratio(weighted, weight decimal.Decimal) float64 {
	if weight.IsZero() {
		return 0
	}
	return weighted.Div(weight).Round(sa.config.Precision).InexactFloat64()
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (sa *ScoreAggregator) Validate() error {
	if err := validate.Struct(sa.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// updates the unit's configuration. Not safe for concurrent use with
// Aggregate.
func (sa *ScoreAggregator) UnmarshalParameters(params yaml.Node) error {
	config := DefaultAggregatorConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	for category := range config.Overrides {
		if !category.Valid() {
			return domain.NewConfigurationError(sa.name,
				fmt.Sprintf("weight override references unknown category %q", category), nil)
		}
	}
	sa.config = config
	return nil
}

// IsValidationFailure reports whether err is a boundary rejection rather
// than a computation failure: malformed input or broken configuration.
func IsValidationFailure(err error) bool {
	var verr *domain.ValidationError
	var cerr *domain.ConfigurationError
	return errors.As(err, &verr) || errors.As(err, &cerr)
}
