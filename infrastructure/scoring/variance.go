package scoring

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/procurelane/evalengine/internal/domain"
)

// VarianceConfig defines the configuration parameters for the
// VarianceAnalyzer.
type VarianceConfig struct {
	// StdDevThreshold is the dispersion level, in absolute points on the
	// 0-100 scale, above which consensus is needed.
	StdDevThreshold float64 `yaml:"std_dev_threshold" json:"std_dev_threshold" validate:"min=0"`

	// IQRMultiplier scales the interquartile range when computing
	// outlier bounds. The statistical standard is 1.5.
	IQRMultiplier float64 `yaml:"iqr_multiplier" json:"iqr_multiplier" validate:"gt=0"`
}

// DefaultVarianceConfig returns the domain-standard thresholds: 10 points
// of standard deviation and the 1.5x IQR outlier rule.
func DefaultVarianceConfig() VarianceConfig {
	return VarianceConfig{StdDevThreshold: 10, IQRMultiplier: 1.5}
}

// VarianceReport summarizes the dispersion of one submission's evaluator
// scores.
type VarianceReport struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`

	// Outliers lists scores outside [Q1-k*IQR, Q3+k*IQR].
	Outliers []float64 `json:"outliers,omitempty"`

	// ConsensusNeeded is true when the standard deviation exceeds the
	// threshold or at least one outlier exists. The triggers are
	// independent; either alone is sufficient.
	ConsensusNeeded bool `json:"consensus_needed"`
}

// VarianceAnalyzer computes dispersion statistics over the per-evaluator
// scores of a single submission and flags statistical outliers using the
// IQR rule. It is stateless after construction and safe for concurrent
// use.
type VarianceAnalyzer struct {
	name   string
	config VarianceConfig
}

// NewVarianceAnalyzer creates a VarianceAnalyzer with the given
// configuration.
func NewVarianceAnalyzer(name string, config VarianceConfig) (*VarianceAnalyzer, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &VarianceAnalyzer{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (va *VarianceAnalyzer) Name() string { return va.name }

// Analyze computes mean, median, population standard deviation and
// variance, quartiles, and IQR outliers for the given scores.
func (va *VarianceAnalyzer) Analyze(scores []float64) (VarianceReport, error) {
	if len(scores) == 0 {
		return VarianceReport{}, ErrNoScores
	}

	verr := domain.NewValidationError("evaluator scores")
	for i, s := range scores {
		if s < 0 || s > 100 {
			verr.AddError(fmt.Sprintf("score %g at index %d outside [0,100]", s, i))
		}
	}
	if verr.HasErrors() {
		return VarianceReport{}, verr
	}

	mean, err := stats.Mean(scores)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("mean: %w", err)
	}
	median, err := stats.Median(scores)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("median: %w", err)
	}
	stdDev, err := stats.StandardDeviationPopulation(scores)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("standard deviation: %w", err)
	}
	variance, err := stats.PopulationVariance(scores)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("variance: %w", err)
	}
	q1, err := stats.Percentile(scores, 25)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("first quartile: %w", err)
	}
	q3, err := stats.Percentile(scores, 75)
	if err != nil {
		return VarianceReport{}, fmt.Errorf("third quartile: %w", err)
	}

	iqr := q3 - q1
	lower := q1 - va.config.IQRMultiplier*iqr
	upper := q3 + va.config.IQRMultiplier*iqr

	var outliers []float64
	for _, s := range scores {
		if s < lower || s > upper {
			outliers = append(outliers, s)
		}
	}

	return VarianceReport{
		Mean:            mean,
		Median:          median,
		StdDev:          stdDev,
		Variance:        variance,
		Q1:              q1,
		Q3:              q3,
		Outliers:        outliers,
		ConsensusNeeded: stdDev > va.config.StdDevThreshold || len(outliers) > 0,
	}, nil
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (va *VarianceAnalyzer) Validate() error {
	if err := validate.Struct(va.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
