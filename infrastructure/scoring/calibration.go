package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

// CalibrationConfig defines the configuration parameters for the
// CalibrationAnalyzer.
type CalibrationConfig struct {
	// MinSampleSize is the fewest historical scores calibration accepts.
	// Below it the result would be statistically meaningless, so the
	// analyzer refuses rather than silently producing a low-confidence
	// number.
	MinSampleSize int `yaml:"min_sample_size" json:"min_sample_size" validate:"min=2"`

	// ModerateBand is the distance from the peer average, in points,
	// within which an evaluator is classified MODERATE.
	ModerateBand float64 `yaml:"moderate_band" json:"moderate_band" validate:"gt=0"`

	// DeviationPenalty is the calibration-score cost per point of
	// deviation from the peer average. Systematic bias is penalized
	// more heavily than raw spread.
	DeviationPenalty float64 `yaml:"deviation_penalty" json:"deviation_penalty" validate:"min=0"`

	// SpreadThreshold is the standard deviation above which the
	// evaluator's scoring is considered noisy.
	SpreadThreshold float64 `yaml:"spread_threshold" json:"spread_threshold" validate:"gt=0"`

	// SpreadPenalty is the flat calibration-score cost applied once the
	// spread threshold is exceeded.
	SpreadPenalty float64 `yaml:"spread_penalty" json:"spread_penalty" validate:"min=0"`

	// PassThreshold is the calibration score at or above which the
	// evaluator passes.
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold" validate:"min=0,max=100"`

	// IntervalDays is how long until the next calibration is due,
	// independent of pass or fail.
	IntervalDays int `yaml:"interval_days" json:"interval_days" validate:"min=1"`
}

// DefaultCalibrationConfig returns the domain-standard parameters: ten
// scores minimum, a ±10 moderate band, double-weighted deviation penalty,
// a 20-point penalty above 15 points of spread, a pass mark of 70, and a
// 90-day recalibration interval.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		MinSampleSize:    10,
		ModerateBand:     10,
		DeviationPenalty: 2,
		SpreadThreshold:  15,
		SpreadPenalty:    20,
		PassThreshold:    70,
		IntervalDays:     90,
	}
}

// CalibrationAnalyzer compares an evaluator's historical scoring
// distribution to the peer population, classifies scoring style, and
// produces a calibration score with training recommendations.
//
// Calibrate is deterministic: identical inputs produce identical results,
// with the clock injected so the next-due date is reproducible in tests.
type CalibrationAnalyzer struct {
	name   string
	config CalibrationConfig

	// now is the injection point for deterministic next-due dates.
	now func() time.Time
}

// NewCalibrationAnalyzer creates a CalibrationAnalyzer with the given
// configuration.
func NewCalibrationAnalyzer(name string, config CalibrationConfig) (*CalibrationAnalyzer, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &CalibrationAnalyzer{name: name, config: config, now: time.Now}, nil
}

// Name returns the unique identifier for this unit instance.
func (ca *CalibrationAnalyzer) Name() string { return ca.name }

// Calibrate analyzes an evaluator's recent scores against the peer
// average. It fails with a domain.InsufficientDataError below the minimum
// sample size and rejects scores outside [0, 100] before computing
// anything.
func (ca *CalibrationAnalyzer) Calibrate(evaluatorID string, recentScores []float64, peerAverage float64) (domain.CalibrationResult, error) {
	if len(recentScores) < ca.config.MinSampleSize {
		return domain.CalibrationResult{}, domain.NewInsufficientDataError(
			"historical scores", ca.config.MinSampleSize, len(recentScores))
	}

	verr := domain.NewValidationError("calibration input")
	for i, s := range recentScores {
		if s < 0 || s > 100 {
			verr.AddError(fmt.Sprintf("score %g at index %d outside [0,100]", s, i))
		}
	}
	if peerAverage < 0 || peerAverage > 100 {
		verr.AddError(fmt.Sprintf("peer average %g outside [0,100]", peerAverage))
	}
	if verr.HasErrors() {
		return domain.CalibrationResult{}, verr
	}

	mean, err := stats.Mean(recentScores)
	if err != nil {
		return domain.CalibrationResult{}, fmt.Errorf("mean: %w", err)
	}
	stdDev, err := stats.StandardDeviationPopulation(recentScores)
	if err != nil {
		return domain.CalibrationResult{}, fmt.Errorf("standard deviation: %w", err)
	}

	deviation := math.Abs(mean - peerAverage)

	style := domain.StyleModerate
	switch {
	case mean < peerAverage-ca.config.ModerateBand:
		style = domain.StyleStrict
	case mean > peerAverage+ca.config.ModerateBand:
		style = domain.StyleLenient
	}

	score := 100 - deviation*ca.config.DeviationPenalty
	if stdDev > ca.config.SpreadThreshold {
		score -= ca.config.SpreadPenalty
	}
	if score < 0 {
		score = 0
	}

	result := domain.CalibrationResult{
		EvaluatorID:      evaluatorID,
		SampleSize:       len(recentScores),
		MeanScore:        mean,
		StdDev:           stdDev,
		PeerAverage:      peerAverage,
		Deviation:        deviation,
		Style:            style,
		CalibrationScore: score,
		Status:           domain.CalibrationPassed,
		NextDueAt:        ca.now().AddDate(0, 0, ca.config.IntervalDays),
	}

	result.Recommendations = ca.recommendations(result, recentScores)
	if score < ca.config.PassThreshold {
		result.Status = domain.CalibrationNeedsImprovement
		if len(result.Recommendations) == 0 {
			result.Recommendations = append(result.Recommendations,
				"review recent scoring decisions against the rubric with a peer evaluator")
		}
	}
	return result, nil
}

// recommendations derives training guidance from the analyzed
// distribution.
func (ca *CalibrationAnalyzer) recommendations(result domain.CalibrationResult, recentScores []float64) []string {
	var recs []string
	switch result.Style {
	case domain.StyleStrict:
		recs = append(recs, fmt.Sprintf(
			"scores average %.1f points below peers; revisit the rubric's passing anchors before the next evaluation round",
			result.Deviation))
	case domain.StyleLenient:
		recs = append(recs, fmt.Sprintf(
			"scores average %.1f points above peers; compare high-scored submissions against peer-scored equivalents",
			result.Deviation))
	}
	if result.StdDev > ca.config.SpreadThreshold {
		recs = append(recs,
			"score spread is high; anchor each criterion against its written scale before scoring")
	}
	if !ca.looksNormal(recentScores, result.MeanScore, result.StdDev) {
		recs = append(recs,
			"scoring distribution is strongly skewed; check for criterion-specific severity")
	}
	return recs
}

// looksNormal runs a skewness/kurtosis approximation of a normality test
// against a chi-square distribution. Heavy skew in an evaluator's history
// usually means one criterion is being scored much harsher than the rest.
func (ca *CalibrationAnalyzer) looksNormal(scores []float64, mean, stdDev float64) bool {
	if len(scores) < 3 || stdDev == 0 {
		return true
	}

	n := float64(len(scores))
	var sumCubed, sumFourth float64
	for _, s := range scores {
		d := (s - mean) / stdDev
		sumCubed += d * d * d
		sumFourth += d * d * d * d
	}
	skewness := sumCubed / n * math.Sqrt(n*(n-1)) / (n - 2)
	kurtosis := sumFourth / n

	testStat := math.Abs(skewness) + math.Abs(kurtosis-3)/2
	chiDist := distuv.ChiSquared{K: 2}
	pValue := 1 - chiDist.CDF(testStat*testStat)
	return pValue > 0.05
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (ca *CalibrationAnalyzer) Validate() error {
	if err := validate.Struct(ca.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// updates the unit's configuration. Not safe for concurrent use with
// Calibrate.
func (ca *CalibrationAnalyzer) UnmarshalParameters(params yaml.Node) error {
	config := DefaultCalibrationConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	ca.config = config
	return nil
}
