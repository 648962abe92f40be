package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

// ConsensusConfig defines the configuration parameters for the
// ConsensusResolver.
type ConsensusConfig struct {
	// Method is the reconciliation strategy used when variance triggers
	// resolution and the caller does not request a specific one.
	// TRIMMED_MEAN models the outcome of an evaluator discussion:
	// extreme positions are discounted without discarding the majority
	// view.
	Method domain.ConsensusMethod `yaml:"method" json:"method" validate:"required,oneof=TRIMMED_MEAN VOTING AVERAGING"`

	// TrimPercent is the fraction of scores dropped from each tail for
	// the trimmed mean, floor-rounded to a count per tail.
	TrimPercent float64 `yaml:"trim_percent" json:"trim_percent" validate:"min=0,max=0.4"`

	// DissentThreshold is how far, in points, an evaluator's score may
	// sit from the agreed score before the evaluator is recorded as a
	// dissenter.
	DissentThreshold float64 `yaml:"dissent_threshold" json:"dissent_threshold" validate:"min=0"`

	// CriterionVarianceThreshold is the per-criterion score variance, in
	// points squared, above which the criterion is listed as a
	// disagreement point.
	CriterionVarianceThreshold float64 `yaml:"criterion_variance_threshold" json:"criterion_variance_threshold" validate:"min=0"`

	// MinEvaluators is the smallest evaluator roster consensus accepts.
	MinEvaluators int `yaml:"min_evaluators" json:"min_evaluators" validate:"min=2"`
}

// DefaultConsensusConfig returns the domain-standard parameters: trimmed
// mean with 10% trimmed per tail, 10-point dissent threshold, 100-points²
// criterion disagreement threshold, and a two-evaluator minimum.
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		Method:                     domain.ConsensusTrimmedMean,
		TrimPercent:                0.10,
		DissentThreshold:           10,
		CriterionVarianceThreshold: 100,
		MinEvaluators:              2,
	}
}

// ConsensusResolver reconciles disagreement among multiple evaluators'
// scores for the same submission into a single agreed score, producing an
// append-only ConsensusRecord per round.
//
// The caller must guarantee that every evaluator on the roster has
// finalized before resolution runs; the resolver assumes a consistent,
// fully-submitted snapshot and does no locking of its own.
type ConsensusResolver struct {
	name     string
	config   ConsensusConfig
	variance *VarianceAnalyzer

	// newID and now are injection points for deterministic tests.
	newID func() string
	now   func() time.Time
}

// NewConsensusResolver creates a ConsensusResolver with the given
// configuration and variance analyzer.
func NewConsensusResolver(name string, config ConsensusConfig, variance *VarianceAnalyzer) (*ConsensusResolver, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if variance == nil {
		return nil, domain.NewConfigurationError(name, "variance analyzer is required", nil)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConsensusResolver{
		name:     name,
		config:   config,
		variance: variance,
		newID:    uuid.NewString,
		now:      time.Now,
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (cr *ConsensusResolver) Name() string { return cr.name }

// Resolve reconciles the first round of disagreement for a submission.
// Method may be empty to use the configured default.
//
// When the dispersion of scores does not trigger consensus (standard
// deviation at or under threshold and no outliers), resolution is skipped
// entirely: the record carries the arithmetic mean, method AUTOMATIC,
// round 0, and is unanimous. This is a fast path, not a degenerate
// resolution.
func (cr *ConsensusResolver) Resolve(scores []domain.EvaluatorScore, method domain.ConsensusMethod) (domain.ConsensusRecord, error) {
	return cr.ResolveRound(scores, method, 1)
}

// ResolveRound reconciles one numbered round. Current policy runs a single
// round, but repeated invocation with increasing round numbers appends
// further records when disagreement recurs.
func (cr *ConsensusResolver) ResolveRound(scores []domain.EvaluatorScore, method domain.ConsensusMethod, round int) (domain.ConsensusRecord, error) {
	if len(scores) < cr.config.MinEvaluators {
		return domain.ConsensusRecord{}, domain.NewInsufficientDataError(
			"evaluator scores", cr.config.MinEvaluators, len(scores))
	}
	if round < 1 {
		return domain.ConsensusRecord{}, fmt.Errorf("round %d: rounds are 1-based", round)
	}

	values := make([]float64, len(scores))
	evaluatorIDs := make([]string, len(scores))
	for i, es := range scores {
		values[i] = es.OverallScore
		evaluatorIDs[i] = es.EvaluatorID
	}

	report, err := cr.variance.Analyze(values)
	if err != nil {
		return domain.ConsensusRecord{}, fmt.Errorf("variance analysis: %w", err)
	}

	record := domain.ConsensusRecord{
		ID:            cr.newID(),
		SubmissionID:  scores[0].SubmissionID,
		Round:         round,
		EvaluatorIDs:  evaluatorIDs,
		InitialScores: values,
		Variance:      report.Variance,
		StdDev:        report.StdDev,
		CreatedAt:     cr.now(),
	}

	if !report.ConsensusNeeded {
		record.Round = 0
		record.Method = domain.ConsensusAutomatic
		record.FinalScore = report.Mean
		record.Unanimous = true
		return record, nil
	}

	if method == "" {
		method = cr.config.Method
	}
	final, err := cr.agreedScore(values, report, method)
	if err != nil {
		return domain.ConsensusRecord{}, err
	}

	record.Method = method
	record.FinalScore = final
	record.DisagreementCriteria = cr.disagreementCriteria(scores)

	if method == domain.ConsensusAveraging {
		record.Unanimous = true
		return record, nil
	}
	for i, v := range values {
		if math.Abs(v-final) > cr.config.DissentThreshold {
			record.DissenterIDs = append(record.DissenterIDs, evaluatorIDs[i])
		}
	}
	record.Unanimous = len(record.DissenterIDs) == 0
	return record, nil
}

// agreedScore computes the single agreed score for a triggered resolution.
func (cr *ConsensusResolver) agreedScore(values []float64, report VarianceReport, method domain.ConsensusMethod) (float64, error) {
	switch method {
	case domain.ConsensusTrimmedMean:
		return cr.trimmedMean(values), nil
	case domain.ConsensusVoting:
		return report.Median, nil
	case domain.ConsensusAveraging:
		return report.Mean, nil
	default:
		return 0, domain.NewConfigurationError(cr.name,
			fmt.Sprintf("consensus method %q", method), domain.ErrUnknownMethod)
	}
}

// trimmedMean sorts a copy of the scores, drops the configured fraction
// from each tail (floor-rounded count), and averages the remainder. When
// trimming would drop everything the full mean is used instead.
func (cr *ConsensusResolver) trimmedMean(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	trim := int(math.Floor(float64(len(sorted)) * cr.config.TrimPercent))
	if 2*trim >= len(sorted) {
		trim = 0
	}
	kept := sorted[trim : len(sorted)-trim]

	mean, err := stats.Mean(kept)
	if err != nil {
		// Unreachable: kept is never empty after the guard above.
		return 0
	}
	return mean
}

// disagreementCriteria lists the ids of criteria whose normalized scores
// vary across evaluators beyond the configured threshold, sorted for
// deterministic output.
func (cr *ConsensusResolver) disagreementCriteria(scores []domain.EvaluatorScore) []string {
	perCriterion := make(map[string][]float64)
	for _, es := range scores {
		for _, cs := range es.CriterionScores {
			perCriterion[cs.CriterionID] = append(perCriterion[cs.CriterionID], cs.NormalizedScore)
		}
	}

	var disagreed []string
	for criterionID, criterionScores := range perCriterion {
		if len(criterionScores) < 2 {
			continue
		}
		variance, err := stats.PopulationVariance(criterionScores)
		if err != nil {
			continue
		}
		if variance > cr.config.CriterionVarianceThreshold {
			disagreed = append(disagreed, criterionID)
		}
	}
	sort.Strings(disagreed)
	return disagreed
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (cr *ConsensusResolver) Validate() error {
	if err := validate.Struct(cr.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// updates the unit's configuration. Not safe for concurrent use with
// Resolve.
func (cr *ConsensusResolver) UnmarshalParameters(params yaml.Node) error {
	config := DefaultConsensusConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	cr.config = config
	return nil
}
