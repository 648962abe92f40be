// Package application wires the scoring units into the engine facade and
// owns configuration loading for engine settings and criteria-set
// definitions.
package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/infrastructure/scoring"
	"github.com/procurelane/evalengine/internal/domain"
)

// Bonus composition modes supported by the engine.
const (
	// BonusModeTiered applies the progressive ownership ladder.
	BonusModeTiered = "tiered"

	// BonusModeFactors applies the rich preference-factor variant with
	// independently bounded factor contributions.
	BonusModeFactors = "factors"
)

// EngineConfig aggregates the configuration of every scoring unit plus
// engine-level orchestration settings. It is the single configuration
// entry point: the engine is constructed from it explicitly, with no
// process-wide state.
type EngineConfig struct {
	// Aggregator configures normalization and decimal precision.
	Aggregator scoring.AggregatorConfig `yaml:"aggregator" validate:"required"`

	// Bonus configures the preference bonus tiers and factor caps.
	Bonus scoring.BonusConfig `yaml:"bonus" validate:"required"`

	// BonusMode selects how eligibility composes into the final score.
	BonusMode string `yaml:"bonus_mode" validate:"required,oneof=tiered factors"`

	// Variance configures dispersion thresholds and the outlier rule.
	Variance scoring.VarianceConfig `yaml:"variance" validate:"required"`

	// Consensus configures reconciliation strategy parameters.
	Consensus scoring.ConsensusConfig `yaml:"consensus" validate:"required"`

	// Ranker configures tie handling and status bounds.
	Ranker scoring.RankerConfig `yaml:"ranker" validate:"required"`

	// Calibration configures evaluator calibration thresholds.
	Calibration scoring.CalibrationConfig `yaml:"calibration" validate:"required"`

	// MaxConcurrency bounds the parallel per-submission scoring pass.
	MaxConcurrency int `yaml:"max_concurrency" validate:"min=1,max=64"`
}

// DefaultEngineConfig returns the domain-standard configuration for every
// unit with tiered bonuses and a conservative concurrency bound.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Aggregator:     scoring.DefaultAggregatorConfig(),
		Bonus:          scoring.DefaultBonusConfig(),
		BonusMode:      BonusModeTiered,
		Variance:       scoring.DefaultVarianceConfig(),
		Consensus:      scoring.DefaultConsensusConfig(),
		Ranker:         scoring.DefaultRankerConfig(),
		Calibration:    scoring.DefaultCalibrationConfig(),
		MaxConcurrency: 8,
	}
}

// Package-level validator instance for configuration validation.
var validate = validator.New()

// LoadEngineConfig parses engine configuration from YAML, overlaying the
// supplied fields onto the defaults and validating the result.
func LoadEngineConfig(data []byte) (EngineConfig, error) {
	config := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return EngineConfig{}, fmt.Errorf("parse engine config: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return EngineConfig{}, fmt.Errorf("engine config validation failed: %w", err)
	}
	return config, nil
}

// criteriaSetFile is the YAML shape of an authored criteria set.
type criteriaSetFile struct {
	ID            string                     `yaml:"id"`
	Normalization domain.NormalizationMethod `yaml:"normalization"`
	Criteria      []domain.Criterion         `yaml:"criteria"`
	Overrides     domain.WeightOverrides     `yaml:"overrides"`
}

// CriteriaSetConfig pairs a published criteria set with the community's
// weight overrides. It is what the engine scores against.
type CriteriaSetConfig struct {
	Set       domain.CriteriaSet
	Overrides domain.WeightOverrides
}

// LoadCriteriaSet parses and validates a criteria-set definition from
// YAML. Validation is strict and accumulating: every problem in the file
// is reported, and unrecognized categories are rejected rather than
// silently ignored.
func LoadCriteriaSet(data []byte) (CriteriaSetConfig, error) {
	var file criteriaSetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return CriteriaSetConfig{}, fmt.Errorf("parse criteria set: %w", err)
	}

	verr := domain.NewValidationError("criteria set")
	if file.ID == "" {
		verr.AddError("id is required")
	}
	if file.Normalization == "" {
		file.Normalization = domain.NormalizationLinear
	}
	if !file.Normalization.Valid() {
		verr.AddError(fmt.Sprintf("unknown normalization method %q", file.Normalization))
	}
	if len(file.Criteria) == 0 {
		verr.AddError("at least one criterion is required")
	}

	seen := make(map[string]bool, len(file.Criteria))
	for i, c := range file.Criteria {
		where := fmt.Sprintf("criterion %d (%s)", i, c.ID)
		if c.ID == "" {
			verr.AddError(fmt.Sprintf("criterion %d has no id", i))
		} else if seen[c.ID] {
			verr.AddError(fmt.Sprintf("duplicate criterion id %q", c.ID))
		}
		seen[c.ID] = true

		if !c.Category.Valid() {
			verr.AddError(fmt.Sprintf("%s: unknown category %q", where, c.Category))
		}
		if c.Weight < 0 || c.Weight > 100 {
			verr.AddError(fmt.Sprintf("%s: weight %g outside [0,100]", where, c.Weight))
		}
		if c.MaxScore <= 0 {
			verr.AddError(fmt.Sprintf("%s: max score %g must be positive", where, c.MaxScore))
		}
		if c.Mandatory && (c.MinPassingScore < 0 || c.MinPassingScore > c.MaxScore) {
			verr.AddError(fmt.Sprintf("%s: min passing score %g outside [0,%g]",
				where, c.MinPassingScore, c.MaxScore))
		}
	}

	for category := range file.Overrides {
		if !category.Valid() {
			verr.AddError(fmt.Sprintf("weight override references unknown category %q", category))
		}
	}

	if verr.HasErrors() {
		return CriteriaSetConfig{}, verr
	}

	return CriteriaSetConfig{
		Set: domain.CriteriaSet{
			ID:            file.ID,
			Normalization: file.Normalization,
			Criteria:      file.Criteria,
		},
		Overrides: file.Overrides,
	}, nil
}
