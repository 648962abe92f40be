package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelane/evalengine/internal/domain"
)

func TestDefaultEngineConfig(t *testing.T) {
	config := DefaultEngineConfig()

	assert.Equal(t, BonusModeTiered, config.BonusMode)
	assert.Equal(t, 8, config.MaxConcurrency)
	assert.Equal(t, domain.NormalizationLinear, config.Aggregator.Normalization)

	require.NoError(t, validate.Struct(config), "defaults must validate")
}

func TestLoadEngineConfig(t *testing.T) {
	t.Run("overlays onto defaults", func(t *testing.T) {
		config, err := LoadEngineConfig([]byte(`
bonus_mode: factors
max_concurrency: 2
ranker:
  epsilon: 0.5
  runner_up_ranks: 3
`))
		require.NoError(t, err)

		assert.Equal(t, BonusModeFactors, config.BonusMode)
		assert.Equal(t, 2, config.MaxConcurrency)
		assert.Equal(t, 0.5, config.Ranker.Epsilon)
		// Untouched sections keep their defaults.
		assert.Equal(t, domain.ConsensusTrimmedMean, config.Consensus.Method)
		assert.Equal(t, float64(10), config.Variance.StdDevThreshold)
	})

	t.Run("empty input yields defaults", func(t *testing.T) {
		config, err := LoadEngineConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultEngineConfig(), config)
	})

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown bonus mode", yaml: "bonus_mode: generous"},
		{name: "zero concurrency", yaml: "max_concurrency: 0"},
		{name: "excessive concurrency", yaml: "max_concurrency: 500"},
		{name: "malformed yaml", yaml: "bonus_mode: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEngineConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCriteriaSet(t *testing.T) {
	config, err := LoadCriteriaSet([]byte(`
id: municipal-2026
criteria:
  - id: price
    category: price
    weight: 40
    max_score: 100
  - id: tech
    category: technical
    weight: 60
    max_score: 10
    mandatory: true
    min_passing_score: 4
overrides:
  price: 120
`))
	require.NoError(t, err)

	assert.Equal(t, "municipal-2026", config.Set.ID)
	assert.Equal(t, domain.NormalizationLinear, config.Set.Normalization,
		"normalization defaults to linear")
	require.Len(t, config.Set.Criteria, 2)
	assert.True(t, config.Set.Criteria[1].Mandatory)
	assert.Equal(t, domain.WeightOverrides{domain.CategoryPrice: 120}, config.Overrides)
}

func TestLoadCriteriaSetAccumulatesErrors(t *testing.T) {
	_, err := LoadCriteriaSet([]byte(`
normalization: quantum
criteria:
  - id: price
    category: fancy
    weight: 150
    max_score: 0
  - id: price
    category: technical
    weight: 50
    max_score: 10
    mandatory: true
    min_passing_score: 11
overrides:
  vibes: 120
`))
	require.Error(t, err)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "id is required")
	assert.Contains(t, verr.Errors, `unknown normalization method "quantum"`)
	assert.Contains(t, verr.Errors, `duplicate criterion id "price"`)
	assert.Contains(t, verr.Errors, `weight override references unknown category "vibes"`)
	// Category, weight, max score, and min passing score problems are
	// all reported in the same pass.
	assert.GreaterOrEqual(t, len(verr.Errors), 7)
}

func TestLoadCriteriaSetMalformed(t *testing.T) {
	_, err := LoadCriteriaSet([]byte("criteria: {not: [a, list"))
	assert.Error(t, err)
}
