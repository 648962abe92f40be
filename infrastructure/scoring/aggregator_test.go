package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

func newTestAggregator(t *testing.T, config AggregatorConfig) *ScoreAggregator {
	t.Helper()
	sa, err := NewScoreAggregator("test_aggregator", config)
	require.NoError(t, err)
	return sa
}

func TestNewScoreAggregator(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewScoreAggregator("", DefaultAggregatorConfig())
		assert.ErrorIs(t, err, ErrEmptyUnitName)
	})

	t.Run("rejects unknown normalization method", func(t *testing.T) {
		config := DefaultAggregatorConfig()
		config.Normalization = "sigmoid"
		_, err := NewScoreAggregator("agg", config)
		assert.Error(t, err)
	})

	t.Run("rejects override for unknown category", func(t *testing.T) {
		config := DefaultAggregatorConfig()
		config.Overrides = domain.WeightOverrides{domain.Category("networking"): 120}
		_, err := NewScoreAggregator("agg", config)
		var cerr *domain.ConfigurationError
		require.True(t, errors.As(err, &cerr))
		assert.Contains(t, cerr.Error(), "networking")
	})
}

func TestScoreAggregatorAggregate(t *testing.T) {
	price := domain.Criterion{ID: "price", Category: domain.CategoryPrice, Weight: 50, MaxScore: 10}
	tech := domain.Criterion{ID: "tech", Category: domain.CategoryTechnical, Weight: 50, MaxScore: 10}

	t.Run("weighted aggregation over two criteria", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())

		result, err := sa.Aggregate("sub1", "eval1", []CriterionInput{
			{Criterion: price, RawScore: 8},
			{Criterion: tech, RawScore: 6},
		})
		require.NoError(t, err)

		// normalized {80, 60} -> (80*50 + 60*50) / 100 = 70
		assert.InDelta(t, 70, result.BaseScore, 1e-9)
		assert.InDelta(t, 100, result.TotalWeight, 1e-9)
		assert.InDelta(t, 80, result.CategoryBreakdown[domain.CategoryPrice], 1e-9)
		assert.InDelta(t, 60, result.CategoryBreakdown[domain.CategoryTechnical], 1e-9)

		require.Len(t, result.CriterionScores, 2)
		cs := result.CriterionScores[0]
		assert.Equal(t, "sub1", cs.SubmissionID)
		assert.Equal(t, "eval1", cs.EvaluatorID)
		assert.InDelta(t, 80, cs.NormalizedScore, 1e-9)
		assert.InDelta(t, 50, cs.EffectiveWeight, 1e-9)
		assert.InDelta(t, 4000, cs.WeightedScore, 1e-9)
		assert.True(t, cs.Passed)
	})

	t.Run("zero total weight yields score zero, not an error", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())
		zero := domain.Criterion{ID: "z", Category: domain.CategoryPrice, Weight: 0, MaxScore: 10}

		result, err := sa.Aggregate("sub1", "eval1", []CriterionInput{{Criterion: zero, RawScore: 9}})
		require.NoError(t, err)
		assert.Zero(t, result.BaseScore)
		assert.Zero(t, result.CategoryBreakdown[domain.CategoryPrice])
	})

	t.Run("overrides shift the aggregate toward the boosted category", func(t *testing.T) {
		config := DefaultAggregatorConfig()
		config.Overrides = domain.WeightOverrides{domain.CategoryPrice: 200}
		sa := newTestAggregator(t, config)

		result, err := sa.Aggregate("sub1", "eval1", []CriterionInput{
			{Criterion: price, RawScore: 8},
			{Criterion: tech, RawScore: 6},
		})
		require.NoError(t, err)

		// weights {100, 50}: (80*100 + 60*50) / 150 = 73.3333
		assert.InDelta(t, 73.3333, result.BaseScore, 1e-4)
	})

	t.Run("mandatory criterion below minimum is marked failed", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())
		gate := domain.Criterion{
			ID: "compliance", Category: domain.CategoryCompliance,
			Weight: 20, MaxScore: 10, Mandatory: true, MinPassingScore: 6,
		}

		result, err := sa.Aggregate("sub1", "eval1", []CriterionInput{
			{Criterion: gate, RawScore: 5},
			{Criterion: price, RawScore: 8},
		})
		require.NoError(t, err)
		assert.False(t, result.CriterionScores[0].Passed)
		assert.True(t, result.CriterionScores[1].Passed)
	})

	t.Run("population-dependent method without population fails", func(t *testing.T) {
		config := DefaultAggregatorConfig()
		config.Normalization = domain.NormalizationZScore
		sa := newTestAggregator(t, config)

		_, err := sa.Aggregate("sub1", "eval1", []CriterionInput{{Criterion: price, RawScore: 8}})
		assert.ErrorIs(t, err, ErrPopulationRequired)
	})

	t.Run("malformed raw score rejects the whole submission", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())

		_, err := sa.Aggregate("sub1", "eval1", []CriterionInput{
			{Criterion: price, RawScore: 8},
			{Criterion: tech, RawScore: 11},
		})
		require.Error(t, err)
		assert.True(t, IsValidationFailure(err))
	})

	t.Run("empty input rejected", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())
		_, err := sa.Aggregate("sub1", "eval1", nil)
		assert.ErrorIs(t, err, ErrNoScores)
	})

	t.Run("accumulation is drift-free over many small terms", func(t *testing.T) {
		sa := newTestAggregator(t, DefaultAggregatorConfig())

		inputs := make([]CriterionInput, 300)
		for i := range inputs {
			inputs[i] = CriterionInput{
				Criterion: domain.Criterion{
					ID:       "c",
					Category: domain.CategoryTechnical,
					Weight:   0.1,
					MaxScore: 10,
				},
				RawScore: 7,
			}
		}
		result, err := sa.Aggregate("sub1", "eval1", inputs)
		require.NoError(t, err)

		// Every term normalizes to exactly 70; decimal accumulation must
		// return exactly 70 despite 300 additions of weight 0.1.
		assert.Equal(t, 70.0, result.BaseScore)
	})
}

func TestScoreAggregatorUnmarshalParameters(t *testing.T) {
	sa := newTestAggregator(t, DefaultAggregatorConfig())

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
normalization: percentile
precision: 2
overrides:
  price: 150
`), &node))
	require.NoError(t, sa.UnmarshalParameters(*node.Content[0]))

	var bad yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
normalization: percentile
overrides:
  networking: 150
`), &bad))
	assert.Error(t, sa.UnmarshalParameters(*bad.Content[0]))
}
