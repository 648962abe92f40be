package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelane/evalengine/internal/domain"
)

func newTestConsensusResolver(t *testing.T, config ConsensusConfig) *ConsensusResolver {
	t.Helper()
	va, err := NewVarianceAnalyzer("variance", DefaultVarianceConfig())
	require.NoError(t, err)
	cr, err := NewConsensusResolver("test_consensus", config, va)
	require.NoError(t, err)
	cr.newID = func() string { return "record-1" }
	cr.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return cr
}

func evaluatorScores(submissionID string, scores map[string]float64) []domain.EvaluatorScore {
	// Fixed iteration order keeps InitialScores deterministic in assertions.
	ids := []string{"eval-a", "eval-b", "eval-c", "eval-d", "eval-e"}
	var out []domain.EvaluatorScore
	for _, id := range ids {
		if score, ok := scores[id]; ok {
			out = append(out, domain.EvaluatorScore{
				SubmissionID: submissionID,
				EvaluatorID:  id,
				OverallScore: score,
			})
		}
	}
	return out
}

func TestConsensusResolverFastPath(t *testing.T) {
	cr := newTestConsensusResolver(t, DefaultConsensusConfig())

	record, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
		"eval-a": 82, "eval-b": 85, "eval-c": 88,
	}), "")
	require.NoError(t, err)

	assert.Equal(t, domain.ConsensusAutomatic, record.Method)
	assert.Equal(t, 0, record.Round, "fast path records zero rounds")
	assert.InDelta(t, 85, record.FinalScore, 1e-9)
	assert.True(t, record.Unanimous)
	assert.Empty(t, record.DissenterIDs)
	assert.Equal(t, "sub1", record.SubmissionID)
	assert.Equal(t, []string{"eval-a", "eval-b", "eval-c"}, record.EvaluatorIDs)
}

func TestConsensusResolverTriggeredPath(t *testing.T) {
	t.Run("trimmed mean discounts the tails", func(t *testing.T) {
		cr := newTestConsensusResolver(t, DefaultConsensusConfig())

		// stddev well above 10 forces resolution. With 5 scores and a
		// 10% trim, floor(5*0.1)=0 per tail, so the trimmed mean equals
		// the full mean here; a larger roster trims.
		record, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
			"eval-a": 40, "eval-b": 70, "eval-c": 72, "eval-d": 74, "eval-e": 100,
		}), "")
		require.NoError(t, err)

		assert.Equal(t, domain.ConsensusTrimmedMean, record.Method)
		assert.Equal(t, 1, record.Round)
		assert.InDelta(t, 71.2, record.FinalScore, 1e-9)
		assert.ElementsMatch(t, []string{"eval-a", "eval-e"}, record.DissenterIDs)
		assert.False(t, record.Unanimous)
	})

	t.Run("voting adopts the median", func(t *testing.T) {
		cr := newTestConsensusResolver(t, DefaultConsensusConfig())

		record, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
			"eval-a": 40, "eval-b": 75, "eval-c": 95,
		}), domain.ConsensusVoting)
		require.NoError(t, err)

		assert.Equal(t, domain.ConsensusVoting, record.Method)
		assert.InDelta(t, 75, record.FinalScore, 1e-9)
	})

	t.Run("averaging is always unanimous", func(t *testing.T) {
		cr := newTestConsensusResolver(t, DefaultConsensusConfig())

		record, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
			"eval-a": 40, "eval-b": 75, "eval-c": 95,
		}), domain.ConsensusAveraging)
		require.NoError(t, err)

		assert.Equal(t, domain.ConsensusAveraging, record.Method)
		assert.InDelta(t, 70, record.FinalScore, 1e-9)
		assert.True(t, record.Unanimous)
		assert.Empty(t, record.DissenterIDs)
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		cr := newTestConsensusResolver(t, DefaultConsensusConfig())

		_, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
			"eval-a": 40, "eval-b": 95,
		}), domain.ConsensusMethod("COIN_FLIP"))
		assert.ErrorIs(t, err, domain.ErrUnknownMethod)
	})
}

func TestConsensusResolverLargeRosterTrims(t *testing.T) {
	config := DefaultConsensusConfig()
	config.TrimPercent = 0.2
	cr := newTestConsensusResolver(t, config)

	record, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{
		"eval-a": 0, "eval-b": 70, "eval-c": 72, "eval-d": 74, "eval-e": 100,
	}), "")
	require.NoError(t, err)

	// floor(5*0.2)=1 trimmed per tail: mean of {70, 72, 74}.
	assert.InDelta(t, 72, record.FinalScore, 1e-9)
}

func TestConsensusResolverDisagreementCriteria(t *testing.T) {
	cr := newTestConsensusResolver(t, DefaultConsensusConfig())

	scores := []domain.EvaluatorScore{
		{
			SubmissionID: "sub1", EvaluatorID: "eval-a", OverallScore: 50,
			CriterionScores: []domain.CriterionScore{
				{CriterionID: "price", NormalizedScore: 90},
				{CriterionID: "tech", NormalizedScore: 40},
			},
		},
		{
			SubmissionID: "sub1", EvaluatorID: "eval-b", OverallScore: 90,
			CriterionScores: []domain.CriterionScore{
				{CriterionID: "price", NormalizedScore: 92},
				{CriterionID: "tech", NormalizedScore: 85},
			},
		},
	}

	record, err := cr.Resolve(scores, "")
	require.NoError(t, err)

	// price variance 1, tech variance 506.25: only tech disagrees.
	assert.Equal(t, []string{"tech"}, record.DisagreementCriteria)
}

func TestConsensusResolverErrors(t *testing.T) {
	cr := newTestConsensusResolver(t, DefaultConsensusConfig())

	t.Run("fewer than two evaluators", func(t *testing.T) {
		_, err := cr.Resolve(evaluatorScores("sub1", map[string]float64{"eval-a": 80}), "")
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("rounds are 1-based", func(t *testing.T) {
		_, err := cr.ResolveRound(evaluatorScores("sub1", map[string]float64{
			"eval-a": 80, "eval-b": 85,
		}), "", 0)
		assert.Error(t, err)
	})
}

// TestConsensusNeverAutomaticAboveThreshold is the monotonic-trigger
// property: a dispersed score set must never silently take the automatic
// fast path.
func TestConsensusNeverAutomaticAboveThreshold(t *testing.T) {
	cr := newTestConsensusResolver(t, DefaultConsensusConfig())

	sets := []map[string]float64{
		{"eval-a": 30, "eval-b": 60, "eval-c": 90},
		{"eval-a": 0, "eval-b": 50, "eval-c": 100},
		{"eval-a": 55, "eval-b": 70, "eval-c": 85, "eval-d": 100},
	}
	for _, set := range sets {
		record, err := cr.Resolve(evaluatorScores("sub1", set), "")
		require.NoError(t, err)
		if record.StdDev > 10 {
			assert.NotEqual(t, domain.ConsensusAutomatic, record.Method)
			assert.Equal(t, 1, record.Round)
		}
	}
}
