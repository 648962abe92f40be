package scoring

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelane/evalengine/internal/domain"
)

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker("test_ranker", DefaultRankerConfig())
	require.NoError(t, err)
	r.newID = func() string { return "ranking-1" }
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return r
}

func submission(id string, finalScore float64) domain.SubmissionEvaluation {
	return domain.SubmissionEvaluation{SubmissionID: id, FinalScore: finalScore}
}

func rankOf(t *testing.T, list domain.RankedList, id string) int {
	t.Helper()
	for _, s := range list.Submissions {
		if s.SubmissionID == id {
			require.NotNil(t, s.Rank, "submission %s has no rank", id)
			return *s.Rank
		}
	}
	t.Fatalf("submission %s not in ranked list", id)
	return 0
}

func TestRankerTieHandling(t *testing.T) {
	r := newTestRanker(t)

	list, err := r.Rank([]domain.SubmissionEvaluation{
		submission("a", 90),
		submission("b", 90),
		submission("c", 85),
		submission("d", 70),
	})
	require.NoError(t, err)

	// [90, 90, 85, 70] -> [1, 1, 3, 4]: the tie group advances the
	// counter by its size, not by one.
	assert.Equal(t, 1, rankOf(t, list, "a"))
	assert.Equal(t, 1, rankOf(t, list, "b"))
	assert.Equal(t, 3, rankOf(t, list, "c"))
	assert.Equal(t, 4, rankOf(t, list, "d"))
}

func TestRankerEpsilonTies(t *testing.T) {
	r := newTestRanker(t)

	list, err := r.Rank([]domain.SubmissionEvaluation{
		submission("a", 90.000),
		submission("b", 89.995), // within 0.01 of a: tied
		submission("c", 89.980), // within 0.01 of b but not of the group leader
	})
	require.NoError(t, err)

	assert.Equal(t, 1, rankOf(t, list, "a"))
	assert.Equal(t, 1, rankOf(t, list, "b"))
	assert.Equal(t, 3, rankOf(t, list, "c"))
}

func TestRankerStatuses(t *testing.T) {
	r := newTestRanker(t)

	list, err := r.Rank([]domain.SubmissionEvaluation{
		submission("a", 95),
		submission("b", 90),
		submission("c", 85),
		submission("d", 80),
		submission("e", 75),
	})
	require.NoError(t, err)

	byID := make(map[string]domain.SubmissionEvaluation)
	for _, s := range list.Submissions {
		byID[s.SubmissionID] = s
	}
	assert.Equal(t, domain.StatusWinner, byID["a"].Status)
	assert.Equal(t, domain.StatusRunnerUp, byID["b"].Status)
	assert.Equal(t, domain.StatusRunnerUp, byID["c"].Status)
	assert.Equal(t, domain.StatusQualified, byID["d"].Status)
	assert.Equal(t, domain.StatusQualified, byID["e"].Status)
}

func TestRankerDisqualification(t *testing.T) {
	r := newTestRanker(t)

	failed := domain.SubmissionEvaluation{
		SubmissionID: "dq",
		FinalScore:   99, // the highest score in the pool still disqualifies
		CriterionScores: []domain.CriterionScore{
			{CriterionID: "m1", Passed: false},
			{CriterionID: "m2", Passed: true},
		},
	}

	list, err := r.Rank([]domain.SubmissionEvaluation{
		submission("a", 80),
		failed,
		submission("b", 70),
	})
	require.NoError(t, err)

	var dq domain.SubmissionEvaluation
	for _, s := range list.Submissions {
		if s.SubmissionID == "dq" {
			dq = s
		}
	}
	assert.Equal(t, domain.StatusDisqualified, dq.Status)
	assert.Nil(t, dq.Rank)
	assert.Equal(t, "failed 1 mandatory criterion", dq.DisqualificationReason)

	// The remaining pool ranks as if the disqualified entry never existed.
	assert.Equal(t, 1, rankOf(t, list, "a"))
	assert.Equal(t, 2, rankOf(t, list, "b"))

	// Disqualified entries sort last.
	assert.Equal(t, "dq", list.Submissions[len(list.Submissions)-1].SubmissionID)
}

func TestRankerDoesNotMutateInput(t *testing.T) {
	r := newTestRanker(t)

	input := []domain.SubmissionEvaluation{
		submission("a", 90),
		{
			SubmissionID:    "dq",
			FinalScore:      95,
			CriterionScores: []domain.CriterionScore{{CriterionID: "m", Passed: false}},
		},
	}

	_, err := r.Rank(input)
	require.NoError(t, err)

	assert.Nil(t, input[0].Rank)
	assert.Empty(t, input[0].Status)
	assert.Nil(t, input[1].Rank)
	assert.Empty(t, input[1].Status)
	assert.Empty(t, input[1].DisqualificationReason)
}

func TestRankerEmptyInput(t *testing.T) {
	r := newTestRanker(t)
	_, err := r.Rank(nil)
	assert.ErrorIs(t, err, ErrNoSubmissions)
}

// TestRankerStableUnderPermutation verifies that shuffling the input list
// never changes the rank assigned to a submission id.
func TestRankerStableUnderPermutation(t *testing.T) {
	r := newTestRanker(t)
	rng := rand.New(rand.NewSource(3))

	base := []domain.SubmissionEvaluation{
		submission("a", 91.5),
		submission("b", 91.5),
		submission("c", 88),
		submission("d", 88),
		submission("e", 74.25),
		submission("f", 60),
	}

	reference, err := r.Rank(base)
	require.NoError(t, err)
	want := make(map[string]int)
	for _, s := range reference.Submissions {
		want[s.SubmissionID] = *s.Rank
	}

	for i := 0; i < 20; i++ {
		shuffled := make([]domain.SubmissionEvaluation, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		list, err := r.Rank(shuffled)
		require.NoError(t, err)
		for _, s := range list.Submissions {
			assert.Equal(t, want[s.SubmissionID], *s.Rank,
				"rank of %s changed under permutation", s.SubmissionID)
		}
	}
}
