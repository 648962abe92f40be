package domain

import "time"

// CriterionScore is one evaluator's score for one criterion of one
// submission. It is created once and never mutated after the evaluator
// finalizes; that immutability is the basis for auditability.
type CriterionScore struct {
	// SubmissionID identifies the scored submission.
	SubmissionID string `json:"submission_id"`

	// CriterionID identifies the criterion being scored.
	CriterionID string `json:"criterion_id"`

	// EvaluatorID identifies the evaluator who assigned the score.
	EvaluatorID string `json:"evaluator_id"`

	// RawScore is the score as assigned, in [0, criterion.MaxScore].
	RawScore float64 `json:"raw_score"`

	// NormalizedScore is the raw score mapped onto the common 0-100
	// scale. Always in [0, 100].
	NormalizedScore float64 `json:"normalized_score"`

	// EffectiveWeight is the criterion weight after tenant overrides.
	EffectiveWeight float64 `json:"effective_weight"`

	// WeightedScore is NormalizedScore * EffectiveWeight.
	WeightedScore float64 `json:"weighted_score"`

	// Justification is the evaluator's free-text rationale.
	Justification string `json:"justification,omitempty"`

	// Passed reports whether a mandatory criterion's minimum passing
	// score was met. Always true for non-mandatory criteria.
	Passed bool `json:"passed"`
}

// EvaluatorScore is one evaluator's overall result for one submission:
// the sum of weighted contributions divided by total weight, plus scoring
// metadata. Consensus and ranking components read these values and never
// mutate them.
type EvaluatorScore struct {
	// SubmissionID identifies the scored submission.
	SubmissionID string `json:"submission_id"`

	// EvaluatorID identifies the evaluator.
	EvaluatorID string `json:"evaluator_id"`

	// OverallScore is the evaluator's aggregate score in [0, 100].
	OverallScore float64 `json:"overall_score"`

	// Confidence is the evaluator's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Blind marks scores produced in blind mode, where the evaluator
	// could not see other evaluators' scores.
	Blind bool `json:"blind"`

	// FinalizedAt records when the evaluator locked the score.
	FinalizedAt time.Time `json:"finalized_at"`

	// CriterionScores holds the per-criterion detail behind the overall
	// score.
	CriterionScores []CriterionScore `json:"criterion_scores,omitempty"`
}

// RankStatus classifies a submission's ranking outcome.
type RankStatus string

// Ranking outcomes. Disqualification is a first-class outcome, not an error.
const (
	StatusQualified    RankStatus = "QUALIFIED"
	StatusWinner       RankStatus = "WINNER"
	StatusRunnerUp     RankStatus = "RUNNER_UP"
	StatusDisqualified RankStatus = "DISQUALIFIED"
)

// SubmissionEvaluation is the aggregate scoring state of one submission
// within one evaluation. The aggregator fills the base score and breakdown,
// the bonus calculator the bonus and final score, the consensus resolver
// the consensus fields, and the ranker the rank and status.
type SubmissionEvaluation struct {
	// SubmissionID identifies the submission.
	SubmissionID string `json:"submission_id"`

	// BaseScore is the weighted aggregate before preference bonuses,
	// in [0, 100].
	BaseScore float64 `json:"base_score"`

	// PreferenceBonus is the additive bonus from eligibility factors.
	PreferenceBonus float64 `json:"preference_bonus"`

	// FinalScore is min(100, BaseScore + PreferenceBonus), possibly
	// replaced by the consensus score when consensus ran.
	FinalScore float64 `json:"final_score"`

	// CategoryBreakdown is the per-category aggregate score, scoped the
	// same way as the base score.
	CategoryBreakdown map[Category]float64 `json:"category_breakdown,omitempty"`

	// ConsensusReached reports whether a single agreed score exists,
	// either via the automatic fast path or a resolution round.
	ConsensusReached bool `json:"consensus_reached"`

	// ConsensusScore is the agreed score when ConsensusReached is true.
	ConsensusScore float64 `json:"consensus_score"`

	// Rank is the dense rank among non-disqualified submissions,
	// starting at 1. Nil when disqualified.
	Rank *int `json:"rank,omitempty"`

	// Status is the ranking classification.
	Status RankStatus `json:"status"`

	// DisqualificationReason explains a DISQUALIFIED status.
	DisqualificationReason string `json:"disqualification_reason,omitempty"`

	// CriterionScores is the consensus-level per-criterion view used for
	// mandatory-criteria checks during ranking.
	CriterionScores []CriterionScore `json:"criterion_scores,omitempty"`
}

// MandatoryFailures counts criterion scores that failed a mandatory check.
func (se SubmissionEvaluation) MandatoryFailures() int {
	var failed int
	for _, cs := range se.CriterionScores {
		if !cs.Passed {
			failed++
		}
	}
	return failed
}

// RankedList is the ordered outcome of a ranking pass. It is a new value;
// the submissions passed to the ranker are never mutated, and the
// persistence layer is responsible for applying the computed ranks.
type RankedList struct {
	// ID uniquely identifies this ranking pass.
	ID string `json:"id"`

	// Submissions holds every input submission with rank and status
	// assigned, ordered by rank with disqualified entries last.
	Submissions []SubmissionEvaluation `json:"submissions"`

	// RankedAt records when the ranking was computed.
	RankedAt time.Time `json:"ranked_at"`
}

// Winner returns the rank-1 submission, if any.
func (rl RankedList) Winner() (SubmissionEvaluation, bool) {
	for _, s := range rl.Submissions {
		if s.Status == StatusWinner {
			return s, true
		}
	}
	return SubmissionEvaluation{}, false
}

// EligibilitySnapshot is the preference-eligibility view of a submission at
// scoring time, supplied read-only by the business/profile service.
type EligibilitySnapshot struct {
	// Eligible reports whether the submission meets the base eligibility
	// category at all. When false no bonus applies regardless of the
	// other fields.
	Eligible bool `json:"eligible"`

	// OwnershipPercent is the qualifying ownership percentage in
	// [0, 100].
	OwnershipPercent float64 `json:"ownership_percent"`

	// RequiredOwnershipPercent is the minimum ownership the requirement
	// demands for the lowest bonus tier.
	RequiredOwnershipPercent float64 `json:"required_ownership_percent"`

	// AffiliationID is the vendor's declared affiliation, empty when
	// none.
	AffiliationID string `json:"affiliation_id,omitempty"`

	// RequiredAffiliationID is the affiliation the requirement targets.
	RequiredAffiliationID string `json:"required_affiliation_id,omitempty"`

	// DistanceKM is the vendor's distance from the delivery location.
	DistanceKM float64 `json:"distance_km"`

	// Endorsements counts verified community endorsements.
	Endorsements int `json:"endorsements"`

	// AlignmentScore rates mission alignment in [0, 1].
	AlignmentScore float64 `json:"alignment_score"`
}
