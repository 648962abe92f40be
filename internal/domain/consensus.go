package domain

import "time"

// ConsensusMethod identifies how a single agreed score was produced from
// multiple evaluators' scores.
type ConsensusMethod string

// Supported consensus methods.
const (
	// ConsensusAutomatic marks the fast path: variance was low enough
	// that no resolution ran and the arithmetic mean was adopted.
	ConsensusAutomatic ConsensusMethod = "AUTOMATIC"

	// ConsensusTrimmedMean drops a fixed fraction from each tail of the
	// sorted scores and averages the remainder. This is the default
	// outcome of an evaluator discussion round.
	ConsensusTrimmedMean ConsensusMethod = "TRIMMED_MEAN"

	// ConsensusVoting adopts the median of all scores.
	ConsensusVoting ConsensusMethod = "VOTING"

	// ConsensusAveraging adopts the arithmetic mean and is always
	// recorded as unanimous.
	ConsensusAveraging ConsensusMethod = "AVERAGING"
)

// Valid reports whether m is a supported consensus method.
func (m ConsensusMethod) Valid() bool {
	switch m {
	case ConsensusAutomatic, ConsensusTrimmedMean, ConsensusVoting, ConsensusAveraging:
		return true
	}
	return false
}

// ConsensusRecord is the append-only audit artifact of one reconciliation
// event for one submission. An evaluation may accumulate multiple rounds
// for the same submission if disagreement recurs; current policy runs one
// round but the record keeps the round number so repeated invocations
// remain representable.
type ConsensusRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// SubmissionID identifies the submission whose scores were
	// reconciled.
	SubmissionID string `json:"submission_id"`

	// Round is the 1-based reconciliation round number.
	Round int `json:"round"`

	// EvaluatorIDs lists the participating evaluators.
	EvaluatorIDs []string `json:"evaluator_ids"`

	// InitialScores holds each evaluator's score before reconciliation,
	// ordered consistently with EvaluatorIDs.
	InitialScores []float64 `json:"initial_scores"`

	// Variance is the population variance of the initial scores.
	Variance float64 `json:"variance"`

	// StdDev is the population standard deviation of the initial scores.
	StdDev float64 `json:"std_dev"`

	// Method records how the final score was produced.
	Method ConsensusMethod `json:"method"`

	// FinalScore is the agreed score in [0, 100].
	FinalScore float64 `json:"final_score"`

	// Unanimous reports whether no evaluator dissented from the final
	// score.
	Unanimous bool `json:"unanimous"`

	// DissenterIDs lists evaluators whose scores remained far from the
	// agreed score.
	DissenterIDs []string `json:"dissenter_ids,omitempty"`

	// DisagreementCriteria lists criterion ids whose per-criterion score
	// variance across evaluators exceeded the disagreement threshold.
	DisagreementCriteria []string `json:"disagreement_criteria,omitempty"`

	// CreatedAt records when the reconciliation ran.
	CreatedAt time.Time `json:"created_at"`
}
