// Package ports defines the interfaces that form the contract between the
// scoring core and the excluded collaborators: the persistence layer that
// supplies criteria and weighting overrides, the profile service that
// supplies eligibility snapshots, and the observability backends. These
// interfaces enable dependency inversion and keep the core testable.
package ports

import (
	"context"
	"time"

	"github.com/procurelane/evalengine/internal/domain"
)

// CriteriaSource supplies read-only criteria configuration to the engine.
// Implementations live in the persistence layer; the engine never writes
// through this interface.
type CriteriaSource interface {
	// CriteriaSet returns the published criteria set with the given id.
	// Implementations should return an error wrapping
	// domain.ErrInvalidConfiguration when the set does not exist.
	CriteriaSet(ctx context.Context, id string) (domain.CriteriaSet, error)

	// WeightOverrides returns the tenant-scoped category weight
	// overrides for a community, or an empty map when none are
	// configured.
	WeightOverrides(ctx context.Context, communityID string) (domain.WeightOverrides, error)
}

// EligibilitySource supplies the preference-eligibility snapshot of a
// submission at scoring time. The snapshot is captured by the business
// profile service; the engine treats it as immutable input.
type EligibilitySource interface {
	// Snapshot returns the eligibility view for a submission.
	Snapshot(ctx context.Context, submissionID string) (domain.EligibilitySnapshot, error)
}

// ResultSink receives computed artifacts for storage. The engine itself
// performs no persistence; callers wire a sink when they want results
// stored as a side effect of a full evaluation pass.
type ResultSink interface {
	// SaveEvaluation persists a submission's scoring aggregate.
	SaveEvaluation(ctx context.Context, eval domain.SubmissionEvaluation) error

	// SaveConsensusRecord appends a reconciliation audit record.
	SaveConsensusRecord(ctx context.Context, record domain.ConsensusRecord) error

	// SaveRankedList persists the outcome of a ranking pass.
	SaveRankedList(ctx context.Context, list domain.RankedList) error
}

// MetricsCollector defines the interface for collecting operational metrics
// from the scoring pipeline. Implementations should integrate with
// observability platforms like Prometheus or custom monitoring solutions.
// A nil collector is valid everywhere and disables metrics.
type MetricsCollector interface {
	// RecordStageLatency records the execution time of a pipeline stage
	// such as "aggregate", "consensus", or "rank".
	RecordStageLatency(stage string, duration time.Duration)

	// IncSubmissionsScored increments the count of scored submissions.
	IncSubmissionsScored()

	// IncConsensus increments the count of consensus resolutions,
	// labeled by the method that produced the agreed score.
	IncConsensus(method domain.ConsensusMethod)

	// IncDisqualified adds to the count of disqualified submissions.
	IncDisqualified(count int)

	// ObserveFinalScore records a submission's final score in a
	// distribution metric.
	ObserveFinalScore(score float64)
}

// EvaluationObserver defines the tracing hook around pipeline stages.
// Implementations typically open a span per stage; a nil observer is valid
// and disables tracing.
type EvaluationObserver interface {
	// StageStarted marks the start of a named stage for the given
	// subject (submission or evaluation id). The returned context
	// carries the span; the returned finish function must be called
	// exactly once with the stage outcome.
	StageStarted(ctx context.Context, stage, subject string) (context.Context, func(err error))
}
