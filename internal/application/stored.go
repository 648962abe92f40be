package application

import (
	"context"
	"fmt"

	"github.com/procurelane/evalengine/internal/domain"
	"github.com/procurelane/evalengine/internal/ports"
)

// StoredEvaluationRequest describes a scoring pass whose configuration
// lives behind the persistence ports rather than in the request itself.
type StoredEvaluationRequest struct {
	// CriteriaSetID names the published criteria set to score against.
	CriteriaSetID string

	// CommunityID scopes the tenant weight overrides. Empty means no
	// overrides.
	CommunityID string

	// Submissions carries the evaluators' raw scores. A nil Eligibility
	// on a submission is resolved through the eligibility source.
	Submissions []SubmissionInput

	// ConsensusMethod overrides the configured reconciliation strategy;
	// empty uses the default.
	ConsensusMethod domain.ConsensusMethod
}

// StoredEvaluationRunner wires the engine to its persistence
// collaborators: it loads criteria and eligibility through the source
// ports, runs the full pipeline, and writes every artifact through the
// sink. The engine stays pure; all I/O lives here.
type StoredEvaluationRunner struct {
	engine      *Engine
	criteria    ports.CriteriaSource
	eligibility ports.EligibilitySource
	sink        ports.ResultSink
}

// NewStoredEvaluationRunner constructs a runner. Criteria source and sink
// are required; the eligibility source may be nil when submissions carry
// their own snapshots.
func NewStoredEvaluationRunner(
	engine *Engine,
	criteria ports.CriteriaSource,
	eligibility ports.EligibilitySource,
	sink ports.ResultSink,
) (*StoredEvaluationRunner, error) {
	if engine == nil {
		return nil, domain.NewConfigurationError("stored evaluation runner", "engine is required", nil)
	}
	if criteria == nil {
		return nil, domain.NewConfigurationError("stored evaluation runner", "criteria source is required", nil)
	}
	if sink == nil {
		return nil, domain.NewConfigurationError("stored evaluation runner", "result sink is required", nil)
	}
	return &StoredEvaluationRunner{
		engine:      engine,
		criteria:    criteria,
		eligibility: eligibility,
		sink:        sink,
	}, nil
}

// Run executes the full pipeline for a stored evaluation and persists the
// outcome. Persistence happens only after the whole pass succeeds, so a
// failed pass leaves no partial artifacts behind.
func (r *StoredEvaluationRunner) Run(ctx context.Context, req StoredEvaluationRequest) (*EvaluationResult, error) {
	set, err := r.criteria.CriteriaSet(ctx, req.CriteriaSetID)
	if err != nil {
		return nil, fmt.Errorf("load criteria set %s: %w", req.CriteriaSetID, err)
	}

	var overrides domain.WeightOverrides
	if req.CommunityID != "" {
		overrides, err = r.criteria.WeightOverrides(ctx, req.CommunityID)
		if err != nil {
			return nil, fmt.Errorf("load weight overrides for community %s: %w", req.CommunityID, err)
		}
	}

	submissions, err := r.resolveEligibility(ctx, req.Submissions)
	if err != nil {
		return nil, err
	}

	result, err := r.engine.ScoreEvaluation(ctx, EvaluationInput{
		Criteria:        CriteriaSetConfig{Set: set, Overrides: overrides},
		Submissions:     submissions,
		ConsensusMethod: req.ConsensusMethod,
	})
	if err != nil {
		return nil, err
	}

	for _, evaluation := range result.Evaluations {
		if err := r.sink.SaveEvaluation(ctx, evaluation); err != nil {
			return nil, fmt.Errorf("save evaluation for submission %s: %w", evaluation.SubmissionID, err)
		}
	}
	for _, record := range result.ConsensusRecords {
		if err := r.sink.SaveConsensusRecord(ctx, record); err != nil {
			return nil, fmt.Errorf("save consensus record %s: %w", record.ID, err)
		}
	}
	if err := r.sink.SaveRankedList(ctx, result.Ranking); err != nil {
		return nil, fmt.Errorf("save ranked list %s: %w", result.Ranking.ID, err)
	}
	return result, nil
}

// resolveEligibility fills missing eligibility snapshots from the source.
// Submissions that already carry a snapshot are left untouched.
func (r *StoredEvaluationRunner) resolveEligibility(ctx context.Context, submissions []SubmissionInput) ([]SubmissionInput, error) {
	if r.eligibility == nil {
		return submissions, nil
	}
	resolved := make([]SubmissionInput, len(submissions))
	copy(resolved, submissions)
	for i, submission := range resolved {
		if submission.Eligibility != nil {
			continue
		}
		snapshot, err := r.eligibility.Snapshot(ctx, submission.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("load eligibility for submission %s: %w", submission.SubmissionID, err)
		}
		resolved[i].Eligibility = &snapshot
	}
	return resolved, nil
}
