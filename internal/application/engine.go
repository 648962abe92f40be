package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/procurelane/evalengine/infrastructure/scoring"
	"github.com/procurelane/evalengine/internal/domain"
	"github.com/procurelane/evalengine/internal/ports"
)

// Engine is the dependency-injected facade over the scoring units. It
// exposes the four entry points consumed by the transport and persistence
// layers plus a whole-evaluation orchestration pass.
//
// The engine is a pure computation layer: it performs no I/O, no logging,
// and holds no mutable state after construction, so a single instance is
// safe for concurrent use.
type Engine struct {
	config EngineConfig

	bonus       *scoring.PreferenceBonusCalculator
	consensus   *scoring.ConsensusResolver
	ranker      *scoring.Ranker
	calibration *scoring.CalibrationAnalyzer

	metrics  ports.MetricsCollector
	observer ports.EvaluationObserver
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithMetrics attaches a metrics collector. Nil disables metrics.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithObserver attaches a tracing observer. Nil disables tracing.
func WithObserver(observer ports.EvaluationObserver) Option {
	return func(e *Engine) { e.observer = observer }
}

// NewEngine constructs an engine from explicit configuration. All
// thresholds, tiers, and defaults travel through the config; there is no
// hidden process-wide state.
func NewEngine(config EngineConfig, opts ...Option) (*Engine, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("engine config validation failed: %w", err)
	}

	bonus, err := scoring.NewPreferenceBonusCalculator("bonus", config.Bonus)
	if err != nil {
		return nil, fmt.Errorf("bonus calculator: %w", err)
	}
	variance, err := scoring.NewVarianceAnalyzer("variance", config.Variance)
	if err != nil {
		return nil, fmt.Errorf("variance analyzer: %w", err)
	}
	consensus, err := scoring.NewConsensusResolver("consensus", config.Consensus, variance)
	if err != nil {
		return nil, fmt.Errorf("consensus resolver: %w", err)
	}
	ranker, err := scoring.NewRanker("ranker", config.Ranker)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}
	calibration, err := scoring.NewCalibrationAnalyzer("calibration", config.Calibration)
	if err != nil {
		return nil, fmt.Errorf("calibration analyzer: %w", err)
	}

	e := &Engine{
		config:      config,
		bonus:       bonus,
		consensus:   consensus,
		ranker:      ranker,
		calibration: calibration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SubmissionScores is one evaluator's raw scoring of one submission.
type SubmissionScores struct {
	// SubmissionID identifies the scored submission.
	SubmissionID string

	// EvaluatorID identifies the evaluator.
	EvaluatorID string

	// RawScores maps criterion id to the assigned raw score. Every
	// criterion in the set must be scored.
	RawScores map[string]float64

	// Justifications maps criterion id to the evaluator's rationale.
	Justifications map[string]string

	// Populations maps criterion id to the raw scores of every
	// submission on that criterion. Required only for
	// population-dependent normalization methods.
	Populations map[string][]float64

	// Eligibility is the submission's preference snapshot; nil means no
	// bonus applies.
	Eligibility *domain.EligibilitySnapshot

	// Confidence is the evaluator's self-reported confidence in [0, 1].
	Confidence float64
}

// ComputeScore aggregates one evaluator's criterion scores for one
// submission and composes the preference bonus, producing the submission's
// evaluation aggregate for that evaluator.
//
// Errors are all-or-nothing: configuration and validation failures reject
// the submission without partial state, and never affect other
// submissions.
func (e *Engine) ComputeScore(ctx context.Context, criteria CriteriaSetConfig, sub SubmissionScores) (domain.SubmissionEvaluation, error) {
	_, finish := e.startStage(ctx, "compute_score", sub.SubmissionID)
	var err error
	defer func() { finish(err) }()

	if len(criteria.Set.Criteria) == 0 {
		err = domain.NewConfigurationError("engine", "criteria set has no criteria", nil)
		return domain.SubmissionEvaluation{}, err
	}

	var inputs []scoring.CriterionInput
	inputs, err = e.criterionInputs(criteria.Set, sub)
	if err != nil {
		return domain.SubmissionEvaluation{}, err
	}

	aggregatorConfig := e.config.Aggregator
	aggregatorConfig.Overrides = criteria.Overrides
	if criteria.Set.Normalization != "" {
		aggregatorConfig.Normalization = criteria.Set.Normalization
	}
	aggregator, aerr := scoring.NewScoreAggregator("aggregator", aggregatorConfig)
	if aerr != nil {
		err = aerr
		return domain.SubmissionEvaluation{}, err
	}

	result, aerr := aggregator.Aggregate(sub.SubmissionID, sub.EvaluatorID, inputs)
	if aerr != nil {
		err = aerr
		return domain.SubmissionEvaluation{}, err
	}

	var bonus float64
	bonus, err = e.preferenceBonus(sub.Eligibility)
	if err != nil {
		return domain.SubmissionEvaluation{}, err
	}
	final := e.bonus.Apply(result.BaseScore, bonus)

	if e.metrics != nil {
		e.metrics.IncSubmissionsScored()
		e.metrics.ObserveFinalScore(final)
	}

	return domain.SubmissionEvaluation{
		SubmissionID:      sub.SubmissionID,
		BaseScore:         result.BaseScore,
		PreferenceBonus:   bonus,
		FinalScore:        final,
		CategoryBreakdown: result.CategoryBreakdown,
		CriterionScores:   result.CriterionScores,
		Status:            domain.StatusQualified,
	}, nil
}

// criterionInputs pairs every criterion in the set with its raw score,
// rejecting scores for unknown criteria and criteria left unscored.
func (e *Engine) criterionInputs(set domain.CriteriaSet, sub SubmissionScores) ([]scoring.CriterionInput, error) {
	for criterionID := range sub.RawScores {
		if _, ok := set.Criterion(criterionID); !ok {
			return nil, domain.NewConfigurationError("engine",
				fmt.Sprintf("score references criterion %q not in criteria set %s", criterionID, set.ID),
				domain.ErrCriterionNotFound)
		}
	}

	verr := domain.NewValidationError("submission scores")
	inputs := make([]scoring.CriterionInput, 0, len(set.Criteria))
	for _, c := range set.Criteria {
		raw, ok := sub.RawScores[c.ID]
		if !ok {
			verr.AddError(fmt.Sprintf("criterion %q has no score", c.ID))
			continue
		}
		inputs = append(inputs, scoring.CriterionInput{
			Criterion:     c,
			RawScore:      raw,
			Justification: sub.Justifications[c.ID],
			Population:    sub.Populations[c.ID],
		})
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return inputs, nil
}

// preferenceBonus computes the bonus under the configured composition
// mode. A nil snapshot contributes nothing.
func (e *Engine) preferenceBonus(snapshot *domain.EligibilitySnapshot) (float64, error) {
	if snapshot == nil {
		return 0, nil
	}
	if e.config.BonusMode == BonusModeFactors {
		fb, err := e.bonus.FactorBonus(*snapshot)
		if err != nil {
			return 0, err
		}
		return fb.Total, nil
	}
	return e.bonus.Bonus(*snapshot), nil
}

// BuildConsensus reconciles multiple evaluators' scores for the same
// submission into a single agreed score with a full audit record. The
// caller must guarantee every evaluator has finalized first; the engine
// does not enforce that precondition.
func (e *Engine) BuildConsensus(ctx context.Context, scores []domain.EvaluatorScore, method domain.ConsensusMethod) (domain.ConsensusRecord, error) {
	subject := ""
	if len(scores) > 0 {
		subject = scores[0].SubmissionID
	}
	_, finish := e.startStage(ctx, "consensus", subject)

	record, err := e.consensus.Resolve(scores, method)
	finish(err)
	if err != nil {
		return domain.ConsensusRecord{}, err
	}
	if e.metrics != nil {
		e.metrics.IncConsensus(record.Method)
	}
	return record, nil
}

// RankSubmissions orders submissions by final score with disqualification
// and tie handling. It is a pure function over its input; the caller owns
// applying the resulting ranks.
func (e *Engine) RankSubmissions(ctx context.Context, submissions []domain.SubmissionEvaluation) (domain.RankedList, error) {
	_, finish := e.startStage(ctx, "rank", fmt.Sprintf("%d submissions", len(submissions)))

	list, err := e.ranker.Rank(submissions)
	finish(err)
	if err != nil {
		return domain.RankedList{}, err
	}
	if e.metrics != nil {
		var disqualified int
		for _, s := range list.Submissions {
			if s.Status == domain.StatusDisqualified {
				disqualified++
			}
		}
		e.metrics.IncDisqualified(disqualified)
	}
	return list, nil
}

// CalibrateEvaluator compares an evaluator's recent scoring history to the
// peer average. The result is deterministic for identical inputs.
func (e *Engine) CalibrateEvaluator(ctx context.Context, evaluatorID string, recentScores []float64, peerAverage float64) (domain.CalibrationResult, error) {
	_, finish := e.startStage(ctx, "calibrate", evaluatorID)
	result, err := e.calibration.Calibrate(evaluatorID, recentScores, peerAverage)
	finish(err)
	return result, err
}

// EvaluatorInput is one evaluator's raw scores within a whole-evaluation
// pass.
type EvaluatorInput struct {
	EvaluatorID    string             `json:"evaluator_id" yaml:"evaluator_id"`
	RawScores      map[string]float64 `json:"raw_scores" yaml:"raw_scores"`
	Justifications map[string]string  `json:"justifications,omitempty" yaml:"justifications"`
	Confidence     float64            `json:"confidence,omitempty" yaml:"confidence"`
}

// SubmissionInput bundles everything needed to score one submission.
type SubmissionInput struct {
	SubmissionID string                      `json:"submission_id" yaml:"submission_id"`
	Eligibility  *domain.EligibilitySnapshot `json:"eligibility,omitempty" yaml:"eligibility"`
	Evaluators   []EvaluatorInput            `json:"evaluators" yaml:"evaluators"`
}

// EvaluationInput is the full input of a whole-evaluation scoring pass.
type EvaluationInput struct {
	Criteria    CriteriaSetConfig
	Submissions []SubmissionInput

	// ConsensusMethod overrides the configured reconciliation strategy
	// for this pass; empty uses the default.
	ConsensusMethod domain.ConsensusMethod
}

// EvaluationResult is the outcome of a whole-evaluation pass: the ranked
// per-submission aggregates and the consensus audit records produced along
// the way.
type EvaluationResult struct {
	// Evaluations holds every submission's aggregate, ranked.
	Evaluations []domain.SubmissionEvaluation

	// ConsensusRecords holds one record per submission that had two or
	// more evaluators, in submission input order.
	ConsensusRecords []domain.ConsensusRecord

	// Ranking is the full ranked list, identical in content to
	// Evaluations.
	Ranking domain.RankedList
}

// ScoreEvaluation runs the full pipeline over an evaluation: a parallel
// per-submission scoring and consensus pass followed by a single
// serialized ranking step.
//
// Submissions are scored independently, so the pass is a bounded
// parallel map; ranking requires a total order over the full set and runs
// once after every submission completes. Any submission error fails the
// pass without corrupting other submissions' inputs.
func (e *Engine) ScoreEvaluation(ctx context.Context, input EvaluationInput) (*EvaluationResult, error) {
	stageCtx, finish := e.startStage(ctx, "score_evaluation", input.Criteria.Set.ID)
	var err error
	defer func() { finish(err) }()

	if len(input.Submissions) == 0 {
		verr := domain.NewValidationError("evaluation input")
		verr.AddError("at least one submission is required")
		err = verr
		return nil, err
	}

	populations := e.populations(input)

	evaluations := make([]domain.SubmissionEvaluation, len(input.Submissions))
	records := make([]*domain.ConsensusRecord, len(input.Submissions))

	g, gctx := errgroup.WithContext(stageCtx)
	g.SetLimit(e.config.MaxConcurrency)

	for i, submission := range input.Submissions {
		i, submission := i, submission
		g.Go(func() error {
			evaluation, record, serr := e.scoreSubmission(gctx, input, submission, populations)
			if serr != nil {
				return fmt.Errorf("submission %s: %w", submission.SubmissionID, serr)
			}
			evaluations[i] = evaluation
			records[i] = record
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	ranking, rerr := e.RankSubmissions(stageCtx, evaluations)
	if rerr != nil {
		err = rerr
		return nil, err
	}

	result := &EvaluationResult{
		Evaluations: ranking.Submissions,
		Ranking:     ranking,
	}
	for _, record := range records {
		if record != nil {
			result.ConsensusRecords = append(result.ConsensusRecords, *record)
		}
	}
	return result, nil
}

// scoreSubmission scores one submission across all of its evaluators and
// reconciles their scores when the roster allows it.
func (e *Engine) scoreSubmission(
	ctx context.Context,
	input EvaluationInput,
	submission SubmissionInput,
	populations map[string][]float64,
) (domain.SubmissionEvaluation, *domain.ConsensusRecord, error) {
	if len(submission.Evaluators) == 0 {
		verr := domain.NewValidationError("submission input")
		verr.AddError("at least one evaluator is required")
		return domain.SubmissionEvaluation{}, nil, verr
	}

	evaluatorScores := make([]domain.EvaluatorScore, 0, len(submission.Evaluators))
	perEvaluator := make([]domain.SubmissionEvaluation, 0, len(submission.Evaluators))
	for _, evaluator := range submission.Evaluators {
		evaluation, err := e.ComputeScore(ctx, input.Criteria, SubmissionScores{
			SubmissionID:   submission.SubmissionID,
			EvaluatorID:    evaluator.EvaluatorID,
			RawScores:      evaluator.RawScores,
			Justifications: evaluator.Justifications,
			Populations:    populations,
			Eligibility:    submission.Eligibility,
			Confidence:     evaluator.Confidence,
		})
		if err != nil {
			return domain.SubmissionEvaluation{}, nil, err
		}
		perEvaluator = append(perEvaluator, evaluation)
		evaluatorScores = append(evaluatorScores, domain.EvaluatorScore{
			SubmissionID:    submission.SubmissionID,
			EvaluatorID:     evaluator.EvaluatorID,
			OverallScore:    evaluation.FinalScore,
			Confidence:      evaluator.Confidence,
			CriterionScores: evaluation.CriterionScores,
		})
	}

	merged := e.mergeEvaluations(submission.SubmissionID, perEvaluator)

	if len(evaluatorScores) == 1 {
		// A single evaluator has nothing to reconcile; the score stands
		// as-is with no consensus claim.
		return merged, nil, nil
	}

	record, err := e.BuildConsensus(ctx, evaluatorScores, input.ConsensusMethod)
	if err != nil {
		return domain.SubmissionEvaluation{}, nil, err
	}
	merged.ConsensusReached = true
	merged.ConsensusScore = record.FinalScore
	merged.FinalScore = record.FinalScore
	return merged, &record, nil
}

// mergeEvaluations folds per-evaluator aggregates into the submission's
// single evaluation: means for scores and breakdowns, all criterion rows
// preserved so ranking sees every evaluator's mandatory checks.
func (e *Engine) mergeEvaluations(submissionID string, perEvaluator []domain.SubmissionEvaluation) domain.SubmissionEvaluation {
	n := float64(len(perEvaluator))
	merged := domain.SubmissionEvaluation{
		SubmissionID:      submissionID,
		PreferenceBonus:   perEvaluator[0].PreferenceBonus,
		CategoryBreakdown: make(map[domain.Category]float64),
		Status:            domain.StatusQualified,
	}

	for _, evaluation := range perEvaluator {
		merged.BaseScore += evaluation.BaseScore / n
		merged.FinalScore += evaluation.FinalScore / n
		for category, score := range evaluation.CategoryBreakdown {
			merged.CategoryBreakdown[category] += score / n
		}
		merged.CriterionScores = append(merged.CriterionScores, evaluation.CriterionScores...)
	}
	return merged
}

// populations collects, per criterion, the raw scores across every
// submission and evaluator. Only computed when the normalization method
// needs it.
func (e *Engine) populations(input EvaluationInput) map[string][]float64 {
	method := input.Criteria.Set.Normalization
	if method == "" {
		method = e.config.Aggregator.Normalization
	}
	if !method.PopulationDependent() {
		return nil
	}

	populations := make(map[string][]float64)
	for _, submission := range input.Submissions {
		for _, evaluator := range submission.Evaluators {
			for criterionID, raw := range evaluator.RawScores {
				populations[criterionID] = append(populations[criterionID], raw)
			}
		}
	}
	return populations
}

// startStage opens the observer span and latency timer for a pipeline
// stage. Both collaborators are optional; absent ones reduce this to a
// no-op.
func (e *Engine) startStage(ctx context.Context, stage, subject string) (context.Context, func(err error)) {
	started := time.Now()

	finishSpan := func(error) {}
	if e.observer != nil {
		ctx, finishSpan = e.observer.StageStarted(ctx, stage, subject)
	}

	return ctx, func(err error) {
		finishSpan(err)
		if e.metrics != nil {
			e.metrics.RecordStageLatency(stage, time.Since(started))
		}
	}
}
