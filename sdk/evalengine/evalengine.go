// Package evalengine is the public facade of the bid evaluation scoring
// engine. It re-exports the application-layer entry points and the domain
// types callers need, so integrating services depend on a single import
// path and the internal package layout can evolve freely.
package evalengine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/procurelane/evalengine/infrastructure/middleware"
	"github.com/procurelane/evalengine/internal/application"
	"github.com/procurelane/evalengine/internal/domain"
)

// Engine entry points and configuration.
type (
	Engine       = application.Engine
	EngineConfig = application.EngineConfig
	Option       = application.Option

	CriteriaSetConfig = application.CriteriaSetConfig
	SubmissionScores  = application.SubmissionScores
	EvaluatorInput    = application.EvaluatorInput
	SubmissionInput   = application.SubmissionInput
	EvaluationInput   = application.EvaluationInput
	EvaluationResult  = application.EvaluationResult

	StoredEvaluationRunner  = application.StoredEvaluationRunner
	StoredEvaluationRequest = application.StoredEvaluationRequest
)

// Domain types surfaced through the engine's results.
type (
	Criterion            = domain.Criterion
	CriteriaSet          = domain.CriteriaSet
	Category             = domain.Category
	NormalizationMethod  = domain.NormalizationMethod
	WeightOverrides      = domain.WeightOverrides
	EligibilitySnapshot  = domain.EligibilitySnapshot
	EvaluatorScore       = domain.EvaluatorScore
	SubmissionEvaluation = domain.SubmissionEvaluation
	ConsensusMethod      = domain.ConsensusMethod
	ConsensusRecord      = domain.ConsensusRecord
	RankedList           = domain.RankedList
	RankStatus           = domain.RankStatus
	CalibrationResult    = domain.CalibrationResult
)

// Consensus methods.
const (
	ConsensusAutomatic   = domain.ConsensusAutomatic
	ConsensusTrimmedMean = domain.ConsensusTrimmedMean
	ConsensusVoting      = domain.ConsensusVoting
	ConsensusAveraging   = domain.ConsensusAveraging
)

// Ranking statuses.
const (
	StatusQualified    = domain.StatusQualified
	StatusWinner       = domain.StatusWinner
	StatusRunnerUp     = domain.StatusRunnerUp
	StatusDisqualified = domain.StatusDisqualified
)

// New constructs an engine from explicit configuration.
func New(config EngineConfig, opts ...Option) (*Engine, error) {
	return application.NewEngine(config, opts...)
}

// NewDefault constructs an engine with the domain-standard configuration.
func NewDefault(opts ...Option) (*Engine, error) {
	return application.NewEngine(application.DefaultEngineConfig(), opts...)
}

// NewObserved constructs an engine with Prometheus metrics registered on
// reg and OpenTelemetry spans emitted under tracerName.
func NewObserved(config EngineConfig, reg prometheus.Registerer, tracerName string) (*Engine, error) {
	return application.NewEngine(config,
		application.WithMetrics(middleware.NewPrometheusMetrics(reg)),
		application.WithObserver(middleware.NewOTelObserver(tracerName)),
	)
}

// DefaultConfig returns the domain-standard engine configuration.
func DefaultConfig() EngineConfig { return application.DefaultEngineConfig() }

// LoadConfig parses engine configuration from YAML, overlaying it onto the
// defaults.
func LoadConfig(data []byte) (EngineConfig, error) {
	return application.LoadEngineConfig(data)
}

// LoadCriteriaSet parses and validates a criteria-set definition from YAML.
func LoadCriteriaSet(data []byte) (CriteriaSetConfig, error) {
	return application.LoadCriteriaSet(data)
}

// WithMetrics attaches a metrics collector to the engine.
var WithMetrics = application.WithMetrics

// WithObserver attaches a tracing observer to the engine.
var WithObserver = application.WithObserver

// NewStoredRunner wires the engine to persistence collaborators for
// stored evaluations.
var NewStoredRunner = application.NewStoredEvaluationRunner
