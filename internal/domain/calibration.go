package domain

import "time"

// ScoringStyle classifies an evaluator's scoring behavior relative to the
// peer population.
type ScoringStyle string

// Scoring styles. The band around the peer average that counts as moderate
// is configured on the calibration analyzer.
const (
	StyleStrict   ScoringStyle = "STRICT"
	StyleModerate ScoringStyle = "MODERATE"
	StyleLenient  ScoringStyle = "LENIENT"
)

// CalibrationStatus is the pass/fail outcome of a calibration run.
type CalibrationStatus string

// Calibration outcomes.
const (
	CalibrationPassed           CalibrationStatus = "PASSED"
	CalibrationNeedsImprovement CalibrationStatus = "NEEDS_IMPROVEMENT"
)

// CalibrationResult captures one calibration run for one evaluator. Each
// run supersedes the previous result without deleting it, preserving
// calibration history.
type CalibrationResult struct {
	// EvaluatorID identifies the calibrated evaluator.
	EvaluatorID string `json:"evaluator_id"`

	// SampleSize is the number of recent scores analyzed.
	SampleSize int `json:"sample_size"`

	// MeanScore is the mean of the recent scores.
	MeanScore float64 `json:"mean_score"`

	// StdDev is the standard deviation of the recent scores.
	StdDev float64 `json:"std_dev"`

	// PeerAverage is the peer population's average score the evaluator
	// was compared against.
	PeerAverage float64 `json:"peer_average"`

	// Deviation is |MeanScore - PeerAverage|.
	Deviation float64 `json:"deviation"`

	// Style is the classified scoring style.
	Style ScoringStyle `json:"style"`

	// CalibrationScore rates how well-calibrated the evaluator is, in
	// [0, 100]. Systematic deviation from peers is penalized twice as
	// heavily as raw spread.
	CalibrationScore float64 `json:"calibration_score"`

	// Recommendations holds training guidance. Non-empty whenever the
	// status is NEEDS_IMPROVEMENT.
	Recommendations []string `json:"recommendations,omitempty"`

	// Status is PASSED at or above the pass threshold.
	Status CalibrationStatus `json:"status"`

	// NextDueAt is when the next calibration is due, independent of
	// pass/fail.
	NextDueAt time.Time `json:"next_due_at"`
}
