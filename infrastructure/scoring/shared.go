// Package scoring provides the computation units of the bid evaluation
// engine: normalization, weighting, aggregation, preference bonuses,
// variance analysis, consensus resolution, ranking, and evaluator
// calibration. Units are stateless after construction and safe for
// concurrent use.
package scoring

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by scoring units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with
	// an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrNoScores is returned when no scores are provided to an
	// operation that needs at least one.
	ErrNoScores = errors.New("no scores provided")

	// ErrNoSubmissions is returned when a ranking pass receives an empty
	// submission list.
	ErrNoSubmissions = errors.New("no submissions to rank")

	// ErrPopulationRequired is returned when a population-dependent
	// normalization method is invoked without the criterion's raw-score
	// population.
	ErrPopulationRequired = errors.New("normalization method requires score population")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
