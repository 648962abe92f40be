package scoring

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/procurelane/evalengine/internal/domain"
)

// Normalize maps a raw criterion score onto the common 0-100 scale using
// the given method. Population-dependent methods (z-score, percentile)
// require the full raw-score population of the criterion across all
// submissions; the caller supplies it explicitly so the normalizer stays
// pure and never reaches for the submission set itself.
//
// The result is always in [0, 100]. Raw scores outside [0, maxScore] are
// rejected with a domain.ValidationError before any computation runs.
func Normalize(raw, maxScore float64, method domain.NormalizationMethod, population []float64) (float64, error) {
	if err := validateRawScore(raw, maxScore); err != nil {
		return 0, err
	}

	switch method {
	case domain.NormalizationLinear, domain.NormalizationMinMax:
		return raw / maxScore * 100, nil

	case domain.NormalizationNone:
		return clampScore(raw), nil

	case domain.NormalizationZScore:
		return normalizeZScore(raw, population)

	case domain.NormalizationPercentile:
		return normalizePercentile(raw, population)

	default:
		return 0, domain.NewConfigurationError("normalizer",
			fmt.Sprintf("normalization method %q", method), domain.ErrUnknownMethod)
	}
}

// normalizeZScore standardizes raw against the population and rescales the
// z value onto 0-100 with 50 as the population mean and 10 points per
// standard deviation. A population with no spread normalizes every member
// to the midpoint.
func normalizeZScore(raw float64, population []float64) (float64, error) {
	if len(population) < 2 {
		return 0, domain.NewInsufficientDataError("population scores", 2, len(population))
	}

	mean, err := stats.Mean(population)
	if err != nil {
		return 0, fmt.Errorf("population mean: %w", err)
	}
	stdDev, err := stats.StandardDeviationPopulation(population)
	if err != nil {
		return 0, fmt.Errorf("population standard deviation: %w", err)
	}
	if stdDev == 0 {
		return 50, nil
	}

	z := (raw - mean) / stdDev
	return clampScore(50 + z*10), nil
}

// normalizePercentile maps raw to its percentile rank within the
// population, counting ties at half weight so that the mapping stays
// monotonic and symmetric.
func normalizePercentile(raw float64, population []float64) (float64, error) {
	if len(population) < 2 {
		return 0, domain.NewInsufficientDataError("population scores", 2, len(population))
	}

	var below, equal float64
	for _, v := range population {
		switch {
		case v < raw:
			below++
		case v == raw:
			equal++
		}
	}
	return (below + equal/2) / float64(len(population)) * 100, nil
}

// validateRawScore rejects malformed raw scores at the boundary.
func validateRawScore(raw, maxScore float64) error {
	verr := domain.NewValidationError("criterion score")
	if maxScore <= 0 {
		verr.AddError(fmt.Sprintf("max score %g must be positive", maxScore))
	}
	if raw < 0 {
		verr.AddError(fmt.Sprintf("raw score %g is negative", raw))
	}
	if maxScore > 0 && raw > maxScore {
		verr.AddError(fmt.Sprintf("raw score %g exceeds max score %g", raw, maxScore))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// clampScore bounds a score to the canonical [0, 100] scale.
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
