package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/procurelane/evalengine/internal/domain"
)

// RankerConfig defines the configuration parameters for the Ranker.
type RankerConfig struct {
	// Epsilon is the score distance under which two submissions are
	// considered tied. It guards the strict ranking comparison against
	// floating-point noise.
	Epsilon float64 `yaml:"epsilon" json:"epsilon" validate:"gt=0"`

	// RunnerUpRanks is the highest rank still classified as RUNNER_UP.
	RunnerUpRanks int `yaml:"runner_up_ranks" json:"runner_up_ranks" validate:"min=1"`
}

// DefaultRankerConfig returns the domain-standard parameters: a 0.01-point
// tie epsilon and runner-up status through rank 3.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{Epsilon: 0.01, RunnerUpRanks: 3}
}

// Ranker orders submissions by final score, applying mandatory-criteria
// disqualification and deterministic tie handling.
//
// Rank is a pure function over its input: it returns a new RankedList and
// never mutates the submissions passed to it. Applying the computed ranks
// is the persistence layer's job.
type Ranker struct {
	name   string
	config RankerConfig

	// newID and now are injection points for deterministic tests.
	newID func() string
	now   func() time.Time
}

// NewRanker creates a Ranker with the given configuration.
func NewRanker(name string, config RankerConfig) (*Ranker, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &Ranker{
		name:   name,
		config: config,
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (r *Ranker) Name() string { return r.name }

// Rank orders the submissions by final score descending and assigns ranks
// and statuses.
//
// Submissions failing any mandatory criterion are disqualified first: rank
// nil, status DISQUALIFIED, reason recording the failure count, and full
// exclusion from the ranked sequence. The remainder get dense ranks
// starting at 1, with scores within epsilon sharing a rank and the next
// distinct score skipping by the tie-group size: final scores
// [90, 90, 85] rank as [1, 1, 3]. Statuses are assigned only after every
// rank is final: rank 1 is WINNER, ranks through the runner-up bound are
// RUNNER_UP, the rest QUALIFIED.
//
// Ranking is stable under input reordering: equal inputs in any
// permutation produce the same rank per submission id. Output ordering is
// by rank, ties broken by submission id, with disqualified entries last.
func (r *Ranker) Rank(submissions []domain.SubmissionEvaluation) (domain.RankedList, error) {
	if len(submissions) == 0 {
		return domain.RankedList{}, ErrNoSubmissions
	}

	var qualified, disqualified []domain.SubmissionEvaluation
	for _, sub := range submissions {
		if failed := sub.MandatoryFailures(); failed > 0 {
			sub.Rank = nil
			sub.Status = domain.StatusDisqualified
			sub.DisqualificationReason = fmt.Sprintf("failed %d mandatory %s",
				failed, pluralCriteria(failed))
			disqualified = append(disqualified, sub)
			continue
		}
		qualified = append(qualified, sub)
	}

	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].FinalScore != qualified[j].FinalScore {
			return qualified[i].FinalScore > qualified[j].FinalScore
		}
		return qualified[i].SubmissionID < qualified[j].SubmissionID
	})

	// Dense-with-skip rank assignment: a tie group shares the rank of
	// its first member, and the next distinct score takes the group
	// start position plus the group size.
	groupRank := 0
	groupScore := math.Inf(1)
	for i := range qualified {
		if math.Abs(qualified[i].FinalScore-groupScore) >= r.config.Epsilon {
			groupRank = i + 1
			groupScore = qualified[i].FinalScore
		}
		rank := groupRank
		qualified[i].Rank = &rank
	}

	for i := range qualified {
		switch rank := *qualified[i].Rank; {
		case rank == 1:
			qualified[i].Status = domain.StatusWinner
		case rank <= r.config.RunnerUpRanks:
			qualified[i].Status = domain.StatusRunnerUp
		default:
			qualified[i].Status = domain.StatusQualified
		}
	}

	sort.Slice(disqualified, func(i, j int) bool {
		return disqualified[i].SubmissionID < disqualified[j].SubmissionID
	})

	return domain.RankedList{
		ID:          r.newID(),
		Submissions: append(qualified, disqualified...),
		RankedAt:    r.now(),
	}, nil
}

// Validate checks if the unit is properly configured and ready for
// execution.
func (r *Ranker) Validate() error {
	if err := validate.Struct(r.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// updates the unit's configuration. Not safe for concurrent use with Rank.
func (r *Ranker) UnmarshalParameters(params yaml.Node) error {
	config := DefaultRankerConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	r.config = config
	return nil
}

func pluralCriteria(n int) string {
	if n == 1 {
		return "criterion"
	}
	return "criteria"
}
