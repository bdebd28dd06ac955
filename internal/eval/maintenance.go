package eval

import (
	"fmt"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// QuestionType is the kind of maintenance follow-up question asked after a
// preference was stored.
type QuestionType string

const (
	// QuestionEqual restates the stored preference.
	QuestionEqual QuestionType = "equal"
	// QuestionNegate contradicts the stored preference.
	QuestionNegate QuestionType = "negate"
	// QuestionDifferent states another preference in the same category.
	QuestionDifferent QuestionType = "different"
)

// ExpectedAction returns the correct maintenance action for a question type:
// a restated preference should pass, a negated one should update, a different
// one should append.
func ExpectedAction(q QuestionType) (domain.ActionName, error) {
	switch q {
	case QuestionEqual:
		return domain.ActionPass, nil
	case QuestionNegate:
		return domain.ActionUpdate, nil
	case QuestionDifferent:
		return domain.ActionAppend, nil
	}
	return "", fmt.Errorf("unknown question type: %q", q)
}

// QuestionTally counts decisions for one policy and question type.
type QuestionTally struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	// Actions counts each decided action by name.
	Actions map[domain.ActionName]int `json:"actions"`
}

func (t QuestionTally) Accuracy() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total)
}

// MaintenanceScores summarizes a maintenance run, split by cardinality policy
// and question type.
type MaintenanceScores struct {
	Tallies map[domain.Cardinality]map[QuestionType]QuestionTally `json:"tallies"`
	// MeanExistingPreferences is the mean bucket size the classifier saw.
	MeanExistingPreferences float64 `json:"mean_existing_preferences"`
	// SkippedNegate counts negate questions left out because extraction did
	// not produce exactly one preference.
	SkippedNegate int `json:"skipped_negate"`
	// ProtocolViolations counts decisions that fell back to pass because the
	// classifier produced no usable tool call.
	ProtocolViolations int `json:"protocol_violations"`
}

// MaintenanceScorer accumulates maintenance decisions against their expected
// actions.
type MaintenanceScorer struct {
	tallies       map[domain.Cardinality]map[QuestionType]QuestionTally
	bucketSizes   []int
	skippedNegate int
	violations    int
}

func NewMaintenanceScorer() *MaintenanceScorer {
	return &MaintenanceScorer{
		tallies: map[domain.Cardinality]map[QuestionType]QuestionTally{},
	}
}

// Add records one decision: the action taken for a question under a policy,
// the bucket size the classifier saw, and whether the decision was a
// pass-by-default protocol violation.
func (s *MaintenanceScorer) Add(policy domain.Cardinality, q QuestionType, action domain.ActionName, existingCount int, violation bool) error {
	expected, err := ExpectedAction(q)
	if err != nil {
		return err
	}

	byQuestion, ok := s.tallies[policy]
	if !ok {
		byQuestion = map[QuestionType]QuestionTally{}
		s.tallies[policy] = byQuestion
	}
	tally := byQuestion[q]
	if tally.Actions == nil {
		tally.Actions = map[domain.ActionName]int{}
	}

	tally.Total++
	tally.Actions[action]++
	if action == expected {
		tally.Correct++
	}
	byQuestion[q] = tally

	s.bucketSizes = append(s.bucketSizes, existingCount)
	if violation {
		s.violations++
	}
	return nil
}

// SkipNegate records a negate question that could not be evaluated.
func (s *MaintenanceScorer) SkipNegate() {
	s.skippedNegate++
}

func (s *MaintenanceScorer) Scores() MaintenanceScores {
	scores := MaintenanceScores{
		Tallies:            s.tallies,
		SkippedNegate:      s.skippedNegate,
		ProtocolViolations: s.violations,
	}
	if len(s.bucketSizes) > 0 {
		sum := 0
		for _, n := range s.bucketSizes {
			sum += n
		}
		scores.MeanExistingPreferences = float64(sum) / float64(len(s.bucketSizes))
	}
	return scores
}
