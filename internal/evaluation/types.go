package evaluation

import (
	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// GoldenScenario is a labeled candidate sequence for one ingredient combo.
// Steps run in order against a guard with an empty history, so the
// expected outcomes encode how the history should build up.
type GoldenScenario struct {
	ID          string               `json:"id"`
	Description string               `json:"description,omitempty"`
	Ingredients []string             `json:"ingredients"`
	Kind        entities.RequestKind `json:"kind,omitempty"`
	Steps       []ScenarioStep       `json:"steps"`
}

// ScenarioStep is one candidate presented to the guard.
type ScenarioStep struct {
	Candidate *entities.Recipe `json:"candidate"`

	// AttemptIndex is the attempt position inside the generation loop. It
	// resets to zero when a scenario starts a fresh loop after an admission.
	AttemptIndex int `json:"attempt_index"`

	// ExpectedOutcome is optional; steps without one still run and count
	// toward outcome totals but can never mismatch.
	ExpectedOutcome entities.Outcome `json:"expected_outcome,omitempty"`
}

// StepResult holds the evaluation outcome for a single step.
type StepResult struct {
	ScenarioID    string
	StepIndex     int
	AttemptIndex  int
	Expected      entities.Outcome
	Actual        entities.Outcome
	MaxSimilarity float64
	Error         string
}

// Mismatched reports whether the step ran and landed on an unexpected outcome.
func (r *StepResult) Mismatched() bool {
	return r.Error == "" && r.Expected != "" && r.Actual != r.Expected
}

// EvalSummary holds aggregate results across all golden scenarios.
type EvalSummary struct {
	TotalScenarios int
	TotalSteps     int
	Admitted       int
	RejectedRetry  int
	RejectedFinal  int
	Errors         int

	// DuplicateLeaks counts steps expected to be rejected that were
	// admitted anyway, the failure mode the guard exists to prevent.
	DuplicateLeaks int

	// MeanAttempts is the average number of steps a scenario consumed
	// before its first admission.
	MeanAttempts float64

	Mismatches []StepResult
}

// SweepBounds define the threshold range for a sweep run.
type SweepBounds struct {
	Min  float64
	Max  float64
	Step float64
}

// SweepPoint is the outcome of running all scenarios at one threshold.
type SweepPoint struct {
	Threshold      float64
	RetryRate      float64
	FinalRate      float64
	DuplicateLeaks int
	MismatchCount  int
	MeanAttempts   float64
}
