package evaluation

import (
	"context"

	"github.com/recipify/diversity-guard/internal/application/services"
)

// Evaluator is the slice of the guard the runner needs.
type Evaluator interface {
	EvaluateCandidate(ctx context.Context, req services.EvaluateRequest) (*services.Decision, error)
}

// GuardFactory builds a guard wired to an empty history store at the given
// duplicate threshold. The runner calls it once per scenario, so scenarios
// never share history.
type GuardFactory func(threshold float64) Evaluator

// Runner runs golden scenarios against a guard.
type Runner struct {
	factory       GuardFactory
	baseThreshold float64
}

// NewRunner creates a runner. baseThreshold is the threshold Run uses;
// Sweep supplies its own.
func NewRunner(factory GuardFactory, baseThreshold float64) *Runner {
	return &Runner{factory: factory, baseThreshold: baseThreshold}
}

// Run executes every scenario at the base threshold and aggregates the
// results.
func (r *Runner) Run(ctx context.Context, scenarios []GoldenScenario) (*EvalSummary, error) {
	results, err := r.execute(ctx, scenarios, r.baseThreshold)
	if err != nil {
		return nil, err
	}
	return Summarize(len(scenarios), results), nil
}

// Sweep re-runs every scenario across a threshold range to chart the
// retry-rate versus duplicate-leak tradeoff.
func (r *Runner) Sweep(ctx context.Context, scenarios []GoldenScenario, bounds SweepBounds) ([]SweepPoint, error) {
	bounds = ClampSweepBounds(bounds)

	var points []SweepPoint
	for threshold := bounds.Min; threshold <= bounds.Max+1e-9; threshold += bounds.Step {
		results, err := r.execute(ctx, scenarios, threshold)
		if err != nil {
			return nil, err
		}
		summary := Summarize(len(scenarios), results)

		points = append(points, SweepPoint{
			Threshold:      threshold,
			RetryRate:      rate(summary.RejectedRetry, summary.TotalSteps),
			FinalRate:      rate(summary.RejectedFinal, summary.TotalSteps),
			DuplicateLeaks: summary.DuplicateLeaks,
			MismatchCount:  len(summary.Mismatches),
			MeanAttempts:   summary.MeanAttempts,
		})
	}

	return points, nil
}

func (r *Runner) execute(ctx context.Context, scenarios []GoldenScenario, threshold float64) ([]StepResult, error) {
	var results []StepResult

	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		guard := r.factory(threshold)
		for i, step := range scenario.Steps {
			res := StepResult{
				ScenarioID:   scenario.ID,
				StepIndex:    i,
				AttemptIndex: step.AttemptIndex,
				Expected:     step.ExpectedOutcome,
			}

			decision, err := guard.EvaluateCandidate(ctx, services.EvaluateRequest{
				Candidate:          step.Candidate,
				RequestIngredients: scenario.Ingredients,
				Kind:               scenario.Kind,
				AttemptIndex:       step.AttemptIndex,
			})
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Actual = decision.Outcome
				res.MaxSimilarity = decision.MaxSimilarity
			}

			results = append(results, res)
		}
	}

	return results, nil
}
