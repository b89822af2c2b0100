package evaluation

import (
	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// Summarize folds per-step results into an aggregate summary. Steps that
// errored are counted but excluded from outcome totals and attempt math.
func Summarize(totalScenarios int, results []StepResult) *EvalSummary {
	summary := &EvalSummary{TotalScenarios: totalScenarios}

	attempts := make(map[string]int)
	admitted := make(map[string]bool)

	for _, res := range results {
		if res.Error != "" {
			summary.Errors++
			continue
		}
		summary.TotalSteps++

		switch res.Actual {
		case entities.OutcomeAdmitted:
			summary.Admitted++
		case entities.OutcomeRejectedRetry:
			summary.RejectedRetry++
		case entities.OutcomeRejectedFinal:
			summary.RejectedFinal++
		}

		if !admitted[res.ScenarioID] {
			attempts[res.ScenarioID]++
			if res.Actual == entities.OutcomeAdmitted {
				admitted[res.ScenarioID] = true
			}
		}

		if res.Mismatched() {
			summary.Mismatches = append(summary.Mismatches, res)
			if res.Expected != entities.OutcomeAdmitted && res.Actual == entities.OutcomeAdmitted {
				summary.DuplicateLeaks++
			}
		}
	}

	var attemptSum, admittedScenarios int
	for id, done := range admitted {
		if done {
			attemptSum += attempts[id]
			admittedScenarios++
		}
	}
	if admittedScenarios > 0 {
		summary.MeanAttempts = float64(attemptSum) / float64(admittedScenarios)
	}

	return summary
}

// rate guards a count/total division against empty runs
func rate(count, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(count) / float64(total)
}
